package ai

import (
	"github.com/milk9111/sentinel/common"
	"github.com/milk9111/sentinel/component"
)

// EngageResult is the outcome of a single engagement attempt.
type EngageResult int

const (
	EngageNone EngageResult = iota
	EngageHit
)

func (r EngageResult) String() string {
	if r == EngageHit {
		return "hit"
	}
	return "none"
}

// TryEngage fires at target when the cooldown has elapsed, the target is alive
// and within engage range, and nothing on the agent's obstacle layers blocks
// the shot. Line of sight is checked independently of perception, with the
// engage range as ray length. Every failed precondition is a silent no-op.
func TryEngage(a *Agent, target Target) EngageResult {
	if a == nil || a.inert || a.stats == nil || a.actuator == nil {
		return EngageNone
	}
	if a.cooldown > 0 {
		return EngageNone
	}
	if target == nil {
		return EngageNone
	}
	sink := target.Health()
	if sink == nil || !sink.IsAlive() {
		return EngageNone
	}

	pos := a.actuator.Position()
	targetPos := target.Position()
	dist := common.Distance(pos, targetPos)
	if dist > a.stats.EngageRange {
		return EngageNone
	}

	if !LineOfSight(a.world, a.eye(pos), a.eye(targetPos), a.stats.EngageRange, a.stats.Vision.ObstacleLayers) {
		a.logger.Debug("shot blocked by obstacle", "distance", dist)
		return EngageNone
	}

	evt := component.CombatEvent{
		Type:       component.EventHit,
		AttackerID: a.ID,
		Faction:    component.FactionEnemy,
		Tick:       a.ticks,
		Pos:        targetPos,
	}
	sink.ApplyDamage(a.stats.DamagePerHit, evt)
	a.cooldown = a.stats.EngageCooldown()
	a.shots++

	evt.Damage = a.stats.DamagePerHit
	a.logger.Info("hit target", "damage", a.stats.DamagePerHit, "distance", dist, "target_hp", sink.CurrentHP())
	a.combat.Emit(evt)
	return EngageHit
}
