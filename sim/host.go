package sim

import (
	"fmt"

	"github.com/milk9111/sentinel/ai"
	"github.com/milk9111/sentinel/common"
	"github.com/milk9111/sentinel/component"
)

// The methods below are the scripted-scenario surface of a World. Names that
// do not resolve return ErrNotFound.

func (w *World) playerEvent(amount int) component.CombatEvent {
	evt := component.CombatEvent{Type: component.EventHit, Faction: component.FactionPlayer, Damage: amount, Tick: w.tick}
	if w.Player != nil {
		evt.AttackerID = w.Player.ID
		evt.Pos = w.Player.Position()
	}
	return evt
}

// MoveTarget teleports the player.
func (w *World) MoveTarget(pos common.Vec3) error {
	if w.Player == nil {
		return fmt.Errorf("move target: %w", ErrNotFound)
	}
	w.Player.Teleport(pos)
	return nil
}

// WalkTarget sets the player's velocity.
func (w *World) WalkTarget(velocity common.Vec3) error {
	if w.Player == nil {
		return fmt.Errorf("walk target: %w", ErrNotFound)
	}
	w.Player.Walk(velocity)
	return nil
}

func (w *World) TargetPosition() (common.Vec3, error) {
	if w.Player == nil {
		return common.Vec3{}, fmt.Errorf("target position: %w", ErrNotFound)
	}
	return w.Player.Position(), nil
}

// TargetHealth returns the player's current hit points.
func (w *World) TargetHealth() (int, error) {
	if w.Player == nil {
		return 0, fmt.Errorf("target health: %w", ErrNotFound)
	}
	return w.Player.HP().CurrentHP(), nil
}

// DamageTarget hurts the player as the environment would.
func (w *World) DamageTarget(amount int) (bool, error) {
	if w.Player == nil {
		return false, fmt.Errorf("damage target: %w", ErrNotFound)
	}
	evt := component.CombatEvent{Type: component.EventHit, TargetID: w.Player.ID, Faction: component.FactionEnvironment, Tick: w.tick}
	return w.Player.HP().ApplyDamage(amount, evt), nil
}

func (w *World) HealTarget(amount int) error {
	if w.Player == nil {
		return fmt.Errorf("heal target: %w", ErrNotFound)
	}
	w.Player.HP().Heal(amount)
	return nil
}

// DamageAgent hurts an agent as if the player shot it.
func (w *World) DamageAgent(name string, amount int) (bool, error) {
	a, ok := w.agentByName[name]
	if !ok {
		return false, fmt.Errorf("damage agent %q: %w", name, ErrNotFound)
	}
	return a.TakeDamage(amount, w.playerEvent(amount)), nil
}

func (w *World) DamageCamera(name string, amount int) (bool, error) {
	c, ok := w.cameraByName[name]
	if !ok {
		return false, fmt.Errorf("damage camera %q: %w", name, ErrNotFound)
	}
	return c.TakeDamage(amount, w.playerEvent(amount)), nil
}

func (w *World) KillAgent(name string) error {
	a, ok := w.agentByName[name]
	if !ok {
		return fmt.Errorf("kill agent %q: %w", name, ErrNotFound)
	}
	a.Kill()
	return nil
}

// ReviveAgent respawns a dead agent, subject to the population cap.
func (w *World) ReviveAgent(name string) error {
	a, ok := w.agentByName[name]
	if !ok {
		return fmt.Errorf("revive agent %q: %w", name, ErrNotFound)
	}
	if err := w.Respawner.Revive(a); err != nil {
		return fmt.Errorf("revive agent %q: %w", name, err)
	}
	return nil
}

// AgentState returns the state of the named agent.
func (w *World) AgentState(name string) (ai.State, error) {
	a, ok := w.agentByName[name]
	if !ok {
		return ai.StateIdle, fmt.Errorf("agent state %q: %w", name, ErrNotFound)
	}
	return a.State(), nil
}

// RaiseAlert publishes a global alert from a scripted source.
func (w *World) RaiseAlert(source string) {
	origin := ai.AlertOrigin{Source: source}
	if w.Player != nil {
		origin.Position = w.Player.Position()
	}
	w.Bus.Publish(origin)
}
