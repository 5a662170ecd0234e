package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/sentinel/common"
	"github.com/milk9111/sentinel/component"
)

func hit(attacker string) component.CombatEvent {
	return component.CombatEvent{AttackerID: attacker, Faction: component.FactionPlayer}
}

func TestAgentDetectionRaisesAlertOnce(t *testing.T) {
	h := newHarness(common.V3(0, 0, 8))
	stats := soldierStats()
	stats.EngageRange = 5
	a := h.spawn("a", stats, common.V3(0, 0, 0))
	require.Equal(t, StateIdle, a.State())

	h.tick(0.1, a)
	assert.Equal(t, StateAlert, a.State())
	assert.Equal(t, 1, h.bus.Published())
	assert.True(t, a.LastPerception().Visible)

	for i := 0; i < 5; i++ {
		h.tick(0.1, a)
	}
	assert.Equal(t, 1, h.bus.Published(), "re-detection while alerted must not publish")
	assert.Equal(t, []transition{{"a", StateIdle, StateAlert}}, h.transitions)
}

func TestAgentOutOfRangeStaysIdle(t *testing.T) {
	h := newHarness(common.V3(0, 0, 15))
	a := h.spawn("a", soldierStats(), common.V3(0, 0, 0))

	for i := 0; i < 10; i++ {
		h.tick(0.1, a)
	}
	assert.Equal(t, StateIdle, a.State())
	assert.Zero(t, h.bus.Published())
	assert.Equal(t, ReasonRange, a.LastPerception().Reason)
}

func TestAgentChaseWithinEngageRange(t *testing.T) {
	h := newHarness(common.V3(0, 0, 8))
	a := h.spawn("a", soldierStats(), common.V3(0, 0, 0))

	h.tick(0.1, a)
	assert.Equal(t, StateChase, a.State())
	assert.Equal(t, []transition{
		{"a", StateIdle, StateAlert},
		{"a", StateAlert, StateChase},
	}, h.transitions)
	assert.Equal(t, 1, h.bus.Published())
	assert.Equal(t, 1, a.Shots())
}

func TestAgentDamageReactionTimer(t *testing.T) {
	h := newHarness(common.V3(0, 0, 50))
	a := h.spawn("a", soldierStats(), common.V3(0, 0, 0))

	require.True(t, a.TakeDamage(40, hit("player")))
	assert.Equal(t, StateDamage, a.State())
	remaining, armed := a.ReactionPending()
	require.True(t, armed)
	assert.Equal(t, 3.0, remaining)

	for i := 0; i < 5; i++ {
		h.tick(0.5, a)
		assert.Equal(t, StateDamage, a.State(), "tick %d", i+1)
	}
	assert.Zero(t, h.bus.Published())

	h.tick(0.5, a)
	assert.Equal(t, StateAlert, a.State())
	assert.Equal(t, 1, h.bus.Published())
	_, armed = a.ReactionPending()
	assert.False(t, armed)
	assert.Equal(t, 60, a.Health().CurrentHP())
}

func TestAgentReactionTimerToleratesFloatDrift(t *testing.T) {
	h := newHarness(common.V3(0, 0, 50))
	a := h.spawn("a", soldierStats(), common.V3(0, 0, 0))
	a.TakeDamage(10, hit("player"))

	for i := 0; i < 29; i++ {
		h.tick(0.1, a)
	}
	assert.Equal(t, StateDamage, a.State())
	h.tick(0.1, a)
	assert.Equal(t, StateAlert, a.State())
}

func TestAgentLethalDamageAbandonsReaction(t *testing.T) {
	h := newHarness(common.V3(0, 0, 50))
	a := h.spawn("a", soldierStats(), common.V3(0, 0, 0))
	act := h.actuators[a]

	a.TakeDamage(40, hit("player"))
	h.tick(0.5, a)
	h.tick(0.5, a)
	a.TakeDamage(60, hit("player"))
	assert.Equal(t, StateDead, a.State())

	for i := 0; i < 10; i++ {
		h.tick(0.5, a)
	}
	assert.Equal(t, StateDead, a.State())
	assert.Zero(t, h.bus.Published())
	_, armed := a.ReactionPending()
	assert.False(t, armed)
	assert.False(t, act.enabled)
	assert.True(t, act.vel.IsZero())
	assert.False(t, h.bus.Subscribed(a))
}

func TestAgentReentrantDamageDoesNotRestartTimer(t *testing.T) {
	h := newHarness(common.V3(0, 0, 50))
	a := h.spawn("a", soldierStats(), common.V3(0, 0, 0))

	a.TakeDamage(10, hit("player"))
	h.tick(0.5, a)
	h.tick(0.5, a)
	a.TakeDamage(10, hit("player"))
	remaining, _ := a.ReactionPending()
	assert.Equal(t, 2.0, remaining)

	for i := 0; i < 4; i++ {
		h.tick(0.5, a)
	}
	assert.Equal(t, StateAlert, a.State())
	assert.Equal(t, 1, h.bus.Published())
	assert.Equal(t, 80, a.Health().CurrentHP())
}

func TestAgentDamageWhileAlertedSkipsDamageState(t *testing.T) {
	h := newHarness(common.V3(0, 0, 50))
	a := h.spawn("a", soldierStats(), common.V3(0, 0, 0))
	a.HandleAlert(AlertOrigin{Source: "camera"})
	require.Equal(t, StateAlert, a.State())

	a.TakeDamage(30, hit("player"))
	assert.Equal(t, StateAlert, a.State())
	_, armed := a.ReactionPending()
	assert.False(t, armed)
	for _, tr := range h.transitions {
		assert.NotEqual(t, StateDamage, tr.to)
	}
}

func TestAlertBusReachesEveryLiveAgent(t *testing.T) {
	h := newHarness(common.V3(0, 0, 100))
	a := h.spawn("a", soldierStats(), common.V3(0, 0, 0))
	b := h.spawn("b", soldierStats(), common.V3(5, 0, 0), common.V3(5, 0, 0), common.V3(5, 0, 5))
	c := h.spawn("c", soldierStats(), common.V3(-5, 0, 0))
	d := h.spawn("d", soldierStats(), common.V3(-10, 0, 0))

	c.Kill()
	d.TakeDamage(10, hit("player"))
	require.Equal(t, StatePatrol, b.State())
	require.Equal(t, StateDead, c.State())
	require.Equal(t, StateDamage, d.State())

	h.bus.Publish(AlertOrigin{Source: "camera"})

	assert.Equal(t, StateAlert, a.State())
	assert.Equal(t, StateAlert, b.State())
	assert.Equal(t, StateDead, c.State(), "dead agents are not revived by alerts")
	assert.Equal(t, StateAlert, d.State())
	_, armed := d.ReactionPending()
	assert.False(t, armed, "reaching Alert clears the pending reaction")

	for i := 0; i < 10; i++ {
		h.tick(0.5, a, b, c, d)
	}
	assert.Equal(t, 1, h.bus.Published(), "a cleared reaction timer must not republish")
}

func TestAgentEngagementCooldown(t *testing.T) {
	h := newHarness(common.V3(0, 0, 5))
	a := h.spawn("a", soldierStats(), common.V3(0, 0, 0))

	h.tick(0.25, a)
	require.Equal(t, 1, a.Shots())
	assert.Equal(t, 90, h.target.health.CurrentHP())
	assert.Equal(t, 1.0, a.EngageCooldown())

	for i := 0; i < 3; i++ {
		h.tick(0.25, a)
	}
	assert.Equal(t, 1, a.Shots())
	h.tick(0.25, a)
	assert.Equal(t, 2, a.Shots())

	for i := 0; i < 4; i++ {
		h.tick(0.25, a)
	}
	assert.Equal(t, 3, a.Shots())
	assert.Equal(t, 70, h.target.health.CurrentHP())
}

func TestAgentEngagementFireRateFloor(t *testing.T) {
	h := newHarness(common.V3(0, 0, 5))
	stats := soldierStats()
	stats.FireRate = 0
	a := h.spawn("a", stats, common.V3(0, 0, 0))

	h.tick(0.1, a)
	require.Equal(t, 1, a.Shots())
	assert.InDelta(t, 100.0, a.EngageCooldown(), 1e-9)
}

func TestTryEngagePreconditions(t *testing.T) {
	wall := box{min: common.V3(-1, 0, 8), max: common.V3(1, 3, 8.5), layers: common.LayerBit(layerWall)}

	cases := []struct {
		name   string
		target common.Vec3
		boxes  []box
		setup  func(a *Agent, tgt *fakeTarget)
		want   EngageResult
	}{
		{"clear_shot", common.V3(0, 0, 10), nil, nil, EngageHit},
		{"blocked_by_wall", common.V3(0, 0, 10), []box{wall}, nil, EngageNone},
		{"out_of_engage_range", common.V3(0, 0, 12.5), nil, nil, EngageNone},
		{"cooling_down", common.V3(0, 0, 10), nil, func(a *Agent, _ *fakeTarget) { a.cooldown = 0.5 }, EngageNone},
		{"target_dead", common.V3(0, 0, 10), nil, func(_ *Agent, tgt *fakeTarget) {
			tgt.health.ApplyDamage(100, component.CombatEvent{})
		}, EngageNone},
		{"no_health_sink", common.V3(0, 0, 10), nil, func(_ *Agent, tgt *fakeTarget) { tgt.health = nil }, EngageNone},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := newHarness(c.target)
			h.world.boxes = c.boxes
			a := h.spawn("a", soldierStats(), common.V3(0, 0, 0))
			if c.setup != nil {
				c.setup(a, h.target)
			}
			before := h.target.health.CurrentHP()
			assert.Equal(t, c.want, TryEngage(a, h.target))
			if c.want == EngageNone {
				assert.Equal(t, before, h.target.health.CurrentHP())
				assert.Zero(t, a.Shots())
			}
		})
	}

	h := newHarness(common.V3(0, 0, 5))
	a := h.spawn("a", soldierStats(), common.V3(0, 0, 0))
	assert.Equal(t, EngageNone, TryEngage(a, nil))
}

func TestAgentEngagementEmitsCombatEvent(t *testing.T) {
	var events []component.CombatEvent
	emitter := &component.CombatEventEmitter{Handlers: []component.CombatEventHandler{
		func(evt component.CombatEvent) { events = append(events, evt) },
	}}
	target := newFakeTarget(common.V3(0, 0, 5))
	a := NewAgent(Config{ID: "soldier-1", Stats: soldierStats(), SpawnForward: common.V3(0, 0, 1)}, Deps{
		Bus:      NewAlertBus(quietLogger()),
		Actuator: newFakeActuator(common.Vec3{}),
		World:    &boxWorld{},
		Target:   target,
		Logger:   quietLogger(),
		Combat:   emitter,
	})

	a.HandleAlert(AlertOrigin{Source: "test"})
	a.Update(0.1)

	require.Len(t, events, 1)
	assert.Equal(t, component.EventHit, events[0].Type)
	assert.Equal(t, "soldier-1", events[0].AttackerID)
	assert.Equal(t, component.FactionEnemy, events[0].Faction)
	assert.Equal(t, 10, events[0].Damage)
	assert.Equal(t, uint64(1), events[0].Tick)
}

func TestAgentInertWhenMisconfigured(t *testing.T) {
	zeroDistance := soldierStats()
	zeroDistance.Vision.Distance = 0
	zeroCone := soldierStats()
	zeroCone.Vision.AngleDegrees = 0

	cases := []struct {
		name     string
		stats    *component.AgentStats
		actuator Actuator
	}{
		{"nil_stats", nil, newFakeActuator(common.Vec3{})},
		{"zero_distance", zeroDistance, newFakeActuator(common.Vec3{})},
		{"zero_cone", zeroCone, newFakeActuator(common.Vec3{})},
		{"no_actuator", soldierStats(), nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			bus := NewAlertBus(quietLogger())
			a := NewAgent(Config{Name: c.name, Stats: c.stats}, Deps{
				Bus:      bus,
				Actuator: c.actuator,
				Target:   newFakeTarget(common.V3(0, 0, 3)),
				Logger:   quietLogger(),
			})
			assert.True(t, a.Inert())
			assert.Equal(t, StateIdle, a.State())
			assert.Zero(t, bus.Len())

			a.Update(0.1)
			a.HandleAlert(AlertOrigin{Source: "camera"})
			assert.Equal(t, StateIdle, a.State())
			assert.Zero(t, bus.Published())
			assert.Equal(t, EngageNone, TryEngage(a, newFakeTarget(common.V3(0, 0, 1))))
		})
	}

	noCone := soldierStats()
	noCone.Vision.UseCone = false
	noCone.Vision.AngleDegrees = 0
	h := newHarness(common.V3(0, 0, -5))
	a := h.spawn("omni", noCone, common.Vec3{})
	assert.False(t, a.Inert(), "angle is irrelevant without a cone")
	h.tick(0.1, a)
	assert.True(t, a.State().Alerted(), "omnidirectional agents see behind them")
}

func TestAgentReviveResetsToSpawn(t *testing.T) {
	spawn := common.V3(2, 0, 0)
	h := newHarness(common.V3(2, 0, 6))
	a := h.spawn("a", soldierStats(), spawn, common.V3(2, 0, 0), common.V3(2, 0, 3))
	act := h.actuators[a]

	assert.False(t, a.Revive(), "only the dead can be revived")

	for i := 0; i < 4; i++ {
		h.tick(0.25, a)
	}
	require.True(t, a.State().Alerted())
	require.NotZero(t, a.Shots())

	a.Kill()
	require.Equal(t, StateDead, a.State())
	assert.False(t, h.bus.Subscribed(a))
	assert.False(t, act.enabled)

	h.tick(0.25, a)
	assert.Equal(t, StateDead, a.State(), "dead agents do not update")

	require.True(t, a.Revive())
	assert.Equal(t, StatePatrol, a.State())
	assert.Equal(t, 100, a.Health().CurrentHP())
	assert.Equal(t, spawn, act.pos)
	assert.True(t, act.enabled)
	assert.True(t, h.bus.Subscribed(a))
	assert.Zero(t, a.EngageCooldown())
	assert.Zero(t, a.PatrolIndex())
	assert.Equal(t, transition{"a", StateDead, StatePatrol}, h.transitions[len(h.transitions)-1])
}

func TestAgentPatrolsAndFacesTravel(t *testing.T) {
	h := newHarness(common.V3(100, 0, 100))
	a := h.spawn("a", soldierStats(), common.V3(0, 0, 0), common.V3(0, 0, 0), common.V3(0, 0, 4))
	act := h.actuators[a]
	require.Equal(t, StatePatrol, a.State())

	h.tick(0.5, a)
	assert.Equal(t, 1, a.PatrolIndex(), "arriving advances without moving")
	assert.True(t, act.vel.IsZero())

	h.tick(0.5, a)
	assert.InDelta(t, 2.0, act.vel.Z, 1e-12)
	assert.InDelta(t, 1.0, act.pos.Z, 1e-12)
	assert.InDelta(t, 1.0, act.fwd.Z, 1e-12)

	for i := 0; i < 4; i++ {
		h.tick(0.5, a)
	}
	assert.Equal(t, 0, a.PatrolIndex(), "route wraps after the last waypoint")

	h.tick(0.5, a)
	assert.InDelta(t, -1.0, act.fwd.Z, 1e-12)
	assert.Equal(t, StatePatrol, a.State())
}

func TestAgentFacesTargetHorizontally(t *testing.T) {
	h := newHarness(common.V3(3, 5, 4))
	stats := soldierStats()
	stats.Vision.Distance = 1
	a := h.spawn("a", stats, common.Vec3{})
	act := h.actuators[a]

	h.tick(0.1, a)
	assert.Equal(t, StateIdle, a.State())
	assert.InDelta(t, 0.6, act.fwd.X, 1e-12)
	assert.InDelta(t, 0.0, act.fwd.Y, 1e-12)
	assert.InDelta(t, 0.8, act.fwd.Z, 1e-12)
}

func TestAgentRunsAreDeterministic(t *testing.T) {
	run := func() ([]transition, int, common.Vec3) {
		h := newHarness(common.V3(3, 0, 20))
		h.world.boxes = []box{{min: common.V3(-2, 0, 6), max: common.V3(0.5, 3, 6.5), layers: common.LayerBit(layerWall)}}
		a := h.spawn("a", soldierStats(), common.V3(0, 0, 0), common.V3(0, 0, 0), common.V3(0, 0, 10))
		b := h.spawn("b", soldierStats(), common.V3(6, 0, 0))
		for i := 0; i < 200; i++ {
			if i == 40 {
				b.TakeDamage(25, hit("player"))
			}
			h.target.pos = h.target.pos.Add(common.V3(0, 0, -0.05))
			h.tick(1.0/30.0, a, b)
		}
		return h.transitions, h.target.health.CurrentHP(), h.actuators[a].pos
	}

	t1, hp1, pos1 := run()
	t2, hp2, pos2 := run()
	assert.Equal(t, t1, t2)
	assert.Equal(t, hp1, hp2)
	assert.Equal(t, pos1, pos2)
	assert.NotEmpty(t, t1)
}
