package ai

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/milk9111/sentinel/common"
	"github.com/milk9111/sentinel/component"
)

// timerEpsilon absorbs drift from summing float tick durations so a timer
// armed for 3s fires on the tick where elapsed time reaches 3s.
const timerEpsilon = 1e-9

// Actuator moves an agent's body. It owns the pose and resolves collisions.
type Actuator interface {
	Position() common.Vec3
	Forward() common.Vec3
	// Move requests a planar velocity for the next physics step.
	Move(velocity common.Vec3)
	// Face turns the body to look along a horizontal direction.
	Face(dir common.Vec3)
	Teleport(pos, forward common.Vec3)
	SetEnabled(enabled bool)
}

// Target is the entity being pursued.
type Target interface {
	Position() common.Vec3
	Health() component.HealthComponent
}

// Config is the per-instance setup of an agent.
type Config struct {
	ID            string
	Name          string
	Stats         *component.AgentStats
	Route         []common.Vec3
	SpawnPosition common.Vec3
	SpawnForward  common.Vec3
}

// Deps are the collaborators an agent is wired to.
type Deps struct {
	Bus      *AlertBus
	Actuator Actuator
	World    Raycaster
	Target   Target
	Logger   *slog.Logger
	Combat   *component.CombatEventEmitter
	// OnStateChange observes every transition, including Dead and revive.
	OnStateChange func(a *Agent, from, to State)
}

type reactionTimer struct {
	armed     bool
	remaining float64
}

// Agent is one hostile entity's perception and behavior core.
type Agent struct {
	ID   string
	Name string

	stats    *component.AgentStats
	bus      *AlertBus
	actuator Actuator
	world    Raycaster
	target   Target
	health   *component.Health
	combat   *component.CombatEventEmitter
	logger   *slog.Logger
	onChange func(a *Agent, from, to State)

	state    State
	inert    bool
	ticks    uint64
	cooldown float64
	reaction reactionTimer
	patrol   Patrol
	lastSeen PerceptionResult
	shots    int

	spawnPos common.Vec3
	spawnFwd common.Vec3
}

// NewAgent builds an agent and subscribes it to the bus. An agent without
// usable perception parameters or without an actuator is created inert: it
// stays Idle and never updates.
func NewAgent(cfg Config, deps Deps) *Agent {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	name := cfg.Name
	if name == "" {
		name = id
	}

	a := &Agent{
		ID:       id,
		Name:     name,
		stats:    cfg.Stats,
		bus:      deps.Bus,
		actuator: deps.Actuator,
		world:    deps.World,
		target:   deps.Target,
		combat:   deps.Combat,
		onChange: deps.OnStateChange,
		logger:   logger.With("component", "agent", "agent", name),
		spawnPos: cfg.SpawnPosition,
		spawnFwd: cfg.SpawnForward,
	}

	maxHealth := 1
	if a.stats != nil {
		maxHealth = a.stats.MaxHealth
		a.patrol = Patrol{
			Waypoints:       append([]common.Vec3(nil), cfg.Route...),
			Speed:           a.stats.PatrolSpeed,
			ArriveThreshold: a.stats.ArriveThreshold,
		}
	}
	a.health = component.NewHealth(maxHealth)
	a.health.OnDamage = a.onDamaged
	a.health.OnDeath = a.onDeath

	if a.stats == nil || !a.stats.Vision.Valid() || a.actuator == nil {
		a.inert = true
		a.state = StateIdle
		a.logger.Error("agent disabled: missing perception parameters or actuator")
		return a
	}

	if a.spawnFwd.Flat().SqrLen() <= common.Epsilon {
		a.spawnFwd = a.actuator.Forward()
	}
	a.actuator.Teleport(a.spawnPos, a.spawnFwd)
	a.state = a.initialState()
	a.bus.Subscribe(a)
	a.logger.Info("agent spawned", "state", a.state.String(), "class", a.stats.Class)
	return a
}

// State returns the current behavioral state.
func (a *Agent) State() State {
	if a == nil {
		return StateIdle
	}
	return a.state
}

// Inert reports whether the agent was disabled by misconfiguration.
func (a *Agent) Inert() bool {
	return a != nil && a.inert
}

// Health returns the agent's own health sink.
func (a *Agent) Health() *component.Health {
	if a == nil {
		return nil
	}
	return a.health
}

// Stats returns the class configuration.
func (a *Agent) Stats() *component.AgentStats {
	if a == nil {
		return nil
	}
	return a.stats
}

// Position returns the actuator's current position.
func (a *Agent) Position() common.Vec3 {
	if a == nil || a.actuator == nil {
		return common.Vec3{}
	}
	return a.actuator.Position()
}

// Forward returns the actuator's current facing.
func (a *Agent) Forward() common.Vec3 {
	if a == nil || a.actuator == nil {
		return common.Vec3{}
	}
	return a.actuator.Forward()
}

// EngageCooldown returns the seconds left before the next shot may fire.
func (a *Agent) EngageCooldown() float64 {
	if a == nil {
		return 0
	}
	return a.cooldown
}

// ReactionPending reports whether the damage reaction timer is armed, and the
// seconds it has left.
func (a *Agent) ReactionPending() (float64, bool) {
	if a == nil || !a.reaction.armed {
		return 0, false
	}
	return a.reaction.remaining, true
}

// PatrolIndex returns the index of the waypoint being walked to.
func (a *Agent) PatrolIndex() int {
	if a == nil {
		return 0
	}
	return a.patrol.Index
}

// LastPerception returns the result of this tick's perception query.
func (a *Agent) LastPerception() PerceptionResult {
	if a == nil {
		return PerceptionResult{}
	}
	return a.lastSeen
}

// Shots returns how many successful engagements the agent has made.
func (a *Agent) Shots() int {
	if a == nil {
		return 0
	}
	return a.shots
}

// SetTarget swaps the pursued entity. nil means no target.
func (a *Agent) SetTarget(t Target) {
	if a == nil {
		return
	}
	a.target = t
}

// Update advances the agent by dt seconds.
func (a *Agent) Update(dt float64) {
	if a == nil || a.inert || a.state == StateDead {
		return
	}
	if dt < 0 {
		dt = 0
	}
	a.ticks++

	a.tickTimers(dt)

	behaviorFor(a.state).act(a)

	a.lastSeen = PerceptionResult{}
	if a.state.Perceives() {
		a.lastSeen = a.perceive()
		if a.lastSeen.Visible && !a.state.Alerted() {
			a.discover()
		}
	}

	if a.state.Engages() {
		if a.lastSeen.Visible && a.targetDistance() <= a.stats.EngageRange {
			a.setState(StateChase)
		}
		TryEngage(a, a.target)
	}
}

// HandleAlert implements AlertListener.
func (a *Agent) HandleAlert(origin AlertOrigin) {
	if a == nil || a.inert || a.state == StateDead || a.state.Alerted() {
		return
	}
	a.logger.Debug("alert received", "source", origin.Source)
	a.setState(StateAlert)
}

// TakeDamage routes a hit through the agent's health sink.
func (a *Agent) TakeDamage(amount int, evt component.CombatEvent) bool {
	if a == nil {
		return false
	}
	if evt.TargetID == "" {
		evt.TargetID = a.ID
	}
	if evt.Type == "" {
		evt.Type = component.EventHit
	}
	return a.health.ApplyDamage(amount, evt)
}

// Kill applies lethal damage.
func (a *Agent) Kill() {
	if a == nil || !a.health.IsAlive() {
		return
	}
	a.TakeDamage(a.health.CurrentHP(), component.CombatEvent{Faction: component.FactionEnvironment})
}

// Deactivate performs the terminal side effects of death: the body stops and
// is disabled, and the agent leaves the alert bus.
func (a *Agent) Deactivate() {
	if a == nil {
		return
	}
	if a.actuator != nil {
		a.actuator.Move(common.Vec3{})
		a.actuator.SetEnabled(false)
	}
	a.bus.Unsubscribe(a)
}

// Revive resets a dead agent to its spawn parameters, as if newly created.
// Returns false when the agent is not dead.
func (a *Agent) Revive() bool {
	if a == nil || a.inert || a.state != StateDead {
		return false
	}

	a.health.SetMaxAndFill(a.stats.MaxHealth)
	a.actuator.Teleport(a.spawnPos, a.spawnFwd)
	a.actuator.SetEnabled(true)
	a.cooldown = 0
	a.reaction = reactionTimer{}
	a.patrol.Reset()
	a.lastSeen = PerceptionResult{}

	a.setState(a.initialState())
	a.bus.Subscribe(a)
	a.logger.Info("agent revived", "state", a.state.String())
	return true
}

func (a *Agent) initialState() State {
	if a.patrol.Empty() {
		return StateIdle
	}
	return StatePatrol
}

func (a *Agent) setState(next State) {
	if a.state == next {
		return
	}
	prev := a.state
	behaviorFor(prev).exit(a)
	a.state = next
	behaviorFor(next).enter(a)

	a.logger.Info("state change", "from", prev.String(), "to", next.String())
	if a.onChange != nil {
		a.onChange(a, prev, next)
	}
}

func (a *Agent) tickTimers(dt float64) {
	a.cooldown -= dt
	if a.cooldown <= timerEpsilon {
		a.cooldown = 0
	}

	if !a.reaction.armed {
		return
	}
	a.reaction.remaining -= dt
	if a.reaction.remaining > timerEpsilon {
		return
	}
	a.reaction = reactionTimer{}
	if a.state == StateDamage {
		a.setState(StateAlert)
		a.publish("reaction")
	}
}

func (a *Agent) armReaction() {
	if a.reaction.armed {
		return
	}
	delay := a.stats.ReactionDelay
	if delay < 0 {
		delay = 0
	}
	a.reaction = reactionTimer{armed: true, remaining: delay}
}

func (a *Agent) onDamaged(h *component.Health, evt component.CombatEvent) {
	if a.inert || a.state == StateDead || a.state.Alerted() {
		return
	}
	a.logger.Info("took damage", "amount", evt.Damage, "hp", h.CurrentHP())
	a.setState(StateDamage)
}

func (a *Agent) onDeath(_ *component.Health, evt component.CombatEvent) {
	if a.state == StateDead {
		return
	}
	a.logger.Info("killed", "attacker", evt.AttackerID)
	if a.inert {
		a.state = StateDead
		return
	}
	a.setState(StateDead)
}

func (a *Agent) discover() {
	a.logger.Info("target detected", "distance", a.lastSeen.Distance)
	a.setState(StateAlert)
	a.publish("detection")
}

func (a *Agent) publish(reason string) {
	a.logger.Info("raising global alert", "reason", reason)
	a.bus.Publish(AlertOrigin{Source: a.Name, Position: a.actuator.Position()})
}

func (a *Agent) eye(pos common.Vec3) common.Vec3 {
	return pos.Add(common.Up.Scale(a.stats.Vision.EyeHeight))
}

func (a *Agent) perceive() PerceptionResult {
	if a.target == nil {
		return PerceptionResult{Reason: ReasonNoTarget}
	}
	targetEye := a.eye(a.target.Position())
	return Perceive(a.world, a.eye(a.actuator.Position()), a.actuator.Forward(), &targetEye, VisionFrom(a.stats.Vision))
}

func (a *Agent) targetDistance() float64 {
	if a.target == nil {
		return 0
	}
	return common.Distance(a.actuator.Position(), a.target.Position())
}

// face turns toward a world point on the horizontal plane.
func (a *Agent) face(point common.Vec3) {
	dir := point.Sub(a.actuator.Position()).Flat()
	if dir.SqrLen() <= common.Epsilon {
		return
	}
	a.actuator.Face(dir.Normalized())
}
