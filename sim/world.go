package sim

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/milk9111/sentinel/ai"
	"github.com/milk9111/sentinel/common"
	"github.com/milk9111/sentinel/component"
	"github.com/milk9111/sentinel/physics"
	"github.com/milk9111/sentinel/sensor"
)

const DefaultTickRate = 30.0

var (
	ErrDuplicateName = errors.New("sim: duplicate name")
	ErrNotFound      = errors.New("sim: not found")
)

// Settings are the run parameters of a level.
type Settings struct {
	TickRate float64
	Duration float64
	Script   string
}

// DT returns the fixed tick length.
func (s Settings) DT() float64 {
	if s.TickRate <= 0 {
		return 1 / DefaultTickRate
	}
	return 1 / s.TickRate
}

// Ticks returns how many ticks cover Duration. 0 means run until stopped.
func (s Settings) Ticks() int {
	if s.Duration <= 0 {
		return 0
	}
	rate := s.TickRate
	if rate <= 0 {
		rate = DefaultTickRate
	}
	return int(s.Duration*rate + 0.5)
}

// Transition records one agent state change.
type Transition struct {
	Tick  uint64   `json:"tick"`
	Agent string   `json:"agent"`
	From  ai.State `json:"from"`
	To    ai.State `json:"to"`
}

func (t Transition) String() string {
	return fmt.Sprintf("tick %d: %s %s -> %s", t.Tick, t.Agent, t.From, t.To)
}

// World is one running scene: the shared alert bus, the physics space, the
// pursued player, and every agent and camera. Everything runs on the caller's
// goroutine.
type World struct {
	Name      string
	Settings  Settings
	Bus       *ai.AlertBus
	Physics   *physics.World
	Player    *Player
	Respawner *Respawner

	agents       []*ai.Agent
	agentByName  map[string]*ai.Agent
	cameras      []*sensor.Camera
	cameraByName map[string]*sensor.Camera

	scheduler   *Scheduler
	combat      *component.CombatEventEmitter
	logger      *slog.Logger
	tick        uint64
	elapsed     float64
	transitions []Transition
	hits        []component.CombatEvent
}

// NewWorld creates an empty scene with the default system order: agents,
// then cameras, then physics.
func NewWorld(name string, logger *slog.Logger) *World {
	if logger == nil {
		logger = slog.Default()
	}
	w := &World{
		Name:         name,
		Bus:          ai.NewAlertBus(logger),
		Physics:      physics.NewWorld(logger),
		agentByName:  make(map[string]*ai.Agent),
		cameraByName: make(map[string]*sensor.Camera),
		scheduler:    NewScheduler(AgentSystem{}, CameraSystem{}, PhysicsSystem{}),
		combat:       &component.CombatEventEmitter{},
		logger:       logger.With("component", "sim", "level", name),
	}
	w.Respawner = NewRespawner(0, w.Agents, logger)
	w.combat.Handlers = append(w.combat.Handlers, func(evt component.CombatEvent) {
		w.hits = append(w.hits, evt)
	})
	return w
}

// Scheduler exposes the tick pipeline so callers can add systems.
func (w *World) Scheduler() *Scheduler {
	return w.scheduler
}

// Combat is the emitter that receives every successful engagement.
func (w *World) Combat() *component.CombatEventEmitter {
	return w.combat
}

// SetPlayer places the pursued target and points every agent and camera at
// it.
func (w *World) SetPlayer(name string, pos common.Vec3, maxHealth int) *Player {
	if maxHealth <= 0 {
		maxHealth = defaultPlayerHealth
	}
	if name == "" {
		name = "player"
	}
	p := &Player{
		ID:     name,
		Name:   name,
		mover:  w.Physics.NewMover(pos, common.V3(0, 0, 1), physics.DefaultMoverRadius),
		health: component.NewHealth(maxHealth),
	}
	p.health.OnDeath = func(_ *component.Health, evt component.CombatEvent) {
		p.mover.Move(common.Vec3{})
		w.logger.Info("player killed", "attacker", evt.AttackerID, "tick", w.tick)
	}
	w.Player = p
	for _, a := range w.agents {
		a.SetTarget(p)
	}
	for _, c := range w.cameras {
		c.SetTarget(p)
	}
	return p
}

// AddAgent spawns an agent with a body in the physics world.
func (w *World) AddAgent(cfg ai.Config) (*ai.Agent, error) {
	if cfg.Name != "" {
		if _, ok := w.agentByName[cfg.Name]; ok {
			return nil, fmt.Errorf("%w: agent %q", ErrDuplicateName, cfg.Name)
		}
	}
	if !w.Respawner.CanSpawn() {
		return nil, fmt.Errorf("spawn %s: %w", cfg.Name, ErrPopulationCap)
	}

	mover := w.Physics.NewMover(cfg.SpawnPosition, cfg.SpawnForward, physics.DefaultMoverRadius)
	deps := ai.Deps{
		Bus:           w.Bus,
		Actuator:      mover,
		World:         w.Physics,
		Logger:        w.logger,
		Combat:        w.combat,
		OnStateChange: w.recordTransition,
	}
	if w.Player != nil {
		deps.Target = w.Player
	}
	a := ai.NewAgent(cfg, deps)
	if a.Inert() {
		// an inert agent never moves, so its body must not block anyone
		mover.SetEnabled(false)
	}
	w.agents = append(w.agents, a)
	w.agentByName[a.Name] = a
	return a, nil
}

// AddCamera installs a surveillance camera.
func (w *World) AddCamera(cfg sensor.Config) (*sensor.Camera, error) {
	if cfg.Name != "" {
		if _, ok := w.cameraByName[cfg.Name]; ok {
			return nil, fmt.Errorf("%w: camera %q", ErrDuplicateName, cfg.Name)
		}
	}
	deps := sensor.Deps{
		Bus:    w.Bus,
		World:  w.Physics,
		Logger: w.logger,
	}
	if w.Player != nil {
		deps.Target = w.Player
	}
	c := sensor.NewCamera(cfg, deps)
	w.cameras = append(w.cameras, c)
	w.cameraByName[c.Name] = c
	return c, nil
}

// Step advances the scene by one tick of dt seconds.
func (w *World) Step(dt float64) {
	if w == nil {
		return
	}
	if dt < 0 {
		dt = 0
	}
	w.tick++
	w.scheduler.Update(w, dt)
	w.elapsed += dt
}

// Run steps n ticks at the level's tick rate.
func (w *World) Run(n int) {
	dt := w.Settings.DT()
	for i := 0; i < n; i++ {
		w.Step(dt)
	}
}

func (w *World) recordTransition(a *ai.Agent, from, to ai.State) {
	w.transitions = append(w.transitions, Transition{Tick: w.tick, Agent: a.Name, From: from, To: to})
}

// Tick returns the number of completed or in-progress ticks.
func (w *World) Tick() uint64 {
	return w.tick
}

// Elapsed returns simulated seconds.
func (w *World) Elapsed() float64 {
	return w.elapsed
}

func (w *World) Agents() []*ai.Agent {
	return append([]*ai.Agent(nil), w.agents...)
}

func (w *World) Cameras() []*sensor.Camera {
	return append([]*sensor.Camera(nil), w.cameras...)
}

func (w *World) Agent(name string) (*ai.Agent, bool) {
	a, ok := w.agentByName[name]
	return a, ok
}

func (w *World) Camera(name string) (*sensor.Camera, bool) {
	c, ok := w.cameraByName[name]
	return c, ok
}

// Transitions returns every state change so far, in order.
func (w *World) Transitions() []Transition {
	return append([]Transition(nil), w.transitions...)
}

// Hits returns every successful engagement so far, in order.
func (w *World) Hits() []component.CombatEvent {
	return append([]component.CombatEvent(nil), w.hits...)
}

// Logger returns the scene logger.
func (w *World) Logger() *slog.Logger {
	return w.logger
}
