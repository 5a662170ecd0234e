package sim

// System is one stage of a simulation tick.
type System interface {
	Update(w *World, dt float64)
}

// SystemFunc adapts a function to a System.
type SystemFunc func(w *World, dt float64)

func (f SystemFunc) Update(w *World, dt float64) { f(w, dt) }

type Scheduler struct {
	systems []System
}

func NewScheduler(systems ...System) *Scheduler {
	copied := append([]System(nil), systems...)
	return &Scheduler{systems: copied}
}

func (s *Scheduler) Add(system System) {
	if system == nil {
		return
	}
	s.systems = append(s.systems, system)
}

// Prepend runs system before every system already scheduled.
func (s *Scheduler) Prepend(system System) {
	if system == nil {
		return
	}
	s.systems = append([]System{system}, s.systems...)
}

func (s *Scheduler) Update(w *World, dt float64) {
	for _, system := range s.systems {
		system.Update(w, dt)
	}
}

func (s *Scheduler) Systems() []System {
	systems := make([]System, 0, len(s.systems))
	return append(systems, s.systems...)
}

// AgentSystem runs every agent's state machine. Agents only request
// velocities here; bodies move in PhysicsSystem.
type AgentSystem struct{}

func (AgentSystem) Update(w *World, dt float64) {
	for _, a := range w.agents {
		a.Update(dt)
	}
}

// CameraSystem sweeps cameras and runs their detection.
type CameraSystem struct{}

func (CameraSystem) Update(w *World, dt float64) {
	for _, c := range w.cameras {
		c.Update(dt)
	}
}

// PhysicsSystem integrates bodies and resolves collisions.
type PhysicsSystem struct{}

func (PhysicsSystem) Update(w *World, dt float64) {
	w.Physics.Step(dt)
}
