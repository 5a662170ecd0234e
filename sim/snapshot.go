package sim

import (
	"github.com/milk9111/sentinel/ai"
	"github.com/milk9111/sentinel/common"
)

type AgentSnapshot struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Class       string      `json:"class"`
	State       ai.State    `json:"state"`
	Position    common.Vec3 `json:"position"`
	Forward     common.Vec3 `json:"forward"`
	Health      int         `json:"health"`
	MaxHealth   int         `json:"max_health"`
	Cooldown    float64     `json:"cooldown"`
	Reaction    *float64    `json:"reaction,omitempty"`
	Shots       int         `json:"shots"`
	PatrolIndex int         `json:"patrol_index"`
	Overlay     ai.Overlay  `json:"overlay"`
}

type CameraSnapshot struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Position common.Vec3 `json:"position"`
	Yaw      float64     `json:"yaw"`
	Active   bool        `json:"active"`
	Detected bool        `json:"detected"`
	Health   int         `json:"health"`
	Overlay  ai.Overlay  `json:"overlay"`
}

type TargetSnapshot struct {
	Name      string      `json:"name"`
	Position  common.Vec3 `json:"position"`
	Health    int         `json:"health"`
	MaxHealth int         `json:"max_health"`
}

// Snapshot is a read-only view of a scene after a tick. Taking one never
// changes simulation state.
type Snapshot struct {
	Level       string           `json:"level"`
	Tick        uint64           `json:"tick"`
	Time        float64          `json:"time"`
	Alerts      int              `json:"alerts"`
	Alive       int              `json:"alive"`
	Target      *TargetSnapshot  `json:"target,omitempty"`
	Agents      []AgentSnapshot  `json:"agents"`
	Cameras     []CameraSnapshot `json:"cameras"`
	Transitions []Transition     `json:"transitions,omitempty"`
}

func (w *World) Snapshot() Snapshot {
	snap := Snapshot{
		Level:   w.Name,
		Tick:    w.tick,
		Time:    w.elapsed,
		Alerts:  w.Bus.Published(),
		Alive:   w.Respawner.Alive(),
		Agents:  make([]AgentSnapshot, 0, len(w.agents)),
		Cameras: make([]CameraSnapshot, 0, len(w.cameras)),
	}
	if w.Player != nil {
		hp := w.Player.HP()
		snap.Target = &TargetSnapshot{
			Name:      w.Player.Name,
			Position:  w.Player.Position(),
			Health:    hp.CurrentHP(),
			MaxHealth: hp.MaxHP(),
		}
	}
	for _, a := range w.agents {
		as := AgentSnapshot{
			ID:          a.ID,
			Name:        a.Name,
			State:       a.State(),
			Position:    a.Position(),
			Forward:     a.Forward(),
			Health:      a.Health().CurrentHP(),
			MaxHealth:   a.Health().MaxHP(),
			Cooldown:    a.EngageCooldown(),
			Shots:       a.Shots(),
			PatrolIndex: a.PatrolIndex(),
			Overlay:     a.Overlay(),
		}
		if stats := a.Stats(); stats != nil {
			as.Class = stats.Class
		}
		if remaining, ok := a.ReactionPending(); ok {
			as.Reaction = &remaining
		}
		snap.Agents = append(snap.Agents, as)
	}
	for _, c := range w.cameras {
		snap.Cameras = append(snap.Cameras, CameraSnapshot{
			ID:       c.ID,
			Name:     c.Name,
			Position: c.Position(),
			Yaw:      c.Yaw(),
			Active:   c.Active(),
			Detected: c.Detected(),
			Health:   c.Health().CurrentHP(),
			Overlay:  c.Overlay(),
		})
	}
	for i := len(w.transitions) - 1; i >= 0 && w.transitions[i].Tick == w.tick; i-- {
		snap.Transitions = append([]Transition{w.transitions[i]}, snap.Transitions...)
	}
	return snap
}
