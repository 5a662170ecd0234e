package sim

import (
	"errors"
	"log/slog"

	"github.com/milk9111/sentinel/ai"
)

var (
	ErrAlive         = errors.New("sim: agent is alive")
	ErrPopulationCap = errors.New("sim: population cap reached")
)

// Respawner enforces how many agents may be alive at once.
type Respawner struct {
	// MaxAlive is the cap on live agents. 0 is unlimited.
	MaxAlive int

	agents func() []*ai.Agent
	logger *slog.Logger
}

func NewRespawner(maxAlive int, agents func() []*ai.Agent, logger *slog.Logger) *Respawner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Respawner{
		MaxAlive: maxAlive,
		agents:   agents,
		logger:   logger.With("component", "respawner"),
	}
}

// Alive counts agents that are neither dead nor inert.
func (r *Respawner) Alive() int {
	if r == nil || r.agents == nil {
		return 0
	}
	n := 0
	for _, a := range r.agents() {
		if !a.Inert() && a.State() != ai.StateDead {
			n++
		}
	}
	return n
}

// CanSpawn reports whether one more live agent fits under the cap.
func (r *Respawner) CanSpawn() bool {
	if r == nil || r.MaxAlive <= 0 {
		return true
	}
	return r.Alive() < r.MaxAlive
}

// Revive brings a dead agent back at its spawn point.
func (r *Respawner) Revive(a *ai.Agent) error {
	if a == nil {
		return errors.New("sim: revive: nil agent")
	}
	if a.State() != ai.StateDead {
		return ErrAlive
	}
	if !r.CanSpawn() {
		r.logger.Info("revive refused", "agent", a.Name, "alive", r.Alive(), "max_alive", r.MaxAlive)
		return ErrPopulationCap
	}
	if !a.Revive() {
		return ErrAlive
	}
	r.logger.Info("agent respawned", "agent", a.Name)
	return nil
}
