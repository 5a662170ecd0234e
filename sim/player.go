package sim

import (
	"github.com/milk9111/sentinel/common"
	"github.com/milk9111/sentinel/component"
	"github.com/milk9111/sentinel/physics"
)

const defaultPlayerHealth = 100

// Player is the pursued target: a body in the physics world plus a health
// sink.
type Player struct {
	ID     string
	Name   string
	mover  *physics.Mover
	health *component.Health
}

// Position implements ai.Target.
func (p *Player) Position() common.Vec3 {
	if p == nil {
		return common.Vec3{}
	}
	return p.mover.Position()
}

// Health implements ai.Target.
func (p *Player) Health() component.HealthComponent {
	if p == nil {
		return nil
	}
	return p.health
}

// HP returns the concrete health sink.
func (p *Player) HP() *component.Health {
	if p == nil {
		return nil
	}
	return p.health
}

// Teleport places the player at pos, at rest.
func (p *Player) Teleport(pos common.Vec3) {
	if p == nil {
		return
	}
	p.mover.Teleport(pos, p.mover.Forward())
}

// Walk sets the player's planar velocity until changed.
func (p *Player) Walk(velocity common.Vec3) {
	if p == nil || !p.health.IsAlive() {
		return
	}
	p.mover.Move(velocity)
	p.mover.Face(velocity)
}

// Mover exposes the player's body.
func (p *Player) Mover() *physics.Mover {
	if p == nil {
		return nil
	}
	return p.mover
}
