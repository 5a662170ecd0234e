package physics

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/sentinel/common"
)

// DefaultMoverRadius is the footprint radius of a humanoid body.
const DefaultMoverRadius = 0.4

// Mover is a dynamic, non-rotating body that walks on the ground plane and
// slides along solid obstacles. It implements the agent actuator.
type Mover struct {
	world   *World
	body    *cp.Body
	shape   *cp.Shape
	height  float64
	forward common.Vec3
	enabled bool
}

// NewMover adds a body at pos facing forward.
func (w *World) NewMover(pos, forward common.Vec3, radius float64) *Mover {
	if w == nil || w.space == nil {
		return nil
	}
	if radius <= 0 {
		radius = DefaultMoverRadius
	}

	body := cp.NewBody(1, math.Inf(1))
	body.SetAngle(0)
	body.SetPosition(cp.Vector{X: pos.X, Y: pos.Z})
	shape := cp.NewCircle(body, radius, cp.Vector{})
	shape.SetFriction(0)
	shape.SetCollisionType(collisionTypeActor)
	shape.SetFilter(cp.ShapeFilter{
		Group:      cp.NO_GROUP,
		Categories: actorCategory,
		Mask:       cp.ALL_CATEGORIES,
	})

	m := &Mover{world: w, body: body, shape: shape, height: pos.Y}
	shape.UserData = m
	m.forward = m.flatForward(forward)
	m.SetEnabled(true)
	w.movers = append(w.movers, m)
	return m
}

// Position returns the body's position with its ground height.
func (m *Mover) Position() common.Vec3 {
	if m == nil || m.body == nil {
		return common.Vec3{}
	}
	p := m.body.Position()
	return common.Vec3{X: p.X, Y: m.height, Z: p.Y}
}

// Forward returns the horizontal facing direction.
func (m *Mover) Forward() common.Vec3 {
	if m == nil {
		return common.Vec3{}
	}
	return m.forward
}

// Velocity returns the body's planar velocity.
func (m *Mover) Velocity() common.Vec3 {
	if m == nil || m.body == nil {
		return common.Vec3{}
	}
	v := m.body.Velocity()
	return common.Vec3{X: v.X, Z: v.Y}
}

// Move sets the planar velocity used by the next world step. The vertical
// component is ignored. Any part of the velocity pushing into a solid body
// the mover already touches is dropped, so the mover slides along it.
func (m *Mover) Move(velocity common.Vec3) {
	if m == nil || m.body == nil || !m.enabled {
		return
	}
	v := cp.Vector{X: velocity.X, Y: velocity.Z}
	m.body.EachArbiter(func(arb *cp.Arbiter) {
		if arb.Count() == 0 {
			return
		}
		_, other := arb.Shapes()
		if other == nil || other.Sensor() {
			return
		}
		// points from the mover toward the other shape
		n := arb.Normal()
		if into := v.Dot(n); into > 0 {
			v = v.Sub(n.Mult(into))
		}
	})
	m.body.SetVelocityVector(v)
}

// Face turns the body instantly. Degenerate directions are ignored.
func (m *Mover) Face(dir common.Vec3) {
	if m == nil {
		return
	}
	m.forward = m.flatForward(dir)
	if m.body != nil {
		m.body.SetAngle(math.Atan2(m.forward.Z, m.forward.X))
	}
}

// Teleport places the body at pos, at rest, facing forward.
func (m *Mover) Teleport(pos, forward common.Vec3) {
	if m == nil || m.body == nil {
		return
	}
	m.height = pos.Y
	m.body.SetPosition(cp.Vector{X: pos.X, Y: pos.Z})
	m.body.SetVelocityVector(cp.Vector{})
	m.Face(forward)
}

// SetEnabled adds the body to the space or removes it. A disabled mover
// neither moves nor blocks anyone.
func (m *Mover) SetEnabled(enabled bool) {
	if m == nil || m.world == nil || m.world.space == nil {
		return
	}
	space := m.world.space
	if enabled {
		if !space.ContainsBody(m.body) {
			space.AddBody(m.body)
		}
		if !space.ContainsShape(m.shape) {
			space.AddShape(m.shape)
		}
	} else {
		m.body.SetVelocityVector(cp.Vector{})
		if space.ContainsShape(m.shape) {
			space.RemoveShape(m.shape)
		}
		if space.ContainsBody(m.body) {
			space.RemoveBody(m.body)
		}
	}
	m.enabled = enabled
}

// Enabled reports whether the body is in the space.
func (m *Mover) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Mover) flatForward(dir common.Vec3) common.Vec3 {
	flat := dir.Flat()
	if flat.SqrLen() <= common.Epsilon*common.Epsilon {
		if m.forward.IsZero() {
			return common.Vec3{Z: 1}
		}
		return m.forward
	}
	return flat.Normalized()
}
