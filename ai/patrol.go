package ai

import "github.com/milk9111/sentinel/common"

// Patrol cycles an agent through an ordered, wrapping list of waypoints.
type Patrol struct {
	Waypoints       []common.Vec3
	Index           int
	Speed           float64
	ArriveThreshold float64
}

// PatrolStep is the motion a patrol wants for one tick.
type PatrolStep struct {
	Velocity common.Vec3
	// Face is the point to look at. Only meaningful when Moved is true.
	Face    common.Vec3
	Moved   bool
	Arrived bool
}

// Empty reports whether the route has no waypoints.
func (p *Patrol) Empty() bool {
	return p == nil || len(p.Waypoints) == 0
}

// Current returns the waypoint being walked to.
func (p *Patrol) Current() (common.Vec3, bool) {
	if p.Empty() {
		return common.Vec3{}, false
	}
	if p.Index < 0 || p.Index >= len(p.Waypoints) {
		p.Index = 0
	}
	return p.Waypoints[p.Index], true
}

// Step computes this tick's motion from pos. Reaching the current waypoint
// advances the index and produces no movement for the tick.
func (p *Patrol) Step(pos common.Vec3) PatrolStep {
	target, ok := p.Current()
	if !ok {
		return PatrolStep{}
	}

	to := target.Sub(pos).Flat()
	if to.SqrLen() <= p.ArriveThreshold*p.ArriveThreshold {
		p.Index = (p.Index + 1) % len(p.Waypoints)
		return PatrolStep{Arrived: true}
	}

	return PatrolStep{
		Velocity: to.Normalized().Scale(p.Speed),
		Face:     target,
		Moved:    true,
	}
}

// Reset rewinds the route to its first waypoint.
func (p *Patrol) Reset() {
	if p == nil {
		return
	}
	p.Index = 0
}
