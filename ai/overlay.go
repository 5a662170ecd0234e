package ai

import "github.com/milk9111/sentinel/common"

// Overlay is debug geometry for an external renderer. Computing it never
// changes simulation state.
type Overlay struct {
	Eye       common.Vec3  `json:"eye"`
	LeftEdge  common.Vec3  `json:"left_edge"`
	RightEdge common.Vec3  `json:"right_edge"`
	Range     float64      `json:"range"`
	Conical   bool         `json:"conical"`
	TargetEye *common.Vec3 `json:"target_eye,omitempty"`
	Blocked   bool         `json:"blocked"`
}

// VisionOverlay builds the cone edges for a viewer. The edges are the forward
// direction yawed by ±halfAngle and scaled to range. Blocked reports whether
// the ray toward targetEye hits one of the viewer's obstacle layers first.
func VisionOverlay(rc Raycaster, eye, forward common.Vec3, targetEye *common.Vec3, v Vision) Overlay {
	fwd := forward.Flat().Normalized()
	o := Overlay{
		Eye:       eye,
		LeftEdge:  eye.Add(common.RotateY(fwd, -v.HalfAngleDegrees).Scale(v.Range)),
		RightEdge: eye.Add(common.RotateY(fwd, v.HalfAngleDegrees).Scale(v.Range)),
		Range:     v.Range,
		Conical:   v.Conical,
	}
	if targetEye != nil {
		te := *targetEye
		o.TargetEye = &te
		o.Blocked = !LineOfSight(rc, eye, te, v.Range, v.ObstacleMask)
	}
	return o
}

// Overlay returns the agent's current debug geometry.
func (a *Agent) Overlay() Overlay {
	if a == nil || a.inert {
		return Overlay{}
	}
	var targetEye *common.Vec3
	if a.target != nil {
		te := a.eye(a.target.Position())
		targetEye = &te
	}
	return VisionOverlay(a.world, a.eye(a.actuator.Position()), a.actuator.Forward(), targetEye, VisionFrom(a.stats.Vision))
}
