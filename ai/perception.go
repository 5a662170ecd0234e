package ai

import (
	"github.com/milk9111/sentinel/common"
	"github.com/milk9111/sentinel/component"
)

// RaycastHit is the first surface a ray touched.
type RaycastHit struct {
	Point    common.Vec3
	Distance float64
	Layers   common.LayerMask
}

// Raycaster casts rays against the world's blocking surfaces. Only surfaces
// whose layers intersect mask are considered.
type Raycaster interface {
	Raycast(origin, dir common.Vec3, maxDist float64, mask common.LayerMask) (RaycastHit, bool)
}

// Vision is the geometry of a single perception query.
type Vision struct {
	Range            float64
	HalfAngleDegrees float64
	ObstacleMask     common.LayerMask
	Conical          bool
}

// VisionFrom builds a query from class stats.
func VisionFrom(s component.VisionStats) Vision {
	return Vision{
		Range:            s.Distance,
		HalfAngleDegrees: s.HalfAngle(),
		ObstacleMask:     s.ObstacleLayers,
		Conical:          s.UseCone,
	}
}

// PerceptionReason names the test that rejected a target.
type PerceptionReason string

const (
	ReasonNone     PerceptionReason = ""
	ReasonNoTarget PerceptionReason = "no_target"
	ReasonRange    PerceptionReason = "out_of_range"
	ReasonCone     PerceptionReason = "outside_cone"
	ReasonOccluded PerceptionReason = "occluded"
)

// PerceptionResult is the full outcome of a perception query.
type PerceptionResult struct {
	Visible      bool
	Distance     float64
	AngleDegrees float64
	Blocked      bool
	Reason       PerceptionReason
}

// Perceive runs the range, cone and occlusion tests in that order and stops at
// the first failure. A nil targetEye means the target is absent.
//
// The cone angle is measured between the full 3-D forward vector and the full
// 3-D vector to the target eye.
func Perceive(rc Raycaster, eye, forward common.Vec3, targetEye *common.Vec3, v Vision) PerceptionResult {
	if targetEye == nil {
		return PerceptionResult{Reason: ReasonNoTarget}
	}

	toTarget := targetEye.Sub(eye)
	res := PerceptionResult{Distance: toTarget.Len()}
	if res.Distance > v.Range {
		res.Reason = ReasonRange
		return res
	}

	if v.Conical {
		res.AngleDegrees = common.AngleDegrees(forward, toTarget)
		if res.AngleDegrees > v.HalfAngleDegrees {
			res.Reason = ReasonCone
			return res
		}
	}

	if !lineOfSight(rc, eye, toTarget, res.Distance, v.Range, v.ObstacleMask) {
		res.Blocked = true
		res.Reason = ReasonOccluded
		return res
	}

	res.Visible = true
	return res
}

// CanPerceive reports whether a target eye point is visible from a viewer.
func CanPerceive(rc Raycaster, eye, forward common.Vec3, targetEye *common.Vec3, v Vision) bool {
	return Perceive(rc, eye, forward, targetEye, v).Visible
}

// LineOfSight reports whether the segment from eye to targetEye is free of
// surfaces on obstacleMask. The ray is limited to maxDist.
func LineOfSight(rc Raycaster, eye, targetEye common.Vec3, maxDist float64, obstacleMask common.LayerMask) bool {
	to := targetEye.Sub(eye)
	return lineOfSight(rc, eye, to, to.Len(), maxDist, obstacleMask)
}

// lineOfSight casts against every layer and only lets the first surface decide.
// A first hit at or beyond the target counts as hitting the target.
func lineOfSight(rc Raycaster, eye, toTarget common.Vec3, targetDist, maxDist float64, obstacleMask common.LayerMask) bool {
	if rc == nil || targetDist == 0 {
		return true
	}
	hit, ok := rc.Raycast(eye, toTarget.Scale(1/targetDist), maxDist, common.AllLayers)
	if !ok {
		return true
	}
	if hit.Distance >= targetDist {
		return true
	}
	return !hit.Layers.Intersects(obstacleMask)
}
