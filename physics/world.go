package physics

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/sentinel/ai"
	"github.com/milk9111/sentinel/common"
)

const (
	collisionTypeObstacle cp.CollisionType = iota + 1
	collisionTypeActor
)

// actorCategory is the collision category of movers. Obstacles use their
// layer bit as category, so the top bit is reserved.
const actorCategory uint = 1 << 31

// collisionSlop is how far a mover may rest inside a wall.
const collisionSlop = 0.01

// MaxLayer is the highest layer index an obstacle may use.
const MaxLayer = 30

// Obstacle is a vertical prism: an axis-aligned footprint on the ground plane
// extruded from Min.Y to Max.Y.
type Obstacle struct {
	Name  string
	Min   common.Vec3
	Max   common.Vec3
	Layer int
	// Solid obstacles stop movers. Non-solid ones only interact with rays.
	Solid bool

	shape *cp.Shape
}

// Layers returns the obstacle's layer as a mask.
func (o *Obstacle) Layers() common.LayerMask {
	if o == nil {
		return 0
	}
	return common.LayerBit(o.Layer)
}

// World owns the Chipmunk space used for line-of-sight queries and for
// resolving agent movement against walls. The ground plane X/Z maps to the
// space's X/Y.
type World struct {
	space     *cp.Space
	obstacles []*Obstacle
	movers    []*Mover
	logger    *slog.Logger
}

// NewWorld creates an empty, gravity-free world.
func NewWorld(logger *slog.Logger) *World {
	if logger == nil {
		logger = slog.Default()
	}
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{})
	space.SetCollisionSlop(collisionSlop)
	return &World{
		space:  space,
		logger: logger.With("component", "physics"),
	}
}

// Space returns the underlying Chipmunk space.
func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

// AddObstacle inserts a static obstacle.
func (w *World) AddObstacle(o Obstacle) (*Obstacle, error) {
	if w == nil || w.space == nil {
		return nil, fmt.Errorf("physics: add obstacle %q: nil world", o.Name)
	}
	if o.Layer < 0 || o.Layer > MaxLayer {
		return nil, fmt.Errorf("physics: add obstacle %q: layer %d out of range [0,%d]", o.Name, o.Layer, MaxLayer)
	}
	if o.Max.X <= o.Min.X || o.Max.Y <= o.Min.Y || o.Max.Z <= o.Min.Z {
		return nil, fmt.Errorf("physics: add obstacle %q: empty extent %v..%v", o.Name, o.Min, o.Max)
	}

	obs := o
	bb := cp.BB{L: o.Min.X, B: o.Min.Z, R: o.Max.X, T: o.Max.Z}
	shape := cp.NewBox2(w.space.StaticBody, bb, 0)
	shape.SetFriction(0)
	shape.SetCollisionType(collisionTypeObstacle)
	shape.SetFilter(cp.ShapeFilter{
		Group:      cp.NO_GROUP,
		Categories: uint(o.Layers()),
		Mask:       cp.ALL_CATEGORIES,
	})
	shape.SetSensor(!o.Solid)
	shape.UserData = &obs
	w.space.AddShape(shape)
	obs.shape = shape

	w.obstacles = append(w.obstacles, &obs)
	w.logger.Debug("obstacle added", "name", o.Name, "layer", o.Layer, "solid", o.Solid)
	return &obs, nil
}

// Obstacles returns every obstacle in insertion order.
func (w *World) Obstacles() []*Obstacle {
	if w == nil {
		return nil
	}
	return w.obstacles
}

// Movers returns every mover created by this world.
func (w *World) Movers() []*Mover {
	if w == nil {
		return nil
	}
	return w.movers
}

// Step advances the space. Movers carry the velocity their owners requested.
func (w *World) Step(dt float64) {
	if w == nil || w.space == nil || dt <= 0 {
		return
	}
	w.space.Step(dt)
}

// Raycast returns the nearest obstacle surface along dir within maxDist whose
// layer intersects mask. Movers are never hit. Rays with no horizontal extent
// report no hit.
func (w *World) Raycast(origin, dir common.Vec3, maxDist float64, mask common.LayerMask) (ai.RaycastHit, bool) {
	if w == nil || w.space == nil || maxDist <= 0 || mask == 0 {
		return ai.RaycastHit{}, false
	}
	dir = dir.Normalized()
	if dir.IsZero() {
		return ai.RaycastHit{}, false
	}
	end := origin.Add(dir.Scale(maxDist))
	start2 := cp.Vector{X: origin.X, Y: origin.Z}
	end2 := cp.Vector{X: end.X, Y: end.Z}
	if start2.DistanceSq(end2) <= common.Epsilon*common.Epsilon {
		return ai.RaycastHit{}, false
	}

	filter := cp.ShapeFilter{Group: cp.NO_GROUP, Categories: cp.ALL_CATEGORIES, Mask: uint(mask)}
	best := math.Inf(1)
	var hit ai.RaycastHit
	w.space.SegmentQuery(start2, end2, 0, filter, func(shape *cp.Shape, point, normal cp.Vector, alpha float64, data interface{}) {
		obs, ok := shape.UserData.(*Obstacle)
		if !ok {
			return
		}
		a, ok := verticalEntry(obs, shape, origin, end, alpha)
		if !ok || a >= best {
			return
		}
		best = a
		hit = ai.RaycastHit{
			Point:    origin.Add(end.Sub(origin).Scale(a)),
			Distance: a * maxDist,
			Layers:   obs.Layers(),
		}
	}, nil)

	if math.IsInf(best, 1) {
		return ai.RaycastHit{}, false
	}
	return hit, true
}

// verticalEntry refines a footprint hit at alpha into the fraction where the
// 3-D segment actually enters the prism, through a side face or through the
// top or bottom.
func verticalEntry(obs *Obstacle, shape *cp.Shape, from, to common.Vec3, alpha float64) (float64, bool) {
	heightAt := func(a float64) float64 { return common.Lerp(from.Y, to.Y, a) }
	inside := func(a float64) bool {
		y := heightAt(a)
		if y < obs.Min.Y-common.Epsilon || y > obs.Max.Y+common.Epsilon {
			return false
		}
		p := cp.Vector{X: common.Lerp(from.X, to.X, a), Y: common.Lerp(from.Z, to.Z, a)}
		return shape.PointQuery(p).Distance <= common.Epsilon
	}

	if inside(alpha) {
		return alpha, true
	}
	dy := to.Y - from.Y
	if math.Abs(dy) <= common.Epsilon {
		return 0, false
	}
	best := math.Inf(1)
	for _, plane := range [2]float64{obs.Min.Y, obs.Max.Y} {
		a := (plane - from.Y) / dy
		if a < alpha || a > 1 || a >= best {
			continue
		}
		if inside(a) {
			best = a
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

var _ ai.Raycaster = (*World)(nil)
