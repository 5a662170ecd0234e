package physics

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/sentinel/ai"
	"github.com/milk9111/sentinel/common"
)

const (
	layerWall  = 1
	layerGlass = 2
)

func newTestWorld(t *testing.T, obstacles ...Obstacle) *World {
	t.Helper()
	w := NewWorld(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, o := range obstacles {
		_, err := w.AddObstacle(o)
		require.NoError(t, err)
	}
	return w
}

func wallAt(z0, z1 float64) Obstacle {
	return Obstacle{Name: "wall", Min: common.V3(-1, 0, z0), Max: common.V3(1, 3, z1), Layer: layerWall, Solid: true}
}

func TestAddObstacleValidates(t *testing.T) {
	w := newTestWorld(t)
	cases := []struct {
		name string
		obs  Obstacle
	}{
		{"negative_layer", Obstacle{Min: common.V3(0, 0, 0), Max: common.V3(1, 1, 1), Layer: -1}},
		{"reserved_layer", Obstacle{Min: common.V3(0, 0, 0), Max: common.V3(1, 1, 1), Layer: 31}},
		{"flat", Obstacle{Min: common.V3(0, 0, 0), Max: common.V3(1, 0, 1)}},
		{"inverted", Obstacle{Min: common.V3(1, 0, 0), Max: common.V3(0, 1, 1)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := w.AddObstacle(c.obs)
			assert.Error(t, err)
		})
	}
	assert.Empty(t, w.Obstacles())
}

func TestRaycastHitsNearestMaskedObstacle(t *testing.T) {
	far := wallAt(7, 8)
	far.Name = "far"
	w := newTestWorld(t, wallAt(4, 5), far)
	origin := common.V3(0, 1.6, 0)

	hit, ok := w.Raycast(origin, common.V3(0, 0, 1), 10, common.LayerBit(layerWall))
	require.True(t, ok)
	assert.InDelta(t, 4, hit.Distance, 1e-9)
	assert.InDelta(t, 4, hit.Point.Z, 1e-9)
	assert.InDelta(t, 1.6, hit.Point.Y, 1e-9)
	assert.Equal(t, common.LayerBit(layerWall), hit.Layers)

	_, ok = w.Raycast(origin, common.V3(0, 0, 1), 3.5, common.LayerBit(layerWall))
	assert.False(t, ok, "obstacle beyond max distance")

	_, ok = w.Raycast(origin, common.V3(0, 0, 1), 10, common.LayerBit(layerGlass))
	assert.False(t, ok, "obstacle layer outside mask")

	_, ok = w.Raycast(origin, common.V3(0, 0, -1), 10, common.AllLayers)
	assert.False(t, ok)
}

func TestRaycastRespectsVerticalExtent(t *testing.T) {
	w := newTestWorld(t, wallAt(4, 5))

	_, ok := w.Raycast(common.V3(0, 5, 0), common.V3(0, 0, 1), 10, common.AllLayers)
	assert.False(t, ok, "ray passes over the wall")

	from := common.V3(0, 8, 3.5)
	to := common.V3(0, 0, 4.5)
	length := common.Distance(from, to)
	hit, ok := w.Raycast(from, to.Sub(from), length, common.AllLayers)
	require.True(t, ok, "ray drops in through the top face")
	assert.InDelta(t, 3, hit.Point.Y, 1e-9)
	assert.InDelta(t, 4.125, hit.Point.Z, 1e-9)
	assert.InDelta(t, 0.625*length, hit.Distance, 1e-9)
}

func TestRaycastIgnoresMovers(t *testing.T) {
	w := newTestWorld(t)
	m := w.NewMover(common.V3(0, 0, 2), common.V3(0, 0, 1), 0.5)
	require.NotNil(t, m)

	_, ok := w.Raycast(common.V3(0, 0.5, 0), common.V3(0, 0, 1), 10, common.AllLayers)
	assert.False(t, ok)
}

func TestRaycastDegenerateInput(t *testing.T) {
	w := newTestWorld(t, wallAt(4, 5))
	_, ok := w.Raycast(common.V3(0, 10, 4.5), common.V3(0, -1, 0), 20, common.AllLayers)
	assert.False(t, ok, "vertical rays have no footprint")
	_, ok = w.Raycast(common.V3(0, 1, 0), common.Vec3{}, 20, common.AllLayers)
	assert.False(t, ok)

	var nilWorld *World
	_, ok = nilWorld.Raycast(common.V3(0, 1, 0), common.V3(0, 0, 1), 20, common.AllLayers)
	assert.False(t, ok)
}

func TestWorldPerceptionThroughObstacles(t *testing.T) {
	w := newTestWorld(t, wallAt(4, 5), Obstacle{
		Name: "window", Min: common.V3(1, 0, 4), Max: common.V3(4, 3, 5), Layer: layerGlass,
	})
	v := ai.Vision{Range: 12, HalfAngleDegrees: 45, ObstacleMask: common.LayerBit(layerWall), Conical: true}
	eye := common.V3(0, 1.6, 0)

	behindWall := common.V3(0, 1.6, 8)
	assert.False(t, ai.CanPerceive(w, eye, common.V3(0, 0, 1), &behindWall, v))

	behindWindow := common.V3(3, 1.6, 8)
	assert.True(t, ai.CanPerceive(w, eye, common.V3(0, 0, 1), &behindWindow, v))
}

func TestMoverSlidesAgainstSolidWall(t *testing.T) {
	w := newTestWorld(t, wallAt(2, 3))
	m := w.NewMover(common.V3(0, 0, 0), common.V3(0, 0, 1), 0.4)

	for i := 0; i < 120; i++ {
		m.Move(common.V3(0, 0, 2))
		w.Step(1.0 / 60.0)
	}
	assert.InDelta(t, 1.6, m.Position().Z, 0.05, "rests against the face at z=2")
}

func TestMoverHoldsAgainstWallOverLongRuns(t *testing.T) {
	w := newTestWorld(t, wallAt(2, 3))
	m := w.NewMover(common.V3(0, 0, 0), common.V3(0, 0, 1), 0.4)

	for i := 1; i <= 600; i++ {
		m.Move(common.V3(0, 0, 3.5))
		w.Step(1.0 / 30.0)
		if i%100 == 0 {
			assert.Less(t, m.Position().Z, 1.65, "tick %d", i)
		}
	}
}

func TestMoverSlidesAlongWall(t *testing.T) {
	wall := Obstacle{Name: "long", Min: common.V3(-10, 0, 2), Max: common.V3(10, 3, 3), Layer: layerWall, Solid: true}
	w := newTestWorld(t, wall)
	m := w.NewMover(common.V3(0, 0, 1.5), common.V3(0, 0, 1), 0.4)

	for i := 0; i < 60; i++ {
		m.Move(common.V3(1, 0, 2))
		w.Step(1.0 / 60.0)
	}
	assert.Less(t, m.Position().Z, 1.65)
	assert.Greater(t, m.Position().X, 0.5, "tangential motion survives the contact")
}

func TestMoverPassesNonSolidObstacle(t *testing.T) {
	glass := wallAt(2, 3)
	glass.Solid = false
	w := newTestWorld(t, glass)
	m := w.NewMover(common.V3(0, 0, 0), common.V3(0, 0, 1), 0.4)

	m.Move(common.V3(0, 5, 2))
	for i := 0; i < 120; i++ {
		w.Step(1.0 / 60.0)
	}
	assert.InDelta(t, 4, m.Position().Z, 1e-6)
	assert.Zero(t, m.Position().Y, "vertical velocity is dropped")
}

func TestMoverFaceAndTeleport(t *testing.T) {
	w := newTestWorld(t)
	m := w.NewMover(common.V3(1, 0.5, 1), common.Vec3{}, 0)
	assert.Equal(t, common.V3(0, 0, 1), m.Forward(), "degenerate forward falls back to +Z")
	assert.Equal(t, common.V3(1, 0.5, 1), m.Position())

	m.Face(common.V3(3, 7, 4))
	assert.InDelta(t, 0.6, m.Forward().X, 1e-12)
	assert.InDelta(t, 0.8, m.Forward().Z, 1e-12)
	assert.Zero(t, m.Forward().Y)

	m.Face(common.V3(0, 1, 0))
	assert.InDelta(t, 0.6, m.Forward().X, 1e-12, "vertical directions keep the old facing")

	m.Move(common.V3(1, 0, 0))
	m.Teleport(common.V3(-4, 0, 2), common.V3(-1, 0, 0))
	assert.Equal(t, common.V3(-4, 0, 2), m.Position())
	assert.Equal(t, common.V3(-1, 0, 0), m.Forward())
	assert.True(t, m.Velocity().IsZero())
}

func TestMoverDisable(t *testing.T) {
	w := newTestWorld(t)
	m := w.NewMover(common.V3(0, 0, 0), common.V3(0, 0, 1), 0.4)
	m.Move(common.V3(1, 0, 0))

	m.SetEnabled(false)
	assert.False(t, m.Enabled())
	assert.False(t, w.Space().ContainsBody(m.body))
	m.Move(common.V3(3, 0, 0))
	w.Step(1)
	assert.Equal(t, common.V3(0, 0, 0), m.Position())

	m.SetEnabled(true)
	m.SetEnabled(true)
	assert.True(t, w.Space().ContainsShape(m.shape))
	m.Move(common.V3(1, 0, 0))
	w.Step(0.5)
	assert.InDelta(t, 0.5, m.Position().X, 1e-9)
	assert.False(t, math.IsNaN(m.Position().Z))
}
