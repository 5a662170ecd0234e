package ai

import (
	"io"
	"log/slog"
	"math"

	"github.com/milk9111/sentinel/common"
	"github.com/milk9111/sentinel/component"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeActuator struct {
	pos      common.Vec3
	fwd      common.Vec3
	vel      common.Vec3
	enabled  bool
	moves    int
	teleport int
}

func newFakeActuator(pos common.Vec3) *fakeActuator {
	return &fakeActuator{pos: pos, fwd: common.V3(0, 0, 1), enabled: true}
}

func (f *fakeActuator) Position() common.Vec3 { return f.pos }
func (f *fakeActuator) Forward() common.Vec3  { return f.fwd }
func (f *fakeActuator) Move(v common.Vec3) {
	f.moves++
	f.vel = v
}
func (f *fakeActuator) Face(dir common.Vec3) { f.fwd = dir }
func (f *fakeActuator) Teleport(pos, fwd common.Vec3) {
	f.teleport++
	f.pos = pos
	f.fwd = fwd
}
func (f *fakeActuator) SetEnabled(enabled bool) { f.enabled = enabled }

func (f *fakeActuator) integrate(dt float64) {
	if !f.enabled {
		return
	}
	f.pos = f.pos.Add(f.vel.Scale(dt))
}

type fakeTarget struct {
	pos    common.Vec3
	health *component.Health
}

func newFakeTarget(pos common.Vec3) *fakeTarget {
	return &fakeTarget{pos: pos, health: component.NewHealth(100)}
}

func (t *fakeTarget) Position() common.Vec3             { return t.pos }
func (t *fakeTarget) Health() component.HealthComponent { return t.health }

// box is an axis-aligned blocking volume.
type box struct {
	min, max common.Vec3
	layers   common.LayerMask
}

type boxWorld struct {
	boxes []box
	casts int
}

func (w *boxWorld) Raycast(origin, dir common.Vec3, maxDist float64, mask common.LayerMask) (RaycastHit, bool) {
	w.casts++
	best := math.Inf(1)
	var hit RaycastHit
	for _, b := range w.boxes {
		if !b.layers.Intersects(mask) {
			continue
		}
		t, ok := slab(origin, dir, b.min, b.max)
		if !ok || t > maxDist || t >= best {
			continue
		}
		best = t
		hit = RaycastHit{Point: origin.Add(dir.Scale(t)), Distance: t, Layers: b.layers}
	}
	return hit, !math.IsInf(best, 1)
}

func slab(o, d, min, max common.Vec3) (float64, bool) {
	tmin, tmax := 0.0, math.Inf(1)
	axes := [3][4]float64{
		{o.X, d.X, min.X, max.X},
		{o.Y, d.Y, min.Y, max.Y},
		{o.Z, d.Z, min.Z, max.Z},
	}
	for _, ax := range axes {
		p, dir, lo, hi := ax[0], ax[1], ax[2], ax[3]
		if dir == 0 {
			if p < lo || p > hi {
				return 0, false
			}
			continue
		}
		t1 := (lo - p) / dir
		t2 := (hi - p) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
	}
	if tmax < tmin {
		return 0, false
	}
	return tmin, true
}

const (
	layerDefault = 0
	layerWall    = 1
	layerGlass   = 2
)

func soldierStats() *component.AgentStats {
	return &component.AgentStats{
		Class:        "soldier",
		MaxHealth:    100,
		MoveSpeed:    3.5,
		StopDistance: 1.2,
		Vision: component.VisionStats{
			UseCone:        true,
			AngleDegrees:   60,
			Distance:       12,
			ObstacleLayers: common.LayerBit(layerWall),
			EyeHeight:      component.DefaultEyeHeight,
		},
		EngageRange:     12,
		FireRate:        1,
		DamagePerHit:    10,
		PatrolSpeed:     2,
		ArriveThreshold: 0.3,
		ReactionDelay:   component.DefaultReactionDelay,
	}
}

type transition struct {
	agent    string
	from, to State
}

type harness struct {
	bus         *AlertBus
	world       *boxWorld
	target      *fakeTarget
	transitions []transition
	actuators   map[*Agent]*fakeActuator
}

func newHarness(targetPos common.Vec3) *harness {
	return &harness{
		bus:       NewAlertBus(quietLogger()),
		world:     &boxWorld{},
		target:    newFakeTarget(targetPos),
		actuators: map[*Agent]*fakeActuator{},
	}
}

func (h *harness) spawn(name string, stats *component.AgentStats, pos common.Vec3, route ...common.Vec3) *Agent {
	act := newFakeActuator(pos)
	a := NewAgent(Config{
		Name:          name,
		Stats:         stats,
		Route:         route,
		SpawnPosition: pos,
		SpawnForward:  common.V3(0, 0, 1),
	}, Deps{
		Bus:      h.bus,
		Actuator: act,
		World:    h.world,
		Target:   h.target,
		Logger:   quietLogger(),
		OnStateChange: func(a *Agent, from, to State) {
			h.transitions = append(h.transitions, transition{agent: a.Name, from: from, to: to})
		},
	})
	h.actuators[a] = act
	return a
}

func (h *harness) tick(dt float64, agents ...*Agent) {
	for _, a := range agents {
		a.Update(dt)
	}
	for _, a := range agents {
		h.actuators[a].integrate(dt)
	}
}
