package sensor

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/milk9111/sentinel/ai"
	"github.com/milk9111/sentinel/common"
	"github.com/milk9111/sentinel/component"
)

// Config is the per-instance setup of a camera.
type Config struct {
	ID       string
	Name     string
	Stats    *component.CameraStats
	Position common.Vec3
	// Yaw is the initial heading in degrees; 0 looks along +Z.
	Yaw float64
}

type Deps struct {
	Bus    *ai.AlertBus
	World  ai.Raycaster
	Target ai.Target
	Logger *slog.Logger
}

// Camera is a fixed surveillance head that sweeps back and forth between
// walls and raises a global alert when it first sees the target.
type Camera struct {
	ID   string
	Name string

	stats  *component.CameraStats
	bus    *ai.AlertBus
	world  ai.Raycaster
	target ai.Target
	health *component.Health
	logger *slog.Logger

	pos       common.Vec3
	yaw       float64
	direction float64
	active    bool

	detected   bool
	detections int
	lastSeen   ai.PerceptionResult
}

// NewCamera builds a camera. A camera without usable vision parameters is
// created inactive.
func NewCamera(cfg Config, deps Deps) *Camera {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	name := cfg.Name
	if name == "" {
		name = id
	}

	c := &Camera{
		ID:        id,
		Name:      name,
		stats:     cfg.Stats,
		bus:       deps.Bus,
		world:     deps.World,
		target:    deps.Target,
		logger:    logger.With("component", "camera", "camera", name),
		pos:       cfg.Position,
		yaw:       normalizeYaw(cfg.Yaw),
		direction: 1,
	}

	maxHealth := 1
	if c.stats != nil {
		maxHealth = c.stats.MaxHealth
	}
	c.health = component.NewHealth(maxHealth)
	c.health.OnDeath = func(_ *component.Health, evt component.CombatEvent) {
		c.active = false
		c.detected = false
		c.logger.Info("camera destroyed", "attacker", evt.AttackerID)
	}

	if c.stats == nil || !c.stats.Vision.Valid() {
		c.logger.Error("camera disabled: missing vision parameters")
		return c
	}
	c.active = true
	return c
}

// Update sweeps the head and runs detection.
func (c *Camera) Update(dt float64) {
	if c == nil || !c.active {
		return
	}
	if dt < 0 {
		dt = 0
	}
	c.sweep(dt)
	c.detect()
}

func (c *Camera) sweep(dt float64) {
	step := c.stats.RotateSpeedDeg * c.direction * dt
	if step == 0 {
		return
	}
	c.yaw = normalizeYaw(c.yaw + step)

	if c.world == nil || c.stats.WallDetectDistance <= 0 || c.stats.WallMask == 0 {
		return
	}
	if _, hit := c.world.Raycast(c.Eye(), c.Forward(), c.stats.WallDetectDistance, c.stats.WallMask); hit {
		c.yaw = normalizeYaw(c.yaw - step)
		c.direction = -c.direction
		c.logger.Debug("sweep reversed", "yaw", c.yaw)
	}
}

func (c *Camera) detect() {
	c.lastSeen = ai.PerceptionResult{Reason: ai.ReasonNoTarget}
	if c.target != nil {
		targetEye := c.target.Position().Add(common.Up.Scale(c.eyeHeight()))
		c.lastSeen = ai.Perceive(c.world, c.Eye(), c.Forward(), &targetEye, ai.VisionFrom(c.stats.Vision))
	}

	visible := c.lastSeen.Visible
	if visible && !c.detected {
		c.detections++
		c.logger.Info("target detected", "distance", c.lastSeen.Distance)
		c.bus.Publish(ai.AlertOrigin{Source: c.Name, Position: c.pos})
	}
	c.detected = visible
}

// Eye returns the camera's eye point.
func (c *Camera) Eye() common.Vec3 {
	if c == nil {
		return common.Vec3{}
	}
	return c.pos.Add(common.Up.Scale(c.eyeHeight()))
}

// eyeHeight is used for both the camera and the target it looks for.
func (c *Camera) eyeHeight() float64 {
	if c.stats != nil && c.stats.Vision.EyeHeight > 0 {
		return c.stats.Vision.EyeHeight
	}
	return component.DefaultCameraEyeHeight
}

// Forward returns the horizontal look direction.
func (c *Camera) Forward() common.Vec3 {
	if c == nil {
		return common.Vec3{}
	}
	return common.ForwardFromYaw(c.yaw)
}

func (c *Camera) Position() common.Vec3 {
	if c == nil {
		return common.Vec3{}
	}
	return c.pos
}

// Yaw returns the heading in degrees, in [0, 360).
func (c *Camera) Yaw() float64 {
	if c == nil {
		return 0
	}
	return c.yaw
}

// Direction is +1 while the yaw increases and -1 while it decreases.
func (c *Camera) Direction() float64 {
	if c == nil {
		return 0
	}
	return c.direction
}

func (c *Camera) Active() bool {
	return c != nil && c.active
}

// Detected reports whether the target was visible on the last update.
func (c *Camera) Detected() bool {
	return c != nil && c.detected
}

// Detections counts rising detection edges, which is how many alerts the
// camera has raised.
func (c *Camera) Detections() int {
	if c == nil {
		return 0
	}
	return c.detections
}

func (c *Camera) LastPerception() ai.PerceptionResult {
	if c == nil {
		return ai.PerceptionResult{}
	}
	return c.lastSeen
}

func (c *Camera) Health() *component.Health {
	if c == nil {
		return nil
	}
	return c.health
}

func (c *Camera) Stats() *component.CameraStats {
	if c == nil {
		return nil
	}
	return c.stats
}

func (c *Camera) SetTarget(t ai.Target) {
	if c == nil {
		return
	}
	c.target = t
}

// TakeDamage routes a hit through the camera's health sink.
func (c *Camera) TakeDamage(amount int, evt component.CombatEvent) bool {
	if c == nil {
		return false
	}
	if evt.TargetID == "" {
		evt.TargetID = c.ID
	}
	if evt.Type == "" {
		evt.Type = component.EventHit
	}
	return c.health.ApplyDamage(amount, evt)
}

// Overlay returns the camera's debug geometry.
func (c *Camera) Overlay() ai.Overlay {
	if c == nil || c.stats == nil {
		return ai.Overlay{}
	}
	var targetEye *common.Vec3
	if c.target != nil {
		te := c.target.Position().Add(common.Up.Scale(c.eyeHeight()))
		targetEye = &te
	}
	return ai.VisionOverlay(c.world, c.Eye(), c.Forward(), targetEye, ai.VisionFrom(c.stats.Vision))
}

func normalizeYaw(deg float64) float64 {
	for deg >= 360 {
		deg -= 360
	}
	for deg < 0 {
		deg += 360
	}
	return deg
}
