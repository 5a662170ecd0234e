package component

import "github.com/milk9111/sentinel/common"

const (
	DefaultEyeHeight       = 1.6
	DefaultCameraEyeHeight = 1.8
	DefaultReactionDelay   = 3.0
	MinFireRate            = 0.01
)

// VisionStats are the static perception parameters of an agent class.
type VisionStats struct {
	UseCone        bool
	AngleDegrees   float64 // full cone width; the half angle is used for tests
	Distance       float64
	ObstacleLayers common.LayerMask
	EyeHeight      float64
}

// HalfAngle returns half the configured cone width.
func (v VisionStats) HalfAngle() float64 {
	return v.AngleDegrees * 0.5
}

// Valid reports whether the vision parameters describe usable geometry.
func (v VisionStats) Valid() bool {
	if v.Distance <= 0 {
		return false
	}
	if v.UseCone && v.AngleDegrees <= 0 {
		return false
	}
	return true
}

// AgentStats is the immutable per-class configuration of an enemy agent.
type AgentStats struct {
	Class     string
	MaxHealth int

	MoveSpeed    float64
	StopDistance float64

	Vision VisionStats

	EngageRange  float64
	FireRate     float64
	DamagePerHit int

	PatrolSpeed     float64
	ArriveThreshold float64

	ReactionDelay float64
}

// EngageCooldown is the delay between shots, with the fire rate floored to
// MinFireRate.
func (s AgentStats) EngageCooldown() float64 {
	rate := s.FireRate
	if rate < MinFireRate {
		rate = MinFireRate
	}
	return 1 / rate
}

// CameraStats configures a sweeping surveillance camera.
type CameraStats struct {
	Class              string
	MaxHealth          int
	Vision             VisionStats
	RotateSpeedDeg     float64
	WallDetectDistance float64
	WallMask           common.LayerMask
}
