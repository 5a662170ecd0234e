package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/sentinel/component"
)

func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// ApplyOverrides returns spec with the given fields replaced. Nested maps
// such as vision are merged key by key.
func ApplyOverrides(spec ClassSpec, overrides map[string]any) (ClassSpec, error) {
	if len(overrides) == 0 {
		return spec, nil
	}
	base, err := DecodeComponentSpec[map[string]any](spec)
	if err != nil {
		return spec, fmt.Errorf("prefabs: encode class %s: %w", spec.Name, err)
	}
	if base == nil {
		base = make(map[string]any)
	}
	for key, val := range overrides {
		nested, ok := val.(map[string]any)
		prev, prevOK := base[key].(map[string]any)
		if ok && prevOK {
			for k, v := range nested {
				prev[k] = v
			}
			continue
		}
		base[key] = val
	}
	out, err := DecodeComponentSpec[ClassSpec](base)
	if err != nil {
		return spec, fmt.Errorf("prefabs: apply overrides to %s: %w", spec.Name, err)
	}
	return out, nil
}

// BuildVisionStats resolves obstacle layer names. eyeHeight is used when the
// spec leaves it unset.
func BuildVisionStats(spec VisionSpec, layers LayerTable, eyeHeight float64) (component.VisionStats, error) {
	mask, err := layers.Mask(spec.Obstacles)
	if err != nil {
		return component.VisionStats{}, err
	}
	if spec.EyeHeight > 0 {
		eyeHeight = spec.EyeHeight
	}
	return component.VisionStats{
		UseCone:        spec.UseCone,
		AngleDegrees:   spec.Angle,
		Distance:       spec.Distance,
		ObstacleLayers: mask,
		EyeHeight:      eyeHeight,
	}, nil
}

// BuildAgentStats converts a class spec into runtime stats.
func BuildAgentStats(spec ClassSpec, layers LayerTable) (*component.AgentStats, error) {
	vision, err := BuildVisionStats(spec.Vision, layers, component.DefaultEyeHeight)
	if err != nil {
		return nil, fmt.Errorf("prefabs: class %s: %w", spec.Name, err)
	}
	delay := component.DefaultReactionDelay
	if spec.ReactionDelay != nil {
		delay = *spec.ReactionDelay
	}
	return &component.AgentStats{
		Class:           spec.Name,
		MaxHealth:       spec.MaxHealth,
		MoveSpeed:       spec.MoveSpeed,
		StopDistance:    spec.StopDistance,
		Vision:          vision,
		EngageRange:     spec.EngageRange,
		FireRate:        spec.FireRate,
		DamagePerHit:    spec.DamagePerHit,
		PatrolSpeed:     spec.PatrolSpeed,
		ArriveThreshold: spec.ArriveThreshold,
		ReactionDelay:   delay,
	}, nil
}

// BuildCameraStats converts a camera class spec into runtime stats.
func BuildCameraStats(spec CameraClassSpec, layers LayerTable) (*component.CameraStats, error) {
	vision, err := BuildVisionStats(spec.Vision, layers, component.DefaultCameraEyeHeight)
	if err != nil {
		return nil, fmt.Errorf("prefabs: camera %s: %w", spec.Name, err)
	}
	wallMask, err := layers.Mask(spec.WallLayers)
	if err != nil {
		return nil, fmt.Errorf("prefabs: camera %s: %w", spec.Name, err)
	}
	return &component.CameraStats{
		Class:              spec.Name,
		MaxHealth:          spec.MaxHealth,
		Vision:             vision,
		RotateSpeedDeg:     spec.RotateSpeed,
		WallDetectDistance: spec.WallDetectDistance,
		WallMask:           wallMask,
	}, nil
}

// LayersOrDefault returns the level's layer table, or the default table when
// the level declares none.
func (l LevelSpec) LayersOrDefault() LayerTable {
	if len(l.Layers) == 0 {
		return DefaultLayers()
	}
	return l.Layers
}

// ClassCache loads each class once.
type ClassCache struct {
	agents  map[string]ClassSpec
	cameras map[string]CameraClassSpec
}

func NewClassCache() *ClassCache {
	return &ClassCache{
		agents:  make(map[string]ClassSpec),
		cameras: make(map[string]CameraClassSpec),
	}
}

func (c *ClassCache) Agent(name string) (ClassSpec, error) {
	if spec, ok := c.agents[name]; ok {
		return spec, nil
	}
	spec, err := LoadClassSpec(name)
	if err != nil {
		return ClassSpec{}, err
	}
	if spec.Name == "" {
		spec.Name = name
	}
	c.agents[name] = spec
	return spec, nil
}

func (c *ClassCache) Camera(name string) (CameraClassSpec, error) {
	if spec, ok := c.cameras[name]; ok {
		return spec, nil
	}
	spec, err := LoadCameraClassSpec(name)
	if err != nil {
		return CameraClassSpec{}, err
	}
	if spec.Name == "" {
		spec.Name = name
	}
	c.cameras[name] = spec
	return spec, nil
}
