package sim

import (
	"fmt"
	"log/slog"

	"github.com/milk9111/sentinel/ai"
	"github.com/milk9111/sentinel/physics"
	"github.com/milk9111/sentinel/prefabs"
	"github.com/milk9111/sentinel/sensor"
)

// Build assembles a scene from a level description. Classes are resolved
// through prefabs, so a failing class or layer name fails the whole build.
func Build(level prefabs.LevelSpec, logger *slog.Logger) (*World, error) {
	w := NewWorld(level.Name, logger)
	w.Settings = Settings{
		TickRate: level.Sim.TickRate,
		Duration: level.Sim.Duration,
		Script:   level.Script,
	}
	w.Respawner.MaxAlive = level.Sim.MaxAlive
	layers := level.LayersOrDefault()

	for i, o := range level.Obstacles {
		layerName := o.Layer
		if layerName == "" {
			layerName = "default"
		}
		idx, err := layers.Index(layerName)
		if err != nil {
			return nil, fmt.Errorf("sim: level %s: obstacle %d: %w", level.Name, i, err)
		}
		if _, err := w.Physics.AddObstacle(physics.Obstacle{
			Name:  o.Name,
			Min:   o.Min,
			Max:   o.Max,
			Layer: idx,
			Solid: o.IsSolid(),
		}); err != nil {
			return nil, fmt.Errorf("sim: level %s: %w", level.Name, err)
		}
	}

	w.SetPlayer(level.Target.Name, level.Target.Position, level.Target.MaxHealth)

	cache := prefabs.NewClassCache()
	for i, spec := range level.Agents {
		class, err := cache.Agent(spec.Class)
		if err != nil {
			return nil, fmt.Errorf("sim: level %s: agent %d: %w", level.Name, i, err)
		}
		class, err = prefabs.ApplyOverrides(class, spec.Overrides)
		if err != nil {
			return nil, fmt.Errorf("sim: level %s: agent %d: %w", level.Name, i, err)
		}
		stats, err := prefabs.BuildAgentStats(class, layers)
		if err != nil {
			return nil, fmt.Errorf("sim: level %s: agent %d: %w", level.Name, i, err)
		}
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", class.Name, i)
		}
		if _, err := w.AddAgent(ai.Config{
			ID:            spec.ID,
			Name:          name,
			Stats:         stats,
			Route:         spec.Route,
			SpawnPosition: spec.Position,
			SpawnForward:  spec.Forward,
		}); err != nil {
			return nil, fmt.Errorf("sim: level %s: %w", level.Name, err)
		}
	}

	for i, spec := range level.Cameras {
		class, err := cache.Camera(spec.Class)
		if err != nil {
			return nil, fmt.Errorf("sim: level %s: camera %d: %w", level.Name, i, err)
		}
		stats, err := prefabs.BuildCameraStats(class, layers)
		if err != nil {
			return nil, fmt.Errorf("sim: level %s: camera %d: %w", level.Name, i, err)
		}
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", class.Name, i)
		}
		if _, err := w.AddCamera(sensor.Config{
			ID:       spec.ID,
			Name:     name,
			Stats:    stats,
			Position: spec.Position,
			Yaw:      spec.Yaw,
		}); err != nil {
			return nil, fmt.Errorf("sim: level %s: %w", level.Name, err)
		}
	}

	w.logger.Info("level built",
		"obstacles", len(level.Obstacles),
		"agents", len(w.agents),
		"cameras", len(w.cameras),
		"max_alive", w.Respawner.MaxAlive,
	)
	return w, nil
}

// Load reads a level by name or path and builds it.
func Load(ref string, logger *slog.Logger) (*World, error) {
	level, err := prefabs.LoadLevelSpec(ref)
	if err != nil {
		return nil, err
	}
	return Build(level, logger)
}
