package prefabs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/sentinel/common"
)

var (
	ErrUnknownClass = errors.New("prefabs: unknown class")
	ErrUnknownLayer = errors.New("prefabs: unknown layer")
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

type VisionSpec struct {
	UseCone   bool     `yaml:"use_cone"`
	Angle     float64  `yaml:"angle"`
	Distance  float64  `yaml:"distance"`
	Obstacles []string `yaml:"obstacles"`
	EyeHeight float64  `yaml:"eye_height"`
}

// ClassSpec is an agent archetype.
type ClassSpec struct {
	Name            string     `yaml:"name"`
	MaxHealth       int        `yaml:"max_health"`
	MoveSpeed       float64    `yaml:"move_speed"`
	StopDistance    float64    `yaml:"stop_distance"`
	Vision          VisionSpec `yaml:"vision"`
	EngageRange     float64    `yaml:"engage_range"`
	FireRate        float64    `yaml:"fire_rate"`
	DamagePerHit    int        `yaml:"damage_per_hit"`
	PatrolSpeed     float64    `yaml:"patrol_speed"`
	ArriveThreshold float64    `yaml:"arrive_threshold"`
	// ReactionDelay is left nil to use the default.
	ReactionDelay *float64 `yaml:"reaction_delay"`
}

func LoadClassSpec(name string) (ClassSpec, error) {
	return loadNamed[ClassSpec]("classes", name)
}

// CameraClassSpec is a surveillance camera archetype.
type CameraClassSpec struct {
	Name               string     `yaml:"name"`
	MaxHealth          int        `yaml:"max_health"`
	Vision             VisionSpec `yaml:"vision"`
	RotateSpeed        float64    `yaml:"rotate_speed"`
	WallDetectDistance float64    `yaml:"wall_detect_distance"`
	WallLayers         []string   `yaml:"wall_layers"`
}

func LoadCameraClassSpec(name string) (CameraClassSpec, error) {
	return loadNamed[CameraClassSpec]("cameras", name)
}

type ObstacleSpec struct {
	Name  string      `yaml:"name"`
	Min   common.Vec3 `yaml:"min"`
	Max   common.Vec3 `yaml:"max"`
	Layer string      `yaml:"layer"`
	// Solid defaults to true.
	Solid *bool `yaml:"solid"`
}

// IsSolid reports whether movers collide with the obstacle.
func (o ObstacleSpec) IsSolid() bool {
	return o.Solid == nil || *o.Solid
}

type TargetSpec struct {
	Name      string      `yaml:"name"`
	Position  common.Vec3 `yaml:"position"`
	MaxHealth int         `yaml:"max_health"`
	Speed     float64     `yaml:"speed"`
}

type AgentSpec struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Class    string        `yaml:"class"`
	Position common.Vec3   `yaml:"position"`
	Forward  common.Vec3   `yaml:"forward"`
	Route    []common.Vec3 `yaml:"route"`
	// Overrides replaces class fields for this instance only, keyed by the
	// class's yaml names.
	Overrides map[string]any `yaml:"overrides"`
}

type CameraSpec struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Class    string      `yaml:"class"`
	Position common.Vec3 `yaml:"position"`
	// Yaw is the initial heading in degrees; 0 looks along +Z.
	Yaw float64 `yaml:"yaw"`
}

type SimSpec struct {
	TickRate float64 `yaml:"tick_rate"`
	Duration float64 `yaml:"duration"`
	// MaxAlive caps the number of live agents. 0 is unlimited.
	MaxAlive int `yaml:"max_alive"`
}

// LevelSpec is a complete simulation scene.
type LevelSpec struct {
	Name      string         `yaml:"name"`
	Layers    LayerTable     `yaml:"layers"`
	Obstacles []ObstacleSpec `yaml:"obstacles"`
	Target    TargetSpec     `yaml:"target"`
	Agents    []AgentSpec    `yaml:"agents"`
	Cameras   []CameraSpec   `yaml:"cameras"`
	Sim       SimSpec        `yaml:"sim"`
	Script    string         `yaml:"script"`
}

// LoadLevelSpec reads a level by name from levels/, or from a yaml file path
// on disk.
func LoadLevelSpec(ref string) (LevelSpec, error) {
	if isSpecFile(ref) {
		if data, err := os.ReadFile(ref); err == nil {
			var spec LevelSpec
			if err := yaml.Unmarshal(data, &spec); err != nil {
				return LevelSpec{}, fmt.Errorf("prefabs: unmarshal %s: %w", ref, err)
			}
			return spec, nil
		}
	}
	return loadNamed[LevelSpec]("levels", ref)
}

// LayerTable maps layer names to layer indices.
type LayerTable map[string]int

// DefaultLayers is used by levels that declare no layer table.
func DefaultLayers() LayerTable {
	return LayerTable{"default": 0, "wall": 1, "glass": 2}
}

// Index resolves a single layer name.
func (t LayerTable) Index(name string) (int, error) {
	idx, ok := t[name]
	if !ok {
		return 0, fmt.Errorf("%w %q (known: %s)", ErrUnknownLayer, name, strings.Join(t.Names(), ", "))
	}
	return idx, nil
}

// Mask resolves layer names into a bitmask.
func (t LayerTable) Mask(names []string) (common.LayerMask, error) {
	var mask common.LayerMask
	for _, name := range names {
		idx, err := t.Index(name)
		if err != nil {
			return 0, err
		}
		mask |= common.LayerBit(idx)
	}
	return mask, nil
}

// Names returns the table's layer names, sorted.
func (t LayerTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadNamed[T any](dir, name string) (T, error) {
	var zero T
	if name == "" {
		return zero, fmt.Errorf("prefabs: %s: empty name", dir)
	}
	file := name
	if !isSpecFile(file) {
		file += ".yaml"
	}
	if !strings.Contains(cleanPrefabPath(file), "/") {
		file = path.Join(dir, file)
	}
	spec, err := LoadSpec[T](file)
	if errors.Is(err, fs.ErrNotExist) && dir != "levels" {
		return zero, fmt.Errorf("%w %q in %s", ErrUnknownClass, name, dir)
	}
	return spec, err
}
