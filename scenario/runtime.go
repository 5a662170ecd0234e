package scenario

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/sentinel/ai"
	"github.com/milk9111/sentinel/common"
	"github.com/milk9111/sentinel/prefabs"
	"github.com/milk9111/sentinel/sim"
)

var ErrNoTick = errors.New("scenario: script defines no tick function")

// Host is the part of a running scene a script may drive.
type Host interface {
	Tick() uint64
	Elapsed() float64

	MoveTarget(pos common.Vec3) error
	WalkTarget(velocity common.Vec3) error
	TargetPosition() (common.Vec3, error)
	TargetHealth() (int, error)
	DamageTarget(amount int) (bool, error)
	HealTarget(amount int) error

	DamageAgent(name string, amount int) (bool, error)
	DamageCamera(name string, amount int) (bool, error)
	KillAgent(name string) error
	ReviveAgent(name string) error
	AgentState(name string) (ai.State, error)
	RaiseAlert(source string)
}

var _ Host = (*sim.World)(nil)

// scriptModules are the stdlib modules scripts may import. Modules that
// reach the OS, the clock, or a random source are left out so runs replay.
var scriptModules = []string{"math", "text", "fmt", "enum"}

// Runtime drives a scene from a tengo script. The script defines
//
//	setup := func(engine, state) { ... }    // optional, runs once
//	tick := func(engine, state, t) { ... }  // runs every tick
//
// state is a map that persists between calls.
type Runtime struct {
	name     string
	compiled *tengo.Compiled
	state    *tengo.Map
	hasSetup bool
	started  bool
	err      error
	logger   *slog.Logger
}

// Load compiles a script from prefabs/scripts.
func Load(name string, logger *slog.Logger) (*Runtime, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("scenario: load %s: %w", name, err)
	}
	return Compile(name, src, logger)
}

// Compile builds a runtime from source.
func Compile(name string, src []byte, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}

	probe, err := compile(string(src))
	if err != nil {
		return nil, fmt.Errorf("scenario: compile %s: %w", name, err)
	}
	if err := probe.Run(); err != nil {
		return nil, fmt.Errorf("scenario: run %s: %w", name, err)
	}
	if !probe.IsDefined("tick") {
		return nil, fmt.Errorf("%w: %s", ErrNoTick, name)
	}
	hasSetup := probe.IsDefined("setup")

	compiled, err := compile(string(src) + "\n" + dispatchScript(hasSetup))
	if err != nil {
		return nil, fmt.Errorf("scenario: compile %s: %w", name, err)
	}

	return &Runtime{
		name:     name,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
		hasSetup: hasSetup,
		logger:   logger.With("component", "scenario", "script", name),
	}, nil
}

func compile(src string) (*tengo.Compiled, error) {
	script := tengo.NewScript([]byte(src))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	_ = script.Add("__t", 0)
	script.SetImports(stdlib.GetModuleMap(scriptModules...))
	return script.Compile()
}

func dispatchScript(hasSetup bool) string {
	var b strings.Builder
	b.WriteString("if __phase == \"tick\" {\n\ttick(__engine, __state, __t)\n}")
	if hasSetup {
		b.WriteString(" else if __phase == \"setup\" {\n\tsetup(__engine, __state)\n}")
	}
	b.WriteString("\n")
	return b.String()
}

func (r *Runtime) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

// Err returns the error that stopped the script, if any.
func (r *Runtime) Err() error {
	if r == nil {
		return nil
	}
	return r.err
}

// State returns a copy of the script's persistent state.
func (r *Runtime) State() map[string]any {
	if r == nil || r.state == nil {
		return nil
	}
	out, _ := objectToAny(r.state).(map[string]any)
	return out
}

// Run calls setup on the first invocation and tick on every invocation.
// After a script error the runtime stays stopped and returns that error.
func (r *Runtime) Run(h Host) error {
	if r == nil || r.compiled == nil {
		return errors.New("scenario: nil runtime")
	}
	if r.err != nil {
		return r.err
	}
	engine := buildEngine(h, r.logger)
	if !r.started {
		r.started = true
		if r.hasSetup {
			if err := r.runPhase("setup", h.Tick(), engine); err != nil {
				r.err = fmt.Errorf("scenario: %s setup: %w", r.name, err)
				return r.err
			}
		}
	}
	if err := r.runPhase("tick", h.Tick(), engine); err != nil {
		r.err = fmt.Errorf("scenario: %s tick %d: %w", r.name, h.Tick(), err)
		return r.err
	}
	return nil
}

// Update implements sim.System.
func (r *Runtime) Update(w *sim.World, _ float64) {
	if r == nil || r.err != nil {
		return
	}
	if err := r.Run(w); err != nil {
		r.logger.Error("scenario stopped", "error", err)
	}
}

// runPhase runs one dispatch of the compiled script. A VM panic, such as an
// integer division by zero, is returned as an error.
func (r *Runtime) runPhase(phase string, tick uint64, engine *tengo.ImmutableMap) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("scenario: %s panic: %v", phase, p)
		}
	}()
	if err := r.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := r.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := r.compiled.Set("__state", r.state); err != nil {
		return err
	}
	if err := r.compiled.Set("__t", int64(tick)); err != nil {
		return err
	}
	return r.compiled.Run()
}
