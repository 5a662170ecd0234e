package scenario

import (
	"log/slog"
	"strings"

	"github.com/d5/tengo/v2"

	"github.com/milk9111/sentinel/common"
)

func boolObject(v bool) tengo.Object {
	if v {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

func floatArg(args []tengo.Object, i int) (float64, bool) {
	if i >= len(args) {
		return 0, false
	}
	return tengo.ToFloat64(args[i])
}

func intArg(args []tengo.Object, i int) (int, bool) {
	if i >= len(args) {
		return 0, false
	}
	return tengo.ToInt(args[i])
}

func stringArg(args []tengo.Object, i int) string {
	if i >= len(args) {
		return ""
	}
	return strings.TrimSpace(objectAsString(args[i]))
}

func vecObject(v common.Vec3) tengo.Object {
	return &tengo.Array{Value: []tengo.Object{
		&tengo.Float{Value: v.X},
		&tengo.Float{Value: v.Y},
		&tengo.Float{Value: v.Z},
	}}
}

// planarArgs reads (x, z) with an optional third y.
func planarArgs(args []tengo.Object) (common.Vec3, bool) {
	x, okX := floatArg(args, 0)
	z, okZ := floatArg(args, 1)
	if !okX || !okZ {
		return common.Vec3{}, false
	}
	y, _ := floatArg(args, 2)
	return common.V3(x, y, z), true
}

func buildEngine(h Host, logger *slog.Logger) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	fail := func(fn string, err error) (tengo.Object, error) {
		logger.Warn("engine call failed", "func", fn, "error", err)
		return tengo.FalseValue, nil
	}

	values["tick"] = &tengo.UserFunction{Name: "tick", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(h.Tick())}, nil
	}}

	values["time"] = &tengo.UserFunction{Name: "time", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: h.Elapsed()}, nil
	}}

	values["move_target"] = &tengo.UserFunction{Name: "move_target", Value: func(args ...tengo.Object) (tengo.Object, error) {
		pos, ok := planarArgs(args)
		if !ok {
			return tengo.FalseValue, nil
		}
		if err := h.MoveTarget(pos); err != nil {
			return fail("move_target", err)
		}
		return tengo.TrueValue, nil
	}}

	values["walk_target"] = &tengo.UserFunction{Name: "walk_target", Value: func(args ...tengo.Object) (tengo.Object, error) {
		vx, okX := floatArg(args, 0)
		vz, okZ := floatArg(args, 1)
		if !okX || !okZ {
			return tengo.FalseValue, nil
		}
		if err := h.WalkTarget(common.V3(vx, 0, vz)); err != nil {
			return fail("walk_target", err)
		}
		return tengo.TrueValue, nil
	}}

	values["target_position"] = &tengo.UserFunction{Name: "target_position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		pos, err := h.TargetPosition()
		if err != nil {
			return tengo.UndefinedValue, nil
		}
		return vecObject(pos), nil
	}}

	values["target_health"] = &tengo.UserFunction{Name: "target_health", Value: func(args ...tengo.Object) (tengo.Object, error) {
		hp, err := h.TargetHealth()
		if err != nil {
			return tengo.UndefinedValue, nil
		}
		return &tengo.Int{Value: int64(hp)}, nil
	}}

	values["damage_target"] = &tengo.UserFunction{Name: "damage_target", Value: func(args ...tengo.Object) (tengo.Object, error) {
		amount, ok := intArg(args, 0)
		if !ok {
			return tengo.FalseValue, nil
		}
		hit, err := h.DamageTarget(amount)
		if err != nil {
			return fail("damage_target", err)
		}
		return boolObject(hit), nil
	}}

	values["heal_target"] = &tengo.UserFunction{Name: "heal_target", Value: func(args ...tengo.Object) (tengo.Object, error) {
		amount, ok := intArg(args, 0)
		if !ok {
			return tengo.FalseValue, nil
		}
		if err := h.HealTarget(amount); err != nil {
			return fail("heal_target", err)
		}
		return tengo.TrueValue, nil
	}}

	values["damage_agent"] = &tengo.UserFunction{Name: "damage_agent", Value: func(args ...tengo.Object) (tengo.Object, error) {
		name := stringArg(args, 0)
		amount, ok := intArg(args, 1)
		if name == "" || !ok {
			return tengo.FalseValue, nil
		}
		hit, err := h.DamageAgent(name, amount)
		if err != nil {
			return fail("damage_agent", err)
		}
		return boolObject(hit), nil
	}}

	values["damage_camera"] = &tengo.UserFunction{Name: "damage_camera", Value: func(args ...tengo.Object) (tengo.Object, error) {
		name := stringArg(args, 0)
		amount, ok := intArg(args, 1)
		if name == "" || !ok {
			return tengo.FalseValue, nil
		}
		hit, err := h.DamageCamera(name, amount)
		if err != nil {
			return fail("damage_camera", err)
		}
		return boolObject(hit), nil
	}}

	values["kill"] = &tengo.UserFunction{Name: "kill", Value: func(args ...tengo.Object) (tengo.Object, error) {
		name := stringArg(args, 0)
		if name == "" {
			return tengo.FalseValue, nil
		}
		if err := h.KillAgent(name); err != nil {
			return fail("kill", err)
		}
		return tengo.TrueValue, nil
	}}

	values["revive"] = &tengo.UserFunction{Name: "revive", Value: func(args ...tengo.Object) (tengo.Object, error) {
		name := stringArg(args, 0)
		if name == "" {
			return tengo.FalseValue, nil
		}
		if err := h.ReviveAgent(name); err != nil {
			return fail("revive", err)
		}
		return tengo.TrueValue, nil
	}}

	values["state"] = &tengo.UserFunction{Name: "state", Value: func(args ...tengo.Object) (tengo.Object, error) {
		name := stringArg(args, 0)
		state, err := h.AgentState(name)
		if err != nil {
			return tengo.UndefinedValue, nil
		}
		return &tengo.String{Value: state.String()}, nil
	}}

	values["alert"] = &tengo.UserFunction{Name: "alert", Value: func(args ...tengo.Object) (tengo.Object, error) {
		source := stringArg(args, 0)
		if source == "" {
			source = "script"
		}
		h.RaiseAlert(source)
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, arg := range args {
			parts = append(parts, objectAsString(arg))
		}
		logger.Info(strings.Join(parts, " "), "tick", h.Tick())
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}

	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return int(v.Value)
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Map:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}
