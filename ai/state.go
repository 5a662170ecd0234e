package ai

import "fmt"

// State is the behavioral state of an agent. Exactly one is active at a time.
type State int

const (
	StateIdle State = iota
	StatePatrol
	StateAlert
	StateChase
	StateDamage
	StateDead
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePatrol:
		return "patrol"
	case StateAlert:
		return "alert"
	case StateChase:
		return "chase"
	case StateDamage:
		return "damage"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Alerted reports whether the agent is already reacting to the target.
func (s State) Alerted() bool {
	return s == StateAlert || s == StateChase
}

// Perceives reports whether perception runs in this state.
func (s State) Perceives() bool {
	switch s {
	case StateIdle, StatePatrol, StateAlert, StateChase:
		return true
	}
	return false
}

// Engages reports whether engagement is attempted in this state.
func (s State) Engages() bool {
	return s.Alerted()
}

// ParseState maps a label back to its State.
func ParseState(label string) (State, bool) {
	for s := StateIdle; s <= StateDead; s++ {
		if s.String() == label {
			return s, true
		}
	}
	return StateIdle, false
}

// MarshalText encodes the state as its label.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	parsed, ok := ParseState(string(text))
	if !ok {
		return fmt.Errorf("ai: unknown state %q", text)
	}
	*s = parsed
	return nil
}
