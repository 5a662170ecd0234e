package component

import "github.com/milk9111/sentinel/common"

// Faction identifies who dealt a hit.
type Faction int

const (
	FactionNeutral Faction = iota
	FactionPlayer
	FactionEnemy
	FactionEnvironment
)

func (f Faction) String() string {
	switch f {
	case FactionPlayer:
		return "player"
	case FactionEnemy:
		return "enemy"
	case FactionEnvironment:
		return "environment"
	default:
		return "neutral"
	}
}

// CombatEventType defines the kind of combat event.
type CombatEventType string

const (
	EventHit   CombatEventType = "hit"
	EventDeath CombatEventType = "death"
)

// CombatEvent describes a single hit delivered to a Health.
type CombatEvent struct {
	Type       CombatEventType
	AttackerID string
	TargetID   string
	Faction    Faction
	Damage     int
	Tick       uint64
	Pos        common.Vec3
}

// CombatEventHandler handles combat events.
type CombatEventHandler func(evt CombatEvent)

// CombatEventEmitter fans combat events out to diagnostic listeners.
type CombatEventEmitter struct {
	Handlers []CombatEventHandler
}

// Emit sends a combat event to all handlers.
func (e *CombatEventEmitter) Emit(evt CombatEvent) {
	if e == nil || len(e.Handlers) == 0 {
		return
	}
	for _, h := range e.Handlers {
		if h != nil {
			h(evt)
		}
	}
}
