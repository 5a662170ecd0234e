package ai

import (
	"log/slog"

	"github.com/milk9111/sentinel/common"
)

// AlertOrigin identifies who raised an alert.
type AlertOrigin struct {
	Source   string
	Position common.Vec3
}

// AlertListener receives alert notifications.
type AlertListener interface {
	HandleAlert(origin AlertOrigin)
}

// AlertBus fans an alert out to every subscribed listener. It is shared by
// all agents of a simulation and injected at construction.
type AlertBus struct {
	subscribers []AlertListener
	published   int
	logger      *slog.Logger
}

// NewAlertBus creates an empty bus. A nil logger falls back to slog.Default.
func NewAlertBus(logger *slog.Logger) *AlertBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertBus{logger: logger.With("component", "alert_bus")}
}

// Subscribe adds l. Subscribing twice is a no-op.
func (b *AlertBus) Subscribe(l AlertListener) {
	if b == nil || l == nil {
		return
	}
	for _, s := range b.subscribers {
		if s == l {
			return
		}
	}
	b.subscribers = append(b.subscribers, l)
}

// Unsubscribe removes l if present.
func (b *AlertBus) Unsubscribe(l AlertListener) {
	if b == nil || l == nil {
		return
	}
	for i, s := range b.subscribers {
		if s != l {
			continue
		}
		// copy so a snapshot held by an in-flight Publish stays intact
		next := make([]AlertListener, 0, len(b.subscribers)-1)
		next = append(next, b.subscribers[:i]...)
		next = append(next, b.subscribers[i+1:]...)
		b.subscribers = next
		return
	}
}

// Subscribed reports whether l currently receives alerts.
func (b *AlertBus) Subscribed(l AlertListener) bool {
	if b == nil {
		return false
	}
	for _, s := range b.subscribers {
		if s == l {
			return true
		}
	}
	return false
}

// Len returns the number of current subscribers.
func (b *AlertBus) Len() int {
	if b == nil {
		return 0
	}
	return len(b.subscribers)
}

// Publish notifies every current subscriber before returning. Listeners added
// or removed during delivery do not change who is notified by this call.
func (b *AlertBus) Publish(origin AlertOrigin) {
	if b == nil {
		return
	}
	b.published++
	snapshot := b.subscribers
	b.logger.Info("global alert", "source", origin.Source, "subscribers", len(snapshot))
	for _, l := range snapshot {
		l.HandleAlert(origin)
	}
}

// Published returns how many times Publish has been called.
func (b *AlertBus) Published() int {
	if b == nil {
		return 0
	}
	return b.published
}
