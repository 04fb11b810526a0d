package chat

import (
	"context"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/bus"
)

const (
	SeverityDestructive = "destructive"
	SeverityWarning     = "warning"
)

// Notification is a user-visible error toast.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Notifier receives notifications fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// BusNotifier publishes notifications as bus events.
type BusNotifier struct {
	Bus *bus.Bus
}

func (b BusNotifier) Notify(ctx context.Context, n Notification) {
	if b.Bus == nil {
		return
	}

	b.Bus.Publish(ctx, bus.Event{
		Type: bus.EventNotification,
		Payload: map[string]string{
			bus.KeyTitle:       n.Title,
			bus.KeyDescription: n.Description,
			bus.KeySeverity:    n.Severity,
		},
	})
}

// NotificationFromEvent extracts a notification from a bus event.
func NotificationFromEvent(event bus.Event) (Notification, bool) {
	if event.Type != bus.EventNotification {
		return Notification{}, false
	}

	return Notification{
		Title:       event.Payload[bus.KeyTitle],
		Description: event.Payload[bus.KeyDescription],
		Severity:    event.Payload[bus.KeySeverity],
	}, true
}
