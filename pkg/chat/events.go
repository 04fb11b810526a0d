package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/bus"
)

// ObserveEvents logs bus events until ctx is done or the bus closes.
func ObserveEvents(ctx context.Context, events *bus.Bus, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "bus.events")

	ch, unsubscribe := events.Subscribe(ctx, 32)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			logEvent(log, event)
		}
	}
}

func logEvent(log *slog.Logger, event bus.Event) {
	attrs := []any{
		"event_type", event.Type,
		"timestamp", event.At.UTC().Format(time.RFC3339Nano),
	}
	if len(event.Payload) > 0 {
		attrs = append(attrs, "payload", event.Payload)
	}

	switch event.Type {
	case bus.EventPluginFailed:
		log.Error("Chat event", append(attrs, "error", event.Error)...)
	case bus.EventSendRejected, bus.EventNotification:
		log.Warn("Chat event", attrs...)
	case bus.EventSendStarted, bus.EventSendCompleted:
		log.Info("Chat event", attrs...)
	default:
		log.Debug("Chat event", attrs...)
	}
}
