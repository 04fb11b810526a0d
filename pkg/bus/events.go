package bus

import "time"

type EventType string

const (
	EventSendStarted     EventType = "send_started"
	EventSendRejected    EventType = "send_rejected"
	EventMessageAppended EventType = "message_appended"
	EventPluginFailed    EventType = "plugin_failed"
	EventSendCompleted   EventType = "send_completed"
	EventNotification    EventType = "notification"
)

// Payload keys used across event types.
const (
	KeyMessageID   = "message_id"
	KeySender      = "sender"
	KeyType        = "type"
	KeyPlugin      = "plugin"
	KeyRoute       = "route"
	KeyTitle       = "title"
	KeyDescription = "description"
	KeySeverity    = "severity"
	KeyDurationMS  = "duration_ms"
)

type Event struct {
	Type    EventType         `json:"type"`
	At      time.Time         `json:"at"`
	Payload map[string]string `json:"payload,omitempty"`
	Error   string            `json:"error,omitempty"`
}
