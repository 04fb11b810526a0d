package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

type MessageType string

const (
	TypeText   MessageType = "text"
	TypePlugin MessageType = "plugin"
)

// Message is one entry of the conversation. PluginName and PluginData are set
// exactly when Type is TypePlugin.
type Message struct {
	ID         string
	Sender     Sender
	Content    string
	Type       MessageType
	PluginName string
	PluginData plugin.Result
	Timestamp  time.Time
}

type wireMessage struct {
	ID         string          `json:"id"`
	Sender     Sender          `json:"sender"`
	Content    string          `json:"content"`
	Type       MessageType     `json:"type"`
	PluginName string          `json:"pluginName,omitempty"`
	PluginData json.RawMessage `json:"pluginData,omitempty"`
	Timestamp  string          `json:"timestamp"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	wire := wireMessage{
		ID:         m.ID,
		Sender:     m.Sender,
		Content:    m.Content,
		Type:       m.Type,
		PluginName: m.PluginName,
		Timestamp:  m.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if m.PluginData != nil {
		raw, err := json.Marshal(m.PluginData)
		if err != nil {
			return nil, fmt.Errorf("encode plugin data: %w", err)
		}
		wire.PluginData = raw
	}

	return json.Marshal(wire)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	at, err := time.Parse(time.RFC3339Nano, wire.Timestamp)
	if err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}

	msg := Message{
		ID:         wire.ID,
		Sender:     wire.Sender,
		Content:    wire.Content,
		Type:       wire.Type,
		PluginName: wire.PluginName,
		Timestamp:  at,
	}

	if msg.Type == TypePlugin {
		if msg.PluginName == "" || len(wire.PluginData) == 0 {
			return fmt.Errorf("plugin message %s lacks plugin name or data", msg.ID)
		}
		result, err := plugin.DecodeResult(msg.PluginName, wire.PluginData)
		if err != nil {
			return err
		}
		msg.PluginData = result
	}

	*m = msg
	return nil
}

func newTextMessage(sender Sender, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Content:   content,
		Type:      TypeText,
		Timestamp: time.Now().UTC(),
	}
}

func newPluginMessage(content, pluginName string, data plugin.Result) Message {
	msg := newTextMessage(SenderAssistant, content)
	msg.Type = TypePlugin
	msg.PluginName = pluginName
	msg.PluginData = data
	return msg
}
