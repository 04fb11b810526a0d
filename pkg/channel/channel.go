// Package channel connects external transports to the single shared
// conversation.
package channel

import (
	"context"
	"errors"
	"strings"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chat"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/render"
)

// BusyReply is sent back when the conversation is already processing a message.
const BusyReply = "I'm still working on the previous message. Please try again in a moment."

// InboundMessage is one text message received by an adapter.
type InboundMessage struct {
	Channel  string
	SenderID string
	ChatID   string
	Content  string
	Metadata map[string]string
}

// OutboundMessage is the reply an adapter delivers back to its chat.
type OutboundMessage struct {
	Content string
	Error   string
}

// Handler processes one inbound channel message and returns an outbound reply.
type Handler func(context.Context, InboundMessage) (OutboundMessage, error)

// Adapter bridges one external transport (for example Telegram) into the hub.
type Adapter interface {
	Name() string
	Run(context.Context, Handler) error
}

// Sender is the orchestrator surface adapters feed.
type Sender interface {
	Send(ctx context.Context, content string) ([]chat.Message, error)
}

// ChatHandler sends inbound content through the orchestrator and flattens the
// assistant reply to plain text.
func ChatHandler(sender Sender, plugins render.Resolver) Handler {
	return func(ctx context.Context, in InboundMessage) (OutboundMessage, error) {
		content := strings.TrimSpace(in.Content)
		if content == "" {
			return OutboundMessage{}, nil
		}

		appended, err := sender.Send(ctx, content)
		if errors.Is(err, chat.ErrBusy) {
			return OutboundMessage{Content: BusyReply}, nil
		}
		if err != nil {
			return OutboundMessage{}, err
		}
		if len(appended) == 0 {
			return OutboundMessage{}, nil
		}

		reply := appended[len(appended)-1]
		return OutboundMessage{Content: render.PlainText(reply, plugins)}, nil
	}
}
