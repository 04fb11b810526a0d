package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chaterr"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/command"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/store"
)

// Conversation is the append-only message history, written through to the
// store as a whole list on every append.
type Conversation struct {
	store store.Store
	log   *slog.Logger

	mu       sync.RWMutex
	messages []Message
}

// LoadConversation restores the stored history. A missing or empty history is
// seeded with the welcome message; an undecodable one is dropped and reseeded.
func LoadConversation(ctx context.Context, kv store.Store, log *slog.Logger) (*Conversation, error) {
	if log == nil {
		log = slog.Default()
	}

	c := &Conversation{store: kv, log: log.With("component", "chat.conversation")}

	raw, err := kv.Get(ctx, store.KeyConversation)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load conversation: %w", err)
	default:
		var messages []Message
		if err := json.Unmarshal(raw, &messages); err != nil {
			c.log.Warn("Resetting unreadable conversation", "error", chaterr.Persistence(store.KeyConversation, err))
			if err := kv.Delete(ctx, store.KeyConversation); err != nil {
				return nil, fmt.Errorf("clear conversation: %w", err)
			}
		} else {
			c.messages = messages
		}
	}

	if len(c.messages) == 0 {
		if err := c.Append(ctx, newTextMessage(SenderAssistant, command.WelcomeText)); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Messages returns a snapshot of the history in insertion order.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.messages)
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.messages)
}

// Append adds messages and persists the full history. The in-memory history
// keeps the messages even when the write fails.
func (c *Conversation) Append(ctx context.Context, messages ...Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, messages...)

	payload, err := json.Marshal(c.messages)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := c.store.Put(ctx, store.KeyConversation, payload); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}

	return nil
}
