// Package session assembles one running hub: store, plugin registry,
// conversation, event bus and orchestrator. Every surface (terminal UI,
// gateway, Telegram, one-shot CLI) drives the same Session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/bus"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chat"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/registry"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/store"
)

// Options tweaks how Start wires a session.
type Options struct {
	// Store overrides the configured storage backend. The session does not
	// close a store it did not open.
	Store store.Store
	// HTTPClient is shared by the network-backed plugins.
	HTTPClient *http.Client
	// ObserveEvents logs every bus event.
	ObserveEvents bool
}

// Session owns the process-wide chat state.
type Session struct {
	Store        store.Store
	Registry     *registry.Registry
	Conversation *chat.Conversation
	Orchestrator *chat.Orchestrator
	Events       *bus.Bus

	log        *slog.Logger
	ownsStore  bool
	cancelObs  context.CancelFunc
	observerWG chan struct{}
}

// Start opens storage, loads the custom plugins and the stored conversation,
// and returns a ready orchestrator.
func Start(ctx context.Context, cfg *config.Config, log *slog.Logger, opts Options) (*Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		log = slog.Default()
	}

	kv := opts.Store
	ownsStore := false
	if kv == nil {
		opened, err := store.Open(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		kv = opened
		ownsStore = true
	}

	closeOnErr := func(err error) (*Session, error) {
		if ownsStore {
			_ = kv.Close()
		}
		return nil, err
	}

	builtins := plugin.Builtins(plugin.Options{
		Config:     cfg.Plugins,
		Store:      kv,
		HTTPClient: opts.HTTPClient,
	})
	reg := registry.New(kv, builtins, log)
	if err := reg.Load(ctx); err != nil {
		return closeOnErr(fmt.Errorf("load plugins: %w", err))
	}

	conversation, err := chat.LoadConversation(ctx, kv, log)
	if err != nil {
		return closeOnErr(err)
	}

	events := bus.New()
	orchestrator := chat.NewOrchestrator(conversation, reg, chat.Options{
		ReplyDelay: replyDelay(cfg.Chat.ReplyDelayMillis),
		Notifier:   chat.BusNotifier{Bus: events},
		Bus:        events,
		Log:        log,
	})

	s := &Session{
		Store:        kv,
		Registry:     reg,
		Conversation: conversation,
		Orchestrator: orchestrator,
		Events:       events,
		log:          log.With("component", "session"),
		ownsStore:    ownsStore,
		cancelObs:    func() {},
	}

	if opts.ObserveEvents {
		obsCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.cancelObs = cancel
		s.observerWG = make(chan struct{})
		go func() {
			defer close(s.observerWG)
			chat.ObserveEvents(obsCtx, events, log)
		}()
	}

	s.log.Debug("Session started", "plugins", len(reg.List()), "messages", conversation.Len())
	return s, nil
}

// Send forwards to the orchestrator.
func (s *Session) Send(ctx context.Context, content string) ([]chat.Message, error) {
	return s.Orchestrator.Send(ctx, content)
}

// Close stops the event observer, closes the bus and releases the store if
// the session opened it.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}

	s.cancelObs()
	s.Events.Close()
	if s.observerWG != nil {
		<-s.observerWG
	}

	if !s.ownsStore {
		return nil
	}
	if err := s.Store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

func replyDelay(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
