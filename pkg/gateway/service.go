// Package gateway serves the shared conversation over HTTP and runs the
// enabled channel adapters alongside it.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/channel"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/session"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/store"
)

const (
	storeCheckInterval = 30 * time.Second
	shutdownTimeout    = 5 * time.Second
)

type Service struct {
	cfg      *config.Config
	log      *slog.Logger
	session  *session.Session
	channels []channel.Adapter
	inbound  channel.Handler

	mu            sync.RWMutex
	startedAt     time.Time
	listening     bool
	storeLastOKAt time.Time
	storeLastErr  string
	channelStates map[string]channelState
}

type channelState struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Status        string                  `json:"status"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	StoreLastOKAt string                  `json:"store_last_ok_at,omitempty"`
	StoreLastErr  string                  `json:"store_last_error,omitempty"`
	Busy          bool                    `json:"busy"`
	Channels      map[string]channelState `json:"channels"`
}

// NewService wires the HTTP API and the adapters to one session. Adapters
// are optional; without them the gateway serves HTTP only.
func NewService(cfg *config.Config, sess *session.Session, adapters []channel.Adapter, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if sess == nil {
		return nil, errors.New("session is required")
	}
	if log == nil {
		log = slog.Default()
	}

	channelStates := make(map[string]channelState, len(adapters))
	for _, adapter := range adapters {
		channelStates[adapter.Name()] = channelState{}
	}

	return &Service{
		cfg:           cfg,
		log:           log.With("component", "gateway.service"),
		session:       sess,
		channels:      adapters,
		inbound:       channel.ChatHandler(sess.Orchestrator, sess.Registry),
		channelStates: channelStates,
	}, nil
}

// Run serves HTTP and runs every adapter until ctx is done or one of them
// fails.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	if err := s.checkStoreHealth(ctx); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", s.address())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.serve(gctx, listener)
	})

	g.Go(func() error {
		ticker := time.NewTicker(storeCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				_ = s.checkStoreHealth(gctx)
			}
		}
	})

	for _, adapter := range s.channels {
		s.setChannelState(adapter.Name(), channelState{Running: true})

		g.Go(func() error {
			err := adapter.Run(gctx, s.handleInbound)
			s.setChannelState(adapter.Name(), channelState{Running: false, Error: errorString(err)})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("run %s channel: %w", adapter.Name(), err)
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *Service) address() string {
	host := s.cfg.Gateway.Host
	if host == "" {
		host = config.DefaultGatewayHost
	}
	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = config.DefaultGatewayPort
	}

	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (s *Service) serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.setListening(true)
	defer s.setListening(false)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()
	s.log.Info("Gateway HTTP server started", "address", listener.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("Gateway HTTP shutdown incomplete", "error", err)
		}
		<-serveErr
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func (s *Service) handleInbound(ctx context.Context, inbound channel.InboundMessage) (channel.OutboundMessage, error) {
	return s.inbound(ctx, inbound)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	respondJSON(w, statusCode, s.currentStatus(status))
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	channels := make(map[string]channelState, len(s.channelStates))
	for name, state := range s.channelStates {
		channels[name] = state
	}

	storeLastOK := ""
	if !s.storeLastOKAt.IsZero() {
		storeLastOK = s.storeLastOKAt.Format(time.RFC3339)
	}

	return statusResponse{
		Status:        status,
		UptimeSeconds: uptime,
		StoreLastOKAt: storeLastOK,
		StoreLastErr:  s.storeLastErr,
		Busy:          s.session.Orchestrator.Busy(),
		Channels:      channels,
	}
}

// isReady requires a listening server, a healthy store and, when adapters
// are configured, at least one running channel.
func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.listening {
		return false
	}
	if s.storeLastOKAt.IsZero() || s.storeLastErr != "" {
		return false
	}
	if len(s.channelStates) == 0 {
		return true
	}

	for _, state := range s.channelStates {
		if state.Running {
			return true
		}
	}

	return false
}

// checkStoreHealth reads the conversation key; a missing key still counts as
// a reachable store.
func (s *Service) checkStoreHealth(ctx context.Context) error {
	_, err := s.session.Store.Get(ctx, store.KeyConversation)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.mu.Lock()
		s.storeLastErr = err.Error()
		s.mu.Unlock()
		return fmt.Errorf("store health check failed: %w", err)
	}

	s.mu.Lock()
	s.storeLastErr = ""
	s.storeLastOKAt = time.Now().UTC()
	s.mu.Unlock()

	return nil
}

func (s *Service) setListening(listening bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listening = listening
}

func (s *Service) setChannelState(name string, state channelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelStates[name] = state
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
