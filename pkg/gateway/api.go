package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chat"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chaterr"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/render"
)

const maxRequestBytes = 64 << 10

type messageView struct {
	Message chat.Message `json:"message"`
	Card    *plugin.Card `json:"card,omitempty"`
}

type messagesResponse struct {
	Messages []messageView `json:"messages"`
}

type sendRequest struct {
	Content string `json:"content"`
}

type pluginView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Command     string `json:"command"`
	Builtin     bool   `json:"builtin"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Handler returns the HTTP API: health probes plus the /api/v1 chat,
// plugin and event routes.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(s.cfg.Gateway.AllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/messages", func(r chi.Router) {
			r.Get("/", s.handleListMessages)
			r.Post("/", s.handleSendMessage)
		})
		r.Route("/plugins", func(r chi.Router) {
			r.Get("/", s.handleListPlugins)
			r.Route("/custom", func(r chi.Router) {
				r.Get("/", s.handleListCustomPlugins)
				r.Post("/", s.handleRegisterCustomPlugin)
				r.Post("/{command}/enable", s.handleSetEnabled(true))
				r.Post("/{command}/disable", s.handleSetEnabled(false))
			})
		})
		r.Get("/events", s.handleEvents)
	})

	return r
}

func allowedOrigins(configured []string) []string {
	origins := make([]string, 0, len(configured))
	for _, origin := range configured {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func (s *Service) handleListMessages(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, messagesResponse{Messages: s.views(s.session.Orchestrator.Messages())})
}

func (s *Service) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	appended, err := s.session.Send(r.Context(), req.Content)
	if errors.Is(err, chat.ErrBusy) {
		respondError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	respondJSON(w, http.StatusOK, messagesResponse{Messages: s.views(appended)})
}

func (s *Service) handleListPlugins(w http.ResponseWriter, _ *http.Request) {
	active := s.session.Registry.List()
	views := make([]pluginView, 0, len(active))
	for _, p := range active {
		views = append(views, pluginView{
			Name:        p.Name(),
			Description: p.Description(),
			Command:     p.Command(),
			Builtin:     s.session.Registry.IsBuiltin(p.Name()),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"plugins": views})
}

func (s *Service) handleListCustomPlugins(w http.ResponseWriter, r *http.Request) {
	descriptors, err := s.session.Registry.CustomPlugins(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"plugins": descriptors})
}

func (s *Service) handleRegisterCustomPlugin(w http.ResponseWriter, r *http.Request) {
	var desc plugin.Descriptor
	if err := decodeBody(w, r, &desc); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	desc = desc.Normalize()
	if err := s.session.Registry.Register(r.Context(), desc); err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	respondJSON(w, http.StatusCreated, desc)
}

func (s *Service) handleSetEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		command := chi.URLParam(r, "command")
		if err := s.session.Registry.SetEnabled(r.Context(), command, enabled); err != nil {
			respondError(w, statusFor(err), err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{"command": plugin.NormalizeCommand(command), "enabled": enabled})
	}
}

// handleEvents streams bus events as server-sent events until the client
// goes away or the service stops.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	events, unsubscribe := s.session.Events.Subscribe(r.Context(), 32)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				s.log.Error("Failed to encode event", "event_type", event.Type, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Service) views(messages []chat.Message) []messageView {
	views := make([]messageView, 0, len(messages))
	for _, msg := range messages {
		view := messageView{Message: msg}
		if card, ok := render.Card(msg, s.session.Registry); ok {
			view.Card = &card
		}
		views = append(views, view)
	}
	return views
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func statusFor(err error) int {
	switch chaterr.KindOf(err) {
	case chaterr.KindValidation:
		return http.StatusBadRequest
	case chaterr.KindLookup:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, err error) {
	body := errorResponse{Error: err.Error()}
	var categorized *chaterr.Error
	if errors.As(err, &categorized) {
		body.Kind = string(categorized.Kind)
	}
	respondJSON(w, status, body)
}
