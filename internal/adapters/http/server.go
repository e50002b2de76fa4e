// Package http exposes the Rehearse engine as a JSON REST API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rehearse-dev/rehearse/internal/lifecycle"
	"github.com/rehearse-dev/rehearse/internal/logging"
	"github.com/rehearse-dev/rehearse/internal/metrics"
	"github.com/rehearse-dev/rehearse/internal/runtime"
	"github.com/rehearse-dev/rehearse/pkg/domain"
	"github.com/rehearse-dev/rehearse/pkg/validator"
)

// Service defines the engine surface the HTTP adapter needs.
type Service interface {
	Validate(nodes []domain.Node, edges []domain.Edge) validator.Result

	CreateDraft(ctx context.Context, trainerID, name string, nodes []domain.Node, edges []domain.Edge, settings domain.Settings) (domain.Flow, error)
	UpdateDraft(ctx context.Context, flowID string, update lifecycle.Update) (domain.Flow, error)
	Publish(ctx context.Context, flowID, publishedBy string) (domain.Flow, error)
	Demote(ctx context.Context, flowID string) (domain.Flow, error)
	DeleteFlow(ctx context.Context, flowID string) error
	GetFlow(ctx context.Context, flowID string) (domain.Flow, error)
	ListFlows(ctx context.Context, trainerID string) ([]domain.Flow, error)
	ResolveLatest(ctx context.Context, trainerID string, prefer *domain.FlowStatus) (domain.Flow, error)

	StartSession(ctx context.Context, trainerID, userID string, prefer *domain.FlowStatus) (domain.Session, error)
	SendMessage(ctx context.Context, sessionID, text string) (runtime.Turn, error)
	CompleteSession(ctx context.Context, sessionID string) (domain.Session, error)
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
}

// Server holds the HTTP handlers.
type Server struct {
	service Service
	logger  *slog.Logger
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(service Service, logger *slog.Logger) http.Handler {
	metrics.Init()
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{service: service, logger: logger}

	r := chi.NewRouter()
	r.Use(timing)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", metrics.Handler())

	r.Post("/validate", s.validate)

	r.Route("/flows", func(r chi.Router) {
		r.Post("/", s.createDraft)
		r.Get("/{flowID}", s.getFlow)
		r.Patch("/{flowID}", s.updateDraft)
		r.Delete("/{flowID}", s.deleteFlow)
		r.Post("/{flowID}/publish", s.publish)
		r.Post("/{flowID}/demote", s.demote)
	})

	r.Route("/trainers/{trainerID}/flows", func(r chi.Router) {
		r.Get("/", s.listFlows)
		r.Get("/latest", s.resolveLatest)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.startSession)
		r.Get("/{sessionID}", s.getSession)
		r.Post("/{sessionID}/complete", s.completeSession)
	})

	// Turn endpoint: request carries {sessionId, message}.
	r.Post("/messages", s.sendMessage)

	return r
}

// timing records request durations against the chi route pattern.
func timing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = r.URL.Path
		}
		metrics.ObserveHTTP(r.Method, pattern, time.Since(start).Seconds())
	})
}

// -- Handlers --

type validateRequest struct {
	Nodes []domain.Node `json:"nodes"`
	Edges []domain.Edge `json:"edges"`
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	var body validateRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.respond(w, http.StatusOK, s.service.Validate(body.Nodes, body.Edges))
}

type createDraftRequest struct {
	TrainerID string          `json:"trainerId"`
	Name      string          `json:"name"`
	Nodes     []domain.Node   `json:"nodes"`
	Edges     []domain.Edge   `json:"edges"`
	Settings  domain.Settings `json:"settings"`
}

func (s *Server) createDraft(w http.ResponseWriter, r *http.Request) {
	var body createDraftRequest
	if !s.decode(w, r, &body) {
		return
	}
	flow, err := s.service.CreateDraft(r.Context(), body.TrainerID, body.Name, body.Nodes, body.Edges, body.Settings)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusCreated, flow)
}

type updateDraftRequest struct {
	Name     *string          `json:"name,omitempty"`
	Nodes    *[]domain.Node   `json:"nodes,omitempty"`
	Edges    *[]domain.Edge   `json:"edges,omitempty"`
	Settings *domain.Settings `json:"settings,omitempty"`
}

func (s *Server) updateDraft(w http.ResponseWriter, r *http.Request) {
	var body updateDraftRequest
	if !s.decode(w, r, &body) {
		return
	}
	flow, err := s.service.UpdateDraft(r.Context(), chi.URLParam(r, "flowID"), lifecycle.Update{
		Name:     body.Name,
		Nodes:    body.Nodes,
		Edges:    body.Edges,
		Settings: body.Settings,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, flow)
}

func (s *Server) getFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := s.service.GetFlow(r.Context(), chi.URLParam(r, "flowID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, flow)
}

func (s *Server) deleteFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteFlow(r.Context(), chi.URLParam(r, "flowID")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type publishRequest struct {
	PublishedBy string `json:"publishedBy"`
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request) {
	var body publishRequest
	if !s.decode(w, r, &body) {
		return
	}
	flow, err := s.service.Publish(r.Context(), chi.URLParam(r, "flowID"), body.PublishedBy)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, flow)
}

func (s *Server) demote(w http.ResponseWriter, r *http.Request) {
	flow, err := s.service.Demote(r.Context(), chi.URLParam(r, "flowID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, flow)
}

func (s *Server) listFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := s.service.ListFlows(r.Context(), chi.URLParam(r, "trainerID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, flows)
}

func (s *Server) resolveLatest(w http.ResponseWriter, r *http.Request) {
	prefer := statusFilter(r.URL.Query().Get("status"))
	flow, err := s.service.ResolveLatest(r.Context(), chi.URLParam(r, "trainerID"), prefer)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, flow)
}

type startSessionRequest struct {
	TrainerID string `json:"trainerId"`
	UserID    string `json:"userId"`
	// Status selects draft (preview) or published explicitly; empty means
	// newest draft, else newest published.
	Status string `json:"status,omitempty"`
}

type sessionResponse struct {
	Session   domain.Session `json:"session"`
	AIMessage *aiMessage     `json:"aiMessage,omitempty"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var body startSessionRequest
	if !s.decode(w, r, &body) {
		return
	}
	sess, err := s.service.StartSession(r.Context(), body.TrainerID, body.UserID, statusFilter(body.Status))
	if err != nil {
		s.fail(w, err)
		return
	}
	resp := sessionResponse{Session: sess}
	if len(sess.Conversation) > 0 {
		m := toAIMessage(sess.Conversation[len(sess.Conversation)-1])
		resp.AIMessage = &m
	}
	s.respond(w, http.StatusCreated, resp)
}

type turnRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// aiMessage is the wire shape of an outbound message.
type aiMessage struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	NodeID    string    `json:"nodeId"`
	Timestamp time.Time `json:"timestamp"`
	MediaURL  string    `json:"mediaUrl,omitempty"`
}

type turnResponse struct {
	AIMessage aiMessage            `json:"aiMessage"`
	Status    domain.SessionStatus `json:"status"`
}

func toAIMessage(m domain.Message) aiMessage {
	return aiMessage{
		ID:        m.ID,
		Type:      "ai",
		Content:   m.Content,
		NodeID:    m.NodeID,
		Timestamp: m.Timestamp,
		MediaURL:  m.MediaURL,
	}
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var body turnRequest
	if !s.decode(w, r, &body) {
		return
	}
	turn, err := s.service.SendMessage(r.Context(), body.SessionID, body.Message)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, turnResponse{
		AIMessage: toAIMessage(turn.AIMessage),
		Status:    turn.Status,
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, sess)
}

func (s *Server) completeSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.CompleteSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, sess)
}

// -- Helpers --

func statusFilter(s string) *domain.FlowStatus {
	switch domain.FlowStatus(s) {
	case domain.StatusDraft, domain.StatusPublished:
		status := domain.FlowStatus(s)
		return &status
	}
	return nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

type errorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, errs []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg, Errors: errs})
}

// fail maps domain errors to HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationFailedError
	switch {
	case errors.As(err, &vErr):
		s.writeError(w, http.StatusUnprocessableEntity, "flow validation failed", vErr.Errors)
	case errors.Is(err, domain.ErrFlowNotFound), errors.Is(err, domain.ErrSessionNotFound):
		s.writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrFlowPublished):
		s.writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		s.logger.Error("request failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}
