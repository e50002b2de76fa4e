package rehearse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rehearse-dev/rehearse/internal/adapters/memory"
	"github.com/rehearse-dev/rehearse/internal/lifecycle"
	"github.com/rehearse-dev/rehearse/internal/logging"
	"github.com/rehearse-dev/rehearse/internal/metrics"
	"github.com/rehearse-dev/rehearse/internal/runtime"
	"github.com/rehearse-dev/rehearse/pkg/domain"
	"github.com/rehearse-dev/rehearse/pkg/ports"
	"github.com/rehearse-dev/rehearse/pkg/session"
	"github.com/rehearse-dev/rehearse/pkg/validator"
)

// Service is the high-level entry point for the Rehearse library. It
// wires the validator, lifecycle manager and session runtime over
// pluggable stores.
type Service struct {
	flows     ports.FlowStore
	sessions  ports.SessionStore
	locker    ports.DistributedLocker
	lifecycle *lifecycle.Manager
	manager   *session.Manager
	engine    *runtime.Engine
	logger    *slog.Logger
	newID     domain.IDFunc
	clock     domain.ClockFunc
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithFlowStore injects a flow document store (default: in-memory).
func WithFlowStore(store ports.FlowStore) Option {
	return func(s *Service) { s.flows = store }
}

// WithSessionStore injects a session store (default: in-memory).
func WithSessionStore(store ports.SessionStore) Option {
	return func(s *Service) { s.sessions = store }
}

// WithLocker enables distributed session locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Service) { s.locker = locker }
}

// WithLogger sets a structured logger for all components.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithIDFunc overrides identifier generation everywhere (deterministic
// tests).
func WithIDFunc(f domain.IDFunc) Option {
	return func(s *Service) { s.newID = f }
}

// WithClock overrides the time source everywhere.
func WithClock(c domain.ClockFunc) Option {
	return func(s *Service) { s.clock = c }
}

// New initializes a Rehearse Service. Without options it runs fully
// in-memory, which suits tests and the CLI preview mode.
func New(opts ...Option) *Service {
	metrics.Init()

	s := &Service{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.flows == nil {
		s.flows = memory.NewFlowStore()
	}
	if s.sessions == nil {
		s.sessions = memory.NewSessionStore()
	}

	lcOpts := []lifecycle.Option{lifecycle.WithLogger(s.logger)}
	rtOpts := []runtime.Option{runtime.WithLogger(s.logger)}
	if s.newID != nil {
		lcOpts = append(lcOpts, lifecycle.WithIDFunc(s.newID))
		rtOpts = append(rtOpts, runtime.WithIDFunc(s.newID))
	}
	if s.clock != nil {
		lcOpts = append(lcOpts, lifecycle.WithClock(s.clock))
		rtOpts = append(rtOpts, runtime.WithClock(s.clock))
	}
	s.lifecycle = lifecycle.NewManager(s.flows, lcOpts...)
	s.engine = runtime.NewEngine(rtOpts...)

	mgrOpts := []session.Option{session.WithLogger(s.logger)}
	if s.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(s.locker))
	}
	s.manager = session.NewManager(s.sessions, mgrOpts...)

	return s
}

// Validate checks a candidate graph's structural soundness. The editor
// and the publish gate share this exact function.
func (s *Service) Validate(nodes []domain.Node, edges []domain.Edge) validator.Result {
	res := validator.Validate(nodes, edges)
	if !res.IsValid {
		metrics.ValidationFailure()
	}
	return res
}

// CreateDraft creates a new draft flow for a trainer.
func (s *Service) CreateDraft(ctx context.Context, trainerID, name string, nodes []domain.Node, edges []domain.Edge, settings domain.Settings) (domain.Flow, error) {
	return s.lifecycle.CreateDraft(ctx, trainerID, name, nodes, edges, settings)
}

// UpdateDraft merges partial fields into a draft flow.
func (s *Service) UpdateDraft(ctx context.Context, flowID string, update lifecycle.Update) (domain.Flow, error) {
	return s.lifecycle.UpdateDraft(ctx, flowID, update)
}

// Publish promotes a flow to the trainer's single published version.
func (s *Service) Publish(ctx context.Context, flowID, publishedBy string) (domain.Flow, error) {
	return s.lifecycle.Publish(ctx, flowID, publishedBy)
}

// Demote returns a published flow to draft.
func (s *Service) Demote(ctx context.Context, flowID string) (domain.Flow, error) {
	return s.lifecycle.Demote(ctx, flowID)
}

// DeleteFlow removes a flow; published flows must be demoted first.
func (s *Service) DeleteFlow(ctx context.Context, flowID string) error {
	return s.lifecycle.Delete(ctx, flowID)
}

// GetFlow retrieves a flow by id.
func (s *Service) GetFlow(ctx context.Context, flowID string) (domain.Flow, error) {
	return s.lifecycle.Get(ctx, flowID)
}

// ListFlows returns a trainer's flows, newest first.
func (s *Service) ListFlows(ctx context.Context, trainerID string) ([]domain.Flow, error) {
	return s.lifecycle.List(ctx, trainerID)
}

// ResolveLatest returns the flow a new session should run: the newest
// flow with the preferred status when given, else newest draft, else
// newest published.
func (s *Service) ResolveLatest(ctx context.Context, trainerID string, prefer *domain.FlowStatus) (domain.Flow, error) {
	return s.lifecycle.ResolveLatest(ctx, trainerID, prefer)
}

// StartSession resolves the trainer's current flow and opens a session
// on it, returning the session with the opening message appended.
func (s *Service) StartSession(ctx context.Context, trainerID, userID string, prefer *domain.FlowStatus) (domain.Session, error) {
	flow, err := s.lifecycle.ResolveLatest(ctx, trainerID, prefer)
	if err != nil {
		return domain.Session{}, fmt.Errorf("resolve flow: %w", err)
	}

	sess, err := s.engine.Start(trainerID, userID, flow)
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.manager.Save(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}
	metrics.SessionStarted()
	return sess, nil
}

// SendMessage runs one conversation turn for the session, serialized per
// session id. Callers must deduplicate retries at the transport layer;
// re-sending the same call appends the user message twice.
func (s *Service) SendMessage(ctx context.Context, sessionID, text string) (runtime.Turn, error) {
	var turn runtime.Turn
	_, err := s.manager.Mutate(ctx, sessionID, func(ctx context.Context, sess *domain.Session) error {
		flow, err := s.flows.GetFlow(ctx, sess.FlowID)
		if err != nil {
			return fmt.Errorf("load flow %s: %w", sess.FlowID, err)
		}
		turn, err = s.engine.Advance(sess, flow, text)
		return err
	})
	if err != nil {
		return runtime.Turn{}, err
	}
	metrics.SessionTurn(string(turn.Status))
	return turn, nil
}

// CompleteSession ends a session early (inactivity timeout, manual end).
func (s *Service) CompleteSession(ctx context.Context, sessionID string) (domain.Session, error) {
	return s.manager.Mutate(ctx, sessionID, func(ctx context.Context, sess *domain.Session) error {
		s.engine.Complete(sess)
		return nil
	})
}

// GetSession retrieves a session by id.
func (s *Service) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	return s.manager.Get(ctx, sessionID)
}

// ListSessions returns the ids of stored sessions.
func (s *Service) ListSessions(ctx context.Context) ([]string, error) {
	return s.manager.List(ctx)
}
