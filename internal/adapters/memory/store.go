// Package memory provides in-memory stores for flows and sessions.
// They back tests and the CLI preview mode; production deployments use
// the redis adapters.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rehearse-dev/rehearse/pkg/domain"
)

// FlowStore implements ports.FlowStore in memory.
// Safe for concurrent use.
type FlowStore struct {
	mu    sync.RWMutex
	flows map[string]domain.Flow
}

// NewFlowStore creates a new in-memory flow store.
func NewFlowStore() *FlowStore {
	return &FlowStore{flows: make(map[string]domain.Flow)}
}

// SaveFlow persists a copy of the flow.
func (s *FlowStore) SaveFlow(ctx context.Context, flow domain.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[flow.ID] = flow.Clone()
	return nil
}

// GetFlow retrieves a copy of the flow.
func (s *FlowStore) GetFlow(ctx context.Context, flowID string) (domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flow, ok := s.flows[flowID]
	if !ok {
		return domain.Flow{}, domain.ErrFlowNotFound
	}
	return flow.Clone(), nil
}

// DeleteFlow removes the flow.
func (s *FlowStore) DeleteFlow(ctx context.Context, flowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, flowID)
	return nil
}

// ListFlows returns copies of all flows owned by the trainer.
func (s *FlowStore) ListFlows(ctx context.Context, trainerID string) ([]domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Flow, 0)
	for _, f := range s.flows {
		if f.TrainerID == trainerID {
			out = append(out, f.Clone())
		}
	}
	return out, nil
}

// PublishExclusive promotes one flow and demotes its siblings under a
// single lock, so readers never observe zero or two published flows.
func (s *FlowStore) PublishExclusive(ctx context.Context, trainerID, flowID string, at time.Time, by string) (domain.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.flows[flowID]
	if !ok || target.TrainerID != trainerID {
		return domain.Flow{}, domain.ErrFlowNotFound
	}

	for id, f := range s.flows {
		if f.TrainerID == trainerID && f.Status == domain.StatusPublished && id != flowID {
			demoted := f.Clone()
			demoted.Status = domain.StatusDraft
			demoted.PublishedAt = nil
			demoted.PublishedBy = ""
			s.flows[id] = demoted
		}
	}

	published := target.Clone()
	published.Status = domain.StatusPublished
	published.PublishedAt = &at
	published.PublishedBy = by
	published.UpdatedAt = at
	s.flows[flowID] = published
	return published.Clone(), nil
}

// SessionStore implements ports.SessionStore in memory.
// Safe for concurrent use.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.Session)}
}

// SaveSession persists a copy of the session.
func (s *SessionStore) SaveSession(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

// GetSession retrieves a copy so callers can't mutate stored state by
// reference.
func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// DeleteSession removes the session.
func (s *SessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// ListSessions returns the stored session ids.
func (s *SessionStore) ListSessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}
