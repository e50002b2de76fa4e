package ports

import (
	"context"
	"time"

	"github.com/rehearse-dev/rehearse/pkg/domain"
)

// FlowStore defines the interface for persisting flow documents.
type FlowStore interface {
	// SaveFlow creates or replaces a flow document by id.
	SaveFlow(ctx context.Context, flow domain.Flow) error

	// GetFlow retrieves a flow by id.
	// Returns domain.ErrFlowNotFound if the flow does not exist.
	GetFlow(ctx context.Context, flowID string) (domain.Flow, error)

	// DeleteFlow removes a flow by id.
	DeleteFlow(ctx context.Context, flowID string) error

	// ListFlows returns all flows owned by a trainer, in no defined order.
	ListFlows(ctx context.Context, trainerID string) ([]domain.Flow, error)

	// PublishExclusive atomically promotes one flow to published and
	// demotes every other flow of the same trainer to draft. A crash must
	// never leave zero or two published flows for one trainer.
	PublishExclusive(ctx context.Context, trainerID, flowID string, at time.Time, by string) (domain.Flow, error)
}

// SessionStore defines the interface for persisting session state.
// This allows for durable sessions, enabling "stop & resume" conversations.
type SessionStore interface {
	// SaveSession persists the session keyed by its id.
	SaveSession(ctx context.Context, session domain.Session) error

	// GetSession retrieves a session by id.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)

	// DeleteSession removes a session by id.
	DeleteSession(ctx context.Context, sessionID string) error

	// ListSessions returns the ids of stored sessions.
	ListSessions(ctx context.Context) ([]string, error)
}
