// Package lifecycle manages draft/publish versioning of flow documents.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rehearse-dev/rehearse/internal/logging"
	"github.com/rehearse-dev/rehearse/internal/metrics"
	"github.com/rehearse-dev/rehearse/pkg/domain"
	"github.com/rehearse-dev/rehearse/pkg/ports"
	"github.com/rehearse-dev/rehearse/pkg/validator"
)

// initialVersion is assigned to every newly created draft.
const initialVersion = "1.0.0"

// Manager enforces the lifecycle rules over a trainer's flow documents:
// drafts are freely editable, publishing re-validates the graph and
// promotes exactly one flow per trainer.
type Manager struct {
	flows  ports.FlowStore
	newID  domain.IDFunc
	now    domain.ClockFunc
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithIDFunc overrides the identifier generator (tests supply
// deterministic sequences).
func WithIDFunc(f domain.IDFunc) Option {
	return func(m *Manager) { m.newID = f }
}

// WithClock overrides the time source.
func WithClock(c domain.ClockFunc) Option {
	return func(m *Manager) { m.now = c }
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a lifecycle manager over the given flow store.
func NewManager(flows ports.FlowStore, opts ...Option) *Manager {
	m := &Manager{
		flows:  flows,
		newID:  uuid.NewString,
		now:    nowUTC,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateDraft creates a new flow document with status draft and metadata
// derived from the supplied graph.
func (m *Manager) CreateDraft(ctx context.Context, trainerID, name string, nodes []domain.Node, edges []domain.Edge, settings domain.Settings) (domain.Flow, error) {
	now := m.now()
	flow := domain.Flow{
		ID:        m.newID(),
		TrainerID: trainerID,
		Name:      name,
		Version:   initialVersion,
		Status:    domain.StatusDraft,
		Nodes:     nodes,
		Edges:     edges,
		Settings:  settings,
		Metadata:  domain.ComputeMetadata(nodes, edges),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.flows.SaveFlow(ctx, flow); err != nil {
		return domain.Flow{}, fmt.Errorf("save draft: %w", err)
	}
	m.logger.Info("draft created", "flow_id", flow.ID, "trainer_id", trainerID, "nodes", len(nodes))
	return flow, nil
}

// Update holds the partial fields of an UpdateDraft call. Nil fields are
// left unchanged.
type Update struct {
	Name     *string
	Nodes    *[]domain.Node
	Edges    *[]domain.Edge
	Settings *domain.Settings
}

// UpdateDraft merges the update into a draft flow. Metadata is recomputed
// when nodes or edges changed. Published flows are not editable.
func (m *Manager) UpdateDraft(ctx context.Context, flowID string, update Update) (domain.Flow, error) {
	flow, err := m.flows.GetFlow(ctx, flowID)
	if err != nil {
		return domain.Flow{}, err
	}
	if flow.Status == domain.StatusPublished {
		return domain.Flow{}, domain.ErrFlowPublished
	}

	flow = flow.Clone()
	graphChanged := false
	if update.Name != nil {
		flow.Name = *update.Name
	}
	if update.Nodes != nil {
		flow.Nodes = append([]domain.Node(nil), (*update.Nodes)...)
		graphChanged = true
	}
	if update.Edges != nil {
		flow.Edges = append([]domain.Edge(nil), (*update.Edges)...)
		graphChanged = true
	}
	if update.Settings != nil {
		flow.Settings = *update.Settings
	}
	if graphChanged {
		flow.Metadata = domain.ComputeMetadata(flow.Nodes, flow.Edges)
	}
	flow.UpdatedAt = m.now()

	if err := m.flows.SaveFlow(ctx, flow); err != nil {
		return domain.Flow{}, fmt.Errorf("save draft: %w", err)
	}
	return flow, nil
}

// Publish re-validates the flow's graph and, on success, atomically
// promotes it while demoting every sibling flow of the same trainer.
// Invalid graphs are rejected with a ValidationFailedError carrying the
// full error list.
func (m *Manager) Publish(ctx context.Context, flowID, publishedBy string) (domain.Flow, error) {
	flow, err := m.flows.GetFlow(ctx, flowID)
	if err != nil {
		return domain.Flow{}, err
	}

	if res := validator.ValidateFlow(flow); !res.IsValid {
		metrics.FlowPublish("rejected")
		metrics.ValidationFailure()
		m.logger.Warn("publish rejected", "flow_id", flowID, "errors", len(res.Errors))
		return domain.Flow{}, &domain.ValidationFailedError{Errors: res.Errors}
	}

	published, err := m.flows.PublishExclusive(ctx, flow.TrainerID, flowID, m.now(), publishedBy)
	if err != nil {
		metrics.FlowPublish("rejected")
		return domain.Flow{}, fmt.Errorf("publish flow: %w", err)
	}
	metrics.FlowPublish("ok")
	m.logger.Info("flow published", "flow_id", flowID, "trainer_id", flow.TrainerID, "by", publishedBy)
	return published, nil
}

// Demote returns a published flow to draft so it can be edited or deleted.
func (m *Manager) Demote(ctx context.Context, flowID string) (domain.Flow, error) {
	flow, err := m.flows.GetFlow(ctx, flowID)
	if err != nil {
		return domain.Flow{}, err
	}
	if flow.Status != domain.StatusPublished {
		return flow, nil
	}
	flow = flow.Clone()
	flow.Status = domain.StatusDraft
	flow.PublishedAt = nil
	flow.PublishedBy = ""
	flow.UpdatedAt = m.now()
	if err := m.flows.SaveFlow(ctx, flow); err != nil {
		return domain.Flow{}, fmt.Errorf("demote flow: %w", err)
	}
	return flow, nil
}

// Delete removes a flow. Published flows must be demoted first.
func (m *Manager) Delete(ctx context.Context, flowID string) error {
	flow, err := m.flows.GetFlow(ctx, flowID)
	if err != nil {
		return err
	}
	if flow.Status == domain.StatusPublished {
		return domain.ErrFlowPublished
	}
	return m.flows.DeleteFlow(ctx, flowID)
}

// Get retrieves a flow by id.
func (m *Manager) Get(ctx context.Context, flowID string) (domain.Flow, error) {
	return m.flows.GetFlow(ctx, flowID)
}

// List returns a trainer's flows, newest first.
func (m *Manager) List(ctx context.Context, trainerID string) ([]domain.Flow, error) {
	flows, err := m.flows.ListFlows(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(flows)
	return flows, nil
}

// ResolveLatest returns the flow the runtime should use: the newest flow
// with the preferred status when given, otherwise the newest draft,
// falling back to the newest published flow.
func (m *Manager) ResolveLatest(ctx context.Context, trainerID string, prefer *domain.FlowStatus) (domain.Flow, error) {
	flows, err := m.flows.ListFlows(ctx, trainerID)
	if err != nil {
		return domain.Flow{}, err
	}
	sortNewestFirst(flows)

	if prefer != nil {
		for _, f := range flows {
			if f.Status == *prefer {
				return f, nil
			}
		}
		return domain.Flow{}, domain.ErrFlowNotFound
	}

	for _, f := range flows {
		if f.Status == domain.StatusDraft {
			return f, nil
		}
	}
	for _, f := range flows {
		if f.Status == domain.StatusPublished {
			return f, nil
		}
	}
	return domain.Flow{}, domain.ErrFlowNotFound
}
