package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/rehearse-dev/rehearse/pkg/domain"
)

// publishRetries bounds optimistic retries when a concurrent write
// invalidates the WATCH during a publish transaction.
const publishRetries = 5

// FlowStore implements ports.FlowStore using Redis. Flows are stored as
// JSON values with a per-trainer SET index; the exclusive-publish swap
// runs inside a WATCH/MULTI transaction so it is all-or-nothing.
type FlowStore struct {
	client *backend.Client
	prefix string
}

// FlowOption configures the FlowStore.
type FlowOption func(*FlowStore)

// WithFlowPrefix sets the key prefix for flows.
func WithFlowPrefix(prefix string) FlowOption {
	return func(s *FlowStore) { s.prefix = prefix }
}

// NewFlowStore creates a Redis flow store from an existing client.
func NewFlowStore(client *backend.Client, opts ...FlowOption) *FlowStore {
	store := &FlowStore{
		client: client,
		prefix: "rehearse:flow:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *FlowStore) key(flowID string) string {
	return s.prefix + flowID
}

func (s *FlowStore) trainerKey(trainerID string) string {
	return s.prefix + "trainer:" + trainerID
}

// SaveFlow persists the flow JSON and indexes it under its trainer.
func (s *FlowStore) SaveFlow(ctx context.Context, flow domain.Flow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(flow.ID), data, 0)
	pipe.SAdd(ctx, s.trainerKey(flow.TrainerID), flow.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}
	return nil
}

// GetFlow retrieves a flow by id.
func (s *FlowStore) GetFlow(ctx context.Context, flowID string) (domain.Flow, error) {
	val, err := s.client.Get(ctx, s.key(flowID)).Result()
	if err != nil {
		if err == backend.Nil {
			return domain.Flow{}, domain.ErrFlowNotFound
		}
		return domain.Flow{}, fmt.Errorf("failed to get flow: %w", err)
	}

	var flow domain.Flow
	if err := json.Unmarshal([]byte(val), &flow); err != nil {
		return domain.Flow{}, fmt.Errorf("failed to unmarshal flow: %w", err)
	}
	return flow, nil
}

// DeleteFlow removes the flow and its index entry.
func (s *FlowStore) DeleteFlow(ctx context.Context, flowID string) error {
	flow, err := s.GetFlow(ctx, flowID)
	if err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(flowID))
	pipe.SRem(ctx, s.trainerKey(flow.TrainerID), flowID)
	_, err = pipe.Exec(ctx)
	return err
}

// ListFlows returns all flows indexed under the trainer.
func (s *FlowStore) ListFlows(ctx context.Context, trainerID string) ([]domain.Flow, error) {
	ids, err := s.client.SMembers(ctx, s.trainerKey(trainerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	out := make([]domain.Flow, 0, len(ids))
	for _, id := range ids {
		flow, err := s.GetFlow(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrFlowNotFound) {
				// Stale index entry; skip.
				continue
			}
			return nil, err
		}
		out = append(out, flow)
	}
	return out, nil
}

// PublishExclusive promotes flowID and demotes the trainer's other flows
// inside a WATCH transaction. A concurrent write to any involved flow
// aborts and retries the whole swap, so a reader never observes zero or
// two published flows.
func (s *FlowStore) PublishExclusive(ctx context.Context, trainerID, flowID string, at time.Time, by string) (domain.Flow, error) {
	var published domain.Flow

	txf := func(tx *backend.Tx) error {
		ids, err := tx.SMembers(ctx, s.trainerKey(trainerID)).Result()
		if err != nil {
			return err
		}

		// Every flow read below joins the watch set, so a concurrent
		// SaveFlow to a sibling also aborts the swap.
		if len(ids) > 0 {
			keys := make([]string, len(ids))
			for i, id := range ids {
				keys[i] = s.key(id)
			}
			if err := tx.Watch(ctx, keys...).Err(); err != nil {
				return err
			}
		}

		updates := make(map[string][]byte)
		found := false
		for _, id := range ids {
			val, err := tx.Get(ctx, s.key(id)).Result()
			if err == backend.Nil {
				continue
			}
			if err != nil {
				return err
			}

			var flow domain.Flow
			if err := json.Unmarshal([]byte(val), &flow); err != nil {
				return fmt.Errorf("failed to unmarshal flow %s: %w", id, err)
			}

			changed := false
			if flow.ID == flowID {
				found = true
				flow.Status = domain.StatusPublished
				t := at
				flow.PublishedAt = &t
				flow.PublishedBy = by
				flow.UpdatedAt = at
				published = flow
				changed = true
			} else if flow.Status == domain.StatusPublished {
				flow.Status = domain.StatusDraft
				flow.PublishedAt = nil
				flow.PublishedBy = ""
				changed = true
			}
			if changed {
				data, err := json.Marshal(flow)
				if err != nil {
					return err
				}
				updates[s.key(flow.ID)] = data
			}
		}
		if !found {
			return domain.ErrFlowNotFound
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			for key, data := range updates {
				pipe.Set(ctx, key, data, 0)
			}
			return nil
		})
		return err
	}

	watchKeys := []string{s.trainerKey(trainerID), s.key(flowID)}
	for i := 0; i < publishRetries; i++ {
		err := s.client.Watch(ctx, txf, watchKeys...)
		if err == nil {
			return published, nil
		}
		if errors.Is(err, backend.TxFailedErr) {
			continue
		}
		return domain.Flow{}, err
	}
	return domain.Flow{}, fmt.Errorf("publish aborted after %d contended attempts", publishRetries)
}
