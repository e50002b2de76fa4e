package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearse-dev/rehearse/pkg/domain"
)

// RunSessionStoreContract runs a suite of tests to verify that a
// SessionStore implementation adheres to the interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Get", func(t *testing.T) {
		session := domain.Session{
			ID:        sessionID,
			TrainerID: "trainer-1",
			FlowID:    "flow-1",
			Status:    domain.SessionActive,
			Progress:  domain.Progress{CurrentNode: "start"},
		}
		session.Append(domain.Message{
			ID: "m1", Sender: domain.SenderAI, Content: "Welcome", NodeID: "start",
			Timestamp: time.Now().UTC(),
		})

		require.NoError(t, store.SaveSession(ctx, session))

		loaded, err := store.GetSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, loaded.ID)
		assert.Equal(t, "start", loaded.Progress.CurrentNode)
		require.Len(t, loaded.Conversation, 1)
		assert.Equal(t, "Welcome", loaded.Conversation[0].Content)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.GetSession(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.SaveSession(ctx, domain.Session{ID: sessionID}))
		require.NoError(t, store.DeleteSession(ctx, sessionID))

		_, err := store.GetSession(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Get after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.SaveSession(ctx, domain.Session{ID: id1})
		_ = store.SaveSession(ctx, domain.Session{ID: id2})
		defer func() {
			_ = store.DeleteSession(ctx, id1)
			_ = store.DeleteSession(ctx, id2)
		}()

		sessions, err := store.ListSessions(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunFlowStoreContract runs a suite of tests to verify that a FlowStore
// implementation adheres to the interface contract, including the
// exclusive-publish invariant.
func RunFlowStoreContract(t *testing.T, store FlowStore) {
	ctx := context.Background()
	trainerID := "contract-trainer-" + time.Now().Format("20060102150405")

	draft := func(id string) domain.Flow {
		return domain.Flow{
			ID:        id,
			TrainerID: trainerID,
			Name:      "Onboarding " + id,
			Version:   "1.0.0",
			Status:    domain.StatusDraft,
		}
	}

	t.Run("Save and Get", func(t *testing.T) {
		f := draft("flow-a")
		require.NoError(t, store.SaveFlow(ctx, f))

		loaded, err := store.GetFlow(ctx, "flow-a")
		require.NoError(t, err)
		assert.Equal(t, f.Name, loaded.Name)
		assert.Equal(t, domain.StatusDraft, loaded.Status)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.GetFlow(ctx, "no-such-flow")
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("List by Trainer", func(t *testing.T) {
		require.NoError(t, store.SaveFlow(ctx, draft("flow-b")))

		flows, err := store.ListFlows(ctx, trainerID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(flows), 2)

		other, err := store.ListFlows(ctx, "someone-else")
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("PublishExclusive", func(t *testing.T) {
		now := time.Now().UTC()

		published, err := store.PublishExclusive(ctx, trainerID, "flow-a", now, trainerID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPublished, published.Status)

		// Publishing a sibling must demote the first.
		_, err = store.PublishExclusive(ctx, trainerID, "flow-b", now.Add(time.Second), trainerID)
		require.NoError(t, err)

		flows, err := store.ListFlows(ctx, trainerID)
		require.NoError(t, err)
		var publishedCount int
		for _, f := range flows {
			if f.Status == domain.StatusPublished {
				publishedCount++
				assert.Equal(t, "flow-b", f.ID)
			}
		}
		assert.Equal(t, 1, publishedCount, "exactly one flow may be published per trainer")
	})

	t.Run("PublishExclusive Non-Existent", func(t *testing.T) {
		_, err := store.PublishExclusive(ctx, trainerID, "no-such-flow", time.Now(), trainerID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.DeleteFlow(ctx, "flow-a"))
		_, err := store.GetFlow(ctx, "flow-a")
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})
}
