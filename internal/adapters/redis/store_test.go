package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisAdapter "github.com/rehearse-dev/rehearse/internal/adapters/redis"
	"github.com/rehearse-dev/rehearse/pkg/domain"
	"github.com/rehearse-dev/rehearse/pkg/ports"
)

func newTestClient(t *testing.T) (*backend.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestFlowStoreContract(t *testing.T) {
	client, _ := newTestClient(t)
	ports.RunFlowStoreContract(t, redisAdapter.NewFlowStore(client))
}

func TestSessionStoreContract(t *testing.T) {
	client, _ := newTestClient(t)
	ports.RunSessionStoreContract(t, redisAdapter.NewSessionStore(client))
}

func TestSessionStoreTTL(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	store := redisAdapter.NewSessionStore(client, redisAdapter.WithSessionTTL(time.Minute))

	require.NoError(t, store.SaveSession(ctx, domain.Session{ID: "s1"}))

	_, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestFlowStoreSkipsStaleIndexEntries(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	store := redisAdapter.NewFlowStore(client)

	require.NoError(t, store.SaveFlow(ctx, domain.Flow{ID: "f1", TrainerID: "trainer-1"}))
	require.NoError(t, store.SaveFlow(ctx, domain.Flow{ID: "f2", TrainerID: "trainer-1"}))

	// Drop the value but leave the index entry behind.
	mr.Del("rehearse:flow:f1")

	flows, err := store.ListFlows(ctx, "trainer-1")
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, "f2", flows[0].ID)
}

// injectOnExec runs a callback once, just before the first transaction
// EXEC goes out on the wire.
type injectOnExec struct {
	once   sync.Once
	inject func()
}

func (h *injectOnExec) DialHook(next backend.DialHook) backend.DialHook { return next }

func (h *injectOnExec) ProcessHook(next backend.ProcessHook) backend.ProcessHook { return next }

func (h *injectOnExec) ProcessPipelineHook(next backend.ProcessPipelineHook) backend.ProcessPipelineHook {
	return func(ctx context.Context, cmds []backend.Cmder) error {
		for _, cmd := range cmds {
			if cmd.Name() == "exec" {
				h.once.Do(h.inject)
			}
		}
		return next(ctx, cmds)
	}
}

func TestPublishExclusiveRetriesOnSiblingWrite(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	store := redisAdapter.NewFlowStore(client)

	// The concurrent writer gets its own connection.
	sideClient := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = sideClient.Close() })
	side := redisAdapter.NewFlowStore(sideClient)

	require.NoError(t, store.SaveFlow(ctx, domain.Flow{ID: "f1", TrainerID: "trainer-1", Name: "One", Status: domain.StatusPublished}))
	require.NoError(t, store.SaveFlow(ctx, domain.Flow{ID: "f2", TrainerID: "trainer-1", Name: "Two", Status: domain.StatusDraft}))

	// Rename the currently published sibling between the transaction's
	// reads and its EXEC. The swap must abort, retry, and demote the
	// renamed copy instead of writing back the stale one.
	client.AddHook(&injectOnExec{inject: func() {
		require.NoError(t, side.SaveFlow(ctx, domain.Flow{ID: "f1", TrainerID: "trainer-1", Name: "One renamed", Status: domain.StatusPublished}))
	}})

	published, err := store.PublishExclusive(ctx, "trainer-1", "f2", time.Now().UTC(), "editor-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, published.Status)

	sibling, err := store.GetFlow(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "One renamed", sibling.Name, "concurrent rename survives the swap")
	assert.Equal(t, domain.StatusDraft, sibling.Status)
}

func TestLocker(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	locker := redisAdapter.NewLocker(client, "rehearse:")

	t.Run("lock and unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, "session-1", time.Minute)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))

		// Re-acquiring after unlock succeeds immediately.
		unlock2, err := locker.Lock(ctx, "session-1", time.Minute)
		require.NoError(t, err)
		require.NoError(t, unlock2(ctx))
	})

	t.Run("contended lock waits for release", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, "session-2", time.Minute)
		require.NoError(t, err)

		acquired := make(chan struct{})
		go func() {
			u, err := locker.Lock(ctx, "session-2", time.Minute)
			assert.NoError(t, err)
			_ = u(ctx)
			close(acquired)
		}()

		select {
		case <-acquired:
			t.Fatal("second holder acquired the lock before release")
		case <-time.After(150 * time.Millisecond):
		}

		require.NoError(t, unlock(ctx))

		select {
		case <-acquired:
		case <-time.After(2 * time.Second):
			t.Fatal("second holder never acquired the lock after release")
		}
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, "session-3", time.Minute)
		require.NoError(t, err)
		defer func() { _ = unlock(ctx) }()

		waitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()

		_, err = locker.Lock(waitCtx, "session-3", time.Minute)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
