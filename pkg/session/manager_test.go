package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearse-dev/rehearse/internal/adapters/memory"
	"github.com/rehearse-dev/rehearse/pkg/domain"
	"github.com/rehearse-dev/rehearse/pkg/session"
)

func TestManagerMutate(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(memory.NewSessionStore())

	require.NoError(t, m.Save(ctx, domain.Session{ID: "s1", Status: domain.SessionActive}))

	t.Run("applies and persists the mutation", func(t *testing.T) {
		out, err := m.Mutate(ctx, "s1", func(ctx context.Context, s *domain.Session) error {
			s.Progress.Attempts++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, out.Progress.Attempts)

		loaded, err := m.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.Progress.Attempts)
	})

	t.Run("missing session surfaces the store error", func(t *testing.T) {
		_, err := m.Mutate(ctx, "nope", func(ctx context.Context, s *domain.Session) error {
			t.Fatal("fn must not run for a missing session")
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("fn error aborts the save", func(t *testing.T) {
		_, err := m.Mutate(ctx, "s1", func(ctx context.Context, s *domain.Session) error {
			s.Progress.Attempts = 99
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		loaded, err := m.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.Progress.Attempts, "failed mutation must not persist")
	})
}

func TestManagerSerializesPerSession(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(memory.NewSessionStore())
	require.NoError(t, m.Save(ctx, domain.Session{ID: "s1"}))

	const turns = 50
	var wg sync.WaitGroup
	wg.Add(turns)
	for i := 0; i < turns; i++ {
		go func() {
			defer wg.Done()
			_, err := m.Mutate(ctx, "s1", func(ctx context.Context, s *domain.Session) error {
				s.Progress.Attempts++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	loaded, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, turns, loaded.Progress.Attempts, "mutations must not be lost to races")
}
