package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearse-dev/rehearse/internal/adapters/memory"
	"github.com/rehearse-dev/rehearse/pkg/domain"
	"github.com/rehearse-dev/rehearse/pkg/persistence/middleware"
)

func TestPIIMaskingOnSave(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewSessionStore()
	store := middleware.NewPIIMiddleware([]string{
		`[\w.+-]+@[\w-]+\.[\w.]+`, // email
		`\b\d{3}-\d{4}\b`,         // phone suffix
	})(inner)

	session := domain.Session{ID: "s1", UserID: "user-1", Status: domain.SessionActive}
	session.Append(domain.Message{
		ID: "m1", Sender: domain.SenderUser,
		Content:   "reach me at jane@example.com or 555-1234",
		Timestamp: time.Now().UTC(),
	})

	require.NoError(t, store.SaveSession(ctx, session))

	stored, err := inner.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "reach me at *** or ***", stored.Conversation[0].Content)

	// The caller's copy is untouched.
	assert.Contains(t, session.Conversation[0].Content, "jane@example.com")
}

func TestPIIChainWithEncryption(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewSessionStore()
	store := middleware.Chain(inner,
		middleware.NewPIIMiddleware([]string{`secret-\w+`}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key(1)}),
	)

	session := domain.Session{ID: "s1", Status: domain.SessionActive}
	session.Append(domain.Message{ID: "m1", Content: "the code is secret-tango", Timestamp: time.Now().UTC()})
	require.NoError(t, store.SaveSession(ctx, session))

	loaded, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "the code is ***", loaded.Conversation[0].Content, "masking happens before encryption")
}
