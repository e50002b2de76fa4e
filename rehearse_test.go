package rehearse_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearse-dev/rehearse"
	"github.com/rehearse-dev/rehearse/internal/adapters/memory"
	"github.com/rehearse-dev/rehearse/internal/metrics"
	"github.com/rehearse-dev/rehearse/pkg/domain"
	"github.com/rehearse-dev/rehearse/pkg/persistence/middleware"
)

func newTestService(t *testing.T) *rehearse.Service {
	t.Helper()
	seq := 0
	return rehearse.New(rehearse.WithIDFunc(func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}))
}

func seedFlow(t *testing.T, svc *rehearse.Service, trainerID string) domain.Flow {
	t.Helper()
	nodes := []domain.Node{
		{ID: "start", Type: domain.NodeTypeStart, Data: domain.ContentData{Messages: []string{"Welcome!"}}},
		{ID: "q1", Type: domain.NodeTypeQuestion, Data: domain.QuestionData{
			Messages: []string{"Ready?"}, Keywords: []string{"yes"},
		}},
		{ID: "end", Type: domain.NodeTypeEnd, Data: domain.ContentData{Messages: []string{"Done."}}},
	}
	edges := []domain.Edge{
		{ID: "e1", From: "start", To: "q1", Condition: domain.Condition{Type: domain.ConditionAuto}},
		{ID: "e2", From: "q1", To: "end", Condition: domain.Condition{Type: domain.ConditionQuestion, Keywords: []string{"yes"}}},
	}
	flow, err := svc.CreateDraft(context.Background(), trainerID, "Drill", nodes, edges, domain.Settings{})
	require.NoError(t, err)
	return flow
}

func TestServiceConversation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedFlow(t, svc, "trainer-1")

	sess, err := svc.StartSession(ctx, "trainer-1", "user-1", nil)
	require.NoError(t, err)
	require.Len(t, sess.Conversation, 1)
	assert.Equal(t, "Welcome!", sess.Conversation[0].Content)

	turn, err := svc.SendMessage(ctx, sess.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Ready?", turn.AIMessage.Content)
	assert.Equal(t, domain.SessionActive, turn.Status)

	turn, err = svc.SendMessage(ctx, sess.ID, "yes")
	require.NoError(t, err)
	assert.Equal(t, "Done.", turn.AIMessage.Content)
	assert.Equal(t, domain.SessionCompleted, turn.Status)

	// Persisted state matches the returned turn.
	stored, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, stored.Status)
	assert.Equal(t, 100, stored.Progress.Score)
}

func TestServiceRunsPublishedWhenPreferred(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	flow := seedFlow(t, svc, "trainer-1")

	_, err := svc.Publish(ctx, flow.ID, "trainer-1")
	require.NoError(t, err)

	// A newer draft exists, but the published version is requested.
	seedFlow(t, svc, "trainer-1")

	published := domain.StatusPublished
	sess, err := svc.StartSession(ctx, "trainer-1", "user-1", &published)
	require.NoError(t, err)
	assert.Equal(t, flow.ID, sess.FlowID)
}

func TestServiceCompleteSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedFlow(t, svc, "trainer-1")

	sess, err := svc.StartSession(ctx, "trainer-1", "user-1", nil)
	require.NoError(t, err)

	ended, err := svc.CompleteSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, ended.Status)
}

func TestServiceStartWithoutFlow(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.StartSession(context.Background(), "nobody", "user-1", nil)
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestServiceExportsMetrics(t *testing.T) {
	svc := newTestService(t)
	svc.Validate(nil, nil)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "rehearse_validation_failures_total")
}

func TestServiceWithSecuredSessionStore(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewSessionStore()
	store := middleware.Chain(inner,
		middleware.NewPIIMiddleware([]string{`[\w.+-]+@[\w-]+\.[\w.]+`}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: bytes.Repeat([]byte{7}, 32)}),
	)

	svc := rehearse.New(rehearse.WithSessionStore(store))
	seedFlow(t, svc, "trainer-1")

	sess, err := svc.StartSession(ctx, "trainer-1", "user-1", nil)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, sess.ID, "mail me at jane@example.com")
	require.NoError(t, err)
	turn, err := svc.SendMessage(ctx, sess.ID, "yes")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, turn.Status)

	// Reads through the chain come back decrypted but masked.
	loaded, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	var userContent []string
	for _, msg := range loaded.Conversation {
		if msg.Sender == domain.SenderUser {
			userContent = append(userContent, msg.Content)
		}
	}
	require.NotEmpty(t, userContent)
	assert.Contains(t, userContent[0], "***")
	assert.NotContains(t, userContent[0], "jane@example.com")

	// The raw store holds only the encrypted envelope.
	raw, err := inner.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, raw.Conversation, 1)
	assert.NotContains(t, raw.Conversation[0].Content, "mail me")
}
