package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearse-dev/rehearse"
	httpAdapter "github.com/rehearse-dev/rehearse/internal/adapters/http"
	"github.com/rehearse-dev/rehearse/pkg/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	seq := 0
	svc := rehearse.New(rehearse.WithIDFunc(func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}))
	ts := httptest.NewServer(httpAdapter.NewHandler(svc, nil))
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func validFlowBody(trainerID string) map[string]any {
	return map[string]any{
		"trainerId": trainerID,
		"name":      "Onboarding",
		"nodes": []map[string]any{
			{"id": "start", "type": "start", "data": map[string]any{"messages": []string{"Welcome!"}}},
			{"id": "q1", "type": "question", "data": map[string]any{
				"messages": []string{"Ready?"}, "keywords": []string{"yes"},
			}},
			{"id": "end", "type": "end", "data": map[string]any{"messages": []string{"Bye."}}},
		},
		"edges": []map[string]any{
			{"id": "e1", "from": "start", "to": "q1", "condition": map[string]any{"type": "auto"}},
			{"id": "e2", "from": "q1", "to": "end", "condition": map[string]any{"type": "question", "keywords": []string{"yes"}}},
		},
	}
}

func TestValidateEndpoint(t *testing.T) {
	ts := newTestServer(t)

	t.Run("invalid graph", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/validate", map[string]any{
			"nodes": []map[string]any{{"id": "a", "type": "text"}},
			"edges": []map[string]any{},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res struct {
			IsValid bool     `json:"isValid"`
			Errors  []string `json:"errors"`
			Summary struct {
				TotalNodes    int `json:"totalNodes"`
				OrphanedNodes int `json:"orphanedNodes"`
			} `json:"summary"`
		}
		decodeBody(t, resp, &res)
		assert.False(t, res.IsValid)
		assert.NotEmpty(t, res.Errors)
		assert.Equal(t, 1, res.Summary.TotalNodes)
		assert.Equal(t, 1, res.Summary.OrphanedNodes)
	})

	t.Run("valid graph", func(t *testing.T) {
		body := validFlowBody("t1")
		resp := postJSON(t, ts.URL+"/validate", map[string]any{
			"nodes": body["nodes"], "edges": body["edges"],
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res struct {
			IsValid bool `json:"isValid"`
		}
		decodeBody(t, resp, &res)
		assert.True(t, res.IsValid)
	})
}

func TestFlowLifecycleEndpoints(t *testing.T) {
	ts := newTestServer(t)

	var flow domain.Flow
	resp := postJSON(t, ts.URL+"/flows", validFlowBody("trainer-1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeBody(t, resp, &flow)
	assert.Equal(t, domain.StatusDraft, flow.Status)
	assert.Equal(t, "1.0.0", flow.Version)
	assert.Equal(t, 3, flow.Metadata.TotalNodes)

	t.Run("publish", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/flows/"+flow.ID+"/publish", map[string]any{"publishedBy": "trainer-1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var published domain.Flow
		decodeBody(t, resp, &published)
		assert.Equal(t, domain.StatusPublished, published.Status)
		assert.NotNil(t, published.PublishedAt)
	})

	t.Run("delete published conflicts", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/flows/"+flow.ID, nil)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("demote then delete", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/flows/"+flow.ID+"/demote", map[string]any{})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/flows/"+flow.ID, nil)
		del, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer del.Body.Close()
		assert.Equal(t, http.StatusNoContent, del.StatusCode)
	})

	t.Run("get missing flow", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/flows/" + flow.ID)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestPublishInvalidFlow(t *testing.T) {
	ts := newTestServer(t)

	body := validFlowBody("trainer-1")
	body["edges"] = []map[string]any{}
	var flow domain.Flow
	resp := postJSON(t, ts.URL+"/flows", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeBody(t, resp, &flow)

	pub := postJSON(t, ts.URL+"/flows/"+flow.ID+"/publish", map[string]any{"publishedBy": "trainer-1"})
	require.Equal(t, http.StatusUnprocessableEntity, pub.StatusCode)

	var errBody struct {
		Error  string   `json:"error"`
		Errors []string `json:"errors"`
	}
	decodeBody(t, pub, &errBody)
	assert.Equal(t, "flow validation failed", errBody.Error)
	assert.NotEmpty(t, errBody.Errors)
}

func TestSessionEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/flows", validFlowBody("trainer-1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var started struct {
		Session   domain.Session `json:"session"`
		AIMessage *struct {
			Type    string `json:"type"`
			Content string `json:"content"`
			NodeID  string `json:"nodeId"`
		} `json:"aiMessage"`
	}
	resp = postJSON(t, ts.URL+"/sessions", map[string]any{"trainerId": "trainer-1", "userId": "user-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeBody(t, resp, &started)

	require.NotNil(t, started.AIMessage)
	assert.Equal(t, "ai", started.AIMessage.Type)
	assert.Equal(t, "Welcome!", started.AIMessage.Content)
	assert.Equal(t, "start", started.AIMessage.NodeID)

	t.Run("turn", func(t *testing.T) {
		var turn struct {
			AIMessage struct {
				Type    string `json:"type"`
				Content string `json:"content"`
			} `json:"aiMessage"`
			Status domain.SessionStatus `json:"status"`
		}
		resp := postJSON(t, ts.URL+"/messages", map[string]any{
			"sessionId": started.Session.ID,
			"message":   "hello",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &turn)

		assert.Equal(t, "ai", turn.AIMessage.Type)
		assert.Equal(t, "Ready?", turn.AIMessage.Content)
		assert.Equal(t, domain.SessionActive, turn.Status)

		resp = postJSON(t, ts.URL+"/messages", map[string]any{
			"sessionId": started.Session.ID,
			"message":   "yes",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &turn)
		assert.Equal(t, "Bye.", turn.AIMessage.Content)
		assert.Equal(t, domain.SessionCompleted, turn.Status)
	})

	t.Run("get session", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/sessions/" + started.Session.ID)
		require.NoError(t, err)
		var sess domain.Session
		decodeBody(t, resp, &sess)
		assert.Equal(t, domain.SessionCompleted, sess.Status)
		assert.NotEmpty(t, sess.Conversation)
	})

	t.Run("unknown session", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/messages", map[string]any{"sessionId": "ghost", "message": "hi"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestSessionStartWithoutFlows(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/sessions", map[string]any{"trainerId": "nobody", "userId": "u"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
