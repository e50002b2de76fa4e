package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearse-dev/rehearse/internal/metrics"
)

func TestCollectorsAreScrapeable(t *testing.T) {
	metrics.Init()

	metrics.SessionStarted()
	metrics.SessionTurn("active")
	metrics.FlowPublish("ok")
	metrics.ValidationFailure()
	metrics.ObserveHTTP("GET", "/flows", 0.01)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, series := range []string{
		"rehearse_sessions_started_total",
		"rehearse_session_turns_total",
		"rehearse_flow_publishes_total",
		"rehearse_validation_failures_total",
		"rehearse_http_request_duration_seconds",
	} {
		assert.Contains(t, body, series)
	}
}
