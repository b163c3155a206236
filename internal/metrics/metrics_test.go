package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveGenerationCounts(t *testing.T) {
	m := New()
	m.ObserveGeneration("requirement", "ok", time.Second)
	m.ObserveGeneration("requirement", "ok", time.Second)
	m.ObserveGeneration("estimate", "bad_request", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.generations.WithLabelValues("requirement", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("estimate", "bad_request")))
}

func TestObserveAICallTokens(t *testing.T) {
	m := New()
	m.ObserveAICall("extract_features", "openai", "SUCCEEDED", time.Second, 120, 40)
	assert.Equal(t, 120.0, testutil.ToFloat64(m.aiTokens.WithLabelValues("extract_features", "prompt")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.aiTokens.WithLabelValues("extract_features", "completion")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveGeneration("requirement", "ok", time.Second)
	m.ObserveAICall("x", "y", "z", time.Second, 1, 1)
	m.ObserveHTTP(http.MethodGet, 200)
}

func TestHandlerServesText(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, 404)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `scopeforge_http_requests_total{method="GET",status="4xx"} 1`)
}
