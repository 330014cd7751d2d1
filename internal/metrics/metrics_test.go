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

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.SubmissionsTotal.WithLabelValues("queued").Inc()
	m.TransitionsTotal.WithLabelValues("success").Inc()
	m.ApprovalsTotal.WithLabelValues("approved").Inc()
	m.RecordError("lifecycle", "poll")
	m.ObservePoll("applied", 30*time.Millisecond)
	m.ObservePoll("stale", 5*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("queued")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ApprovalsTotal.WithLabelValues("approved")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("lifecycle", "poll")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PollsTotal.WithLabelValues("applied")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PollsTotal.WithLabelValues("stale")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SubmissionsTotal.WithLabelValues("queued").Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "console_command_submissions_total")
}
