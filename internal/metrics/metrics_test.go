package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()
	m := New()

	m.Submission(OutcomeSuccess)
	m.Submission(OutcomeSuccess)
	m.Submission(OutcomeRateLimited)
	m.RateLimitCheck(true)
	m.RateLimitCheck(false)
	m.Notification(NotificationFailed)
	m.Swept(3)
	m.Swept(0)
	m.DLQPurged(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues(OutcomeRateLimited)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitChecks.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues(NotificationFailed)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.swept))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.dlqPurged))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()
	var m *Metrics
	m.Submission(OutcomeSuccess)
	m.RateLimitCheck(true)
	m.Notification(NotificationSent)
	m.Swept(1)
	m.DLQPurged(1)
	assert.NotNil(t, m.Handler())
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()
	m := New()
	m.Submission(OutcomeInvalid)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `portfolio_contact_submissions_total{outcome="invalid"} 1`))
}
