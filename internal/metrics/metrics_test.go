package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("Should count logins by result", func(t *testing.T) {
		c := NewCollector(prometheus.NewRegistry())
		c.RecordLogin("success")
		c.RecordLogin("success")
		c.RecordLogin("secret_mismatch")

		assert.Equal(t, 2.0, testutil.ToFloat64(c.loginAttempts.WithLabelValues("success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.loginAttempts.WithLabelValues("secret_mismatch")))
	})

	t.Run("Should count guard and leave decisions", func(t *testing.T) {
		c := NewCollector(prometheus.NewRegistry())
		c.RecordGuardDecision("pending")
		c.RecordLeaveDecision("approved")
		c.RecordPollDiscarded()

		assert.Equal(t, 1.0, testutil.ToFloat64(c.guardDecisions.WithLabelValues("pending")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.leaveDecisions.WithLabelValues("approved")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.pollDiscarded))
	})

	t.Run("Should set the pending gauge", func(t *testing.T) {
		c := NewCollector(prometheus.NewRegistry())
		c.SetPendingForms(4)
		c.SetPendingForms(2)
		assert.Equal(t, 2.0, testutil.ToFloat64(c.pendingForms))
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordLogin("success")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `leave_login_attempts_total{result="success"} 1`))
}
