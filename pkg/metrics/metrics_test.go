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

func TestObserveLayerLookup(t *testing.T) {
	m := New()
	m.ObserveLayerLookup("slope", 30*time.Millisecond, "ok")
	m.ObserveLayerLookup("slope", 2*time.Second, "timeout")
	m.ObserveLayerLookup("opb_noise", time.Millisecond, "ok")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.layerLookups.WithLabelValues("slope", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.layerLookups.WithLabelValues("slope", "ok")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.layerLookupSeconds))
}

func TestCounters(t *testing.T) {
	m := New()
	m.ReportGenerated("resolved")
	m.ReportGenerated("resolved")
	m.JobProcessed("retry")
	m.LabelRefresh(false)
	m.HTTPRequest("/api/v1/feasibility", "200")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reports.WithLabelValues("resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("retry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.labelRefreshes.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/v1/feasibility", "200")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.JobProcessed("success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `urbaplan_feasibility_jobs_total{result="success"} 1`)
}
