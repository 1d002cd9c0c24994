package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordersCountByLabel(t *testing.T) {
	m := New()

	m.RecordImport(nil)
	m.RecordImport(errors.New("bad"))
	m.RecordImport(nil)
	m.RecordExportCache(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImportsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExportCacheTotal.WithLabelValues("hit")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordImport(nil)
		m.RecordPublish(nil)
		m.RecordValidation(true)
		m.RecordExportCache(false)
		m.RecordSnapshotJob(nil)
	})
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.RecordPublish(nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "profile_server_publishes_total")
}
