package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveQuery("issues", "aggregate", time.Now())
		c.ObservePartitions(3)
		c.AddRollup("1", 10, 2)
	})
}

func TestRollupCounters(t *testing.T) {
	c := New(prometheus.NewRegistry())
	c.AddRollup("7", 100, 4)
	c.AddRollup("7", 50, 1)

	assert.Equal(t, 150.0, testutil.ToFloat64(c.rollupParents.WithLabelValues("7")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.rollupWrites.WithLabelValues("7")))
}

func TestHandlerExposesQueryHistogram(t *testing.T) {
	c := New(nil)
	c.ObserveQuery("job_runs", "list", time.Now().Add(-20*time.Millisecond))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `insightsdb_query_duration_seconds_count{kind="job_runs",op="list"} 1`)
}
