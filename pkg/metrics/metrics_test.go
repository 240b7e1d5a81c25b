package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("test", reg)

	c.RecordRecordError("structural")
	c.RecordRecordError("structural")
	c.RecordRecordError("month_range")
	c.RecordObservation("06")
	c.RecordAnalysisRun("ok")
	c.RecordsProcessedTotal.Add(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.RecordErrorsTotal.WithLabelValues("structural")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RecordErrorsTotal.WithLabelValues("month_range")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ObservationsAccepted.WithLabelValues("06")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AnalysisRunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.RecordsProcessedTotal))
}

func TestCollector_SeparateRegistries(t *testing.T) {
	// the same namespace must register twice on distinct registries
	assert.NotPanics(t, func() {
		NewCollector("dup", prometheus.NewRegistry())
		NewCollector("dup", prometheus.NewRegistry())
	})
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := NewCollector("timer", prometheus.NewRegistry())

	timer := c.NewTimer(c.AnalysisDuration)
	d := timer.ObserveDuration()

	assert.GreaterOrEqual(t, int64(d), int64(0))
	assert.Equal(t, 1, testutil.CollectAndCount(c.AnalysisDuration))
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("textfile", reg)
	c.RecordRecordError("conversion")

	path := filepath.Join(t.TempDir(), "analyzer.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `textfile_record_errors_total{error_type="conversion"} 1`)
}
