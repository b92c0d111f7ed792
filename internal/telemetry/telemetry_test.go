package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAverageQueryLatencyRollingWindow(t *testing.T) {
	m := New(prometheus.NewRegistry())
	for i := 0; i < 150; i++ {
		m.RecordQueryLatency(10)
	}
	assert.Equal(t, rollingWindow, len(m.latencies))
	assert.InDelta(t, 10, m.AverageQueryLatency(), 0.001)
}

func TestAverageQueryLatencyEmpty(t *testing.T) {
	m := New(prometheus.NewRegistry())
	assert.Equal(t, 0.0, m.AverageQueryLatency())
}

func TestRecordCacheHit(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordCacheHit(true)
	m.RecordCacheHit(false)
	m.RecordCacheHit(true)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheMisses))
}

func TestRecordStage(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordStage("commits", 2, 1.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StageRuns.WithLabelValues("commits")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.StageFailures.WithLabelValues("commits")))
}
