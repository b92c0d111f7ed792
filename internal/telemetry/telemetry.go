// Package telemetry exposes the Prometheus counters and histograms
// shared by the subgraph engine and the ingestion orchestrator.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the gauges/counters/histograms this module emits.
// A single instance is constructed at startup and passed by handle to
// every collaborator that needs it (spec §5 "Shared-resource policy").
type Metrics struct {
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	QueryLatency prometheus.Histogram
	StageRuns    *prometheus.CounterVec
	StageFailures *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	mu          sync.Mutex
	latencies   []float64 // rolling window, last 100 samples
}

const rollingWindow = 100

// New registers all metrics against reg. Pass prometheus.NewRegistry()
// in tests to avoid colliding with the global default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kgraph_subgraph_cache_hits_total",
			Help: "Windowed subgraph query cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kgraph_subgraph_cache_misses_total",
			Help: "Windowed subgraph query cache misses.",
		}),
		QueryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kgraph_subgraph_query_duration_ms",
			Help:    "Windowed subgraph query latency in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}),
		StageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kgraph_ingestion_stage_runs_total",
			Help: "Ingestion stage executions.",
		}, []string{"stage"}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kgraph_ingestion_stage_failures_total",
			Help: "Ingestion stage record failures.",
		}, []string{"stage"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kgraph_ingestion_stage_duration_seconds",
			Help:    "Ingestion stage wall-clock duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	reg.MustRegister(m.CacheHits, m.CacheMisses, m.QueryLatency, m.StageRuns, m.StageFailures, m.StageDuration)
	return m
}

// RecordQueryLatency feeds both the Prometheus histogram and the
// in-process rolling window read by AverageQueryLatency (spec §4.10
// "Telemetry retains the last 100 query latencies").
func (m *Metrics) RecordQueryLatency(ms float64) {
	m.QueryLatency.Observe(ms)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies = append(m.latencies, ms)
	if len(m.latencies) > rollingWindow {
		m.latencies = m.latencies[len(m.latencies)-rollingWindow:]
	}
}

// AverageQueryLatency returns the rolling mean of the last 100 samples.
func (m *Metrics) AverageQueryLatency() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.latencies) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range m.latencies {
		sum += v
	}
	return sum / float64(len(m.latencies))
}

func (m *Metrics) RecordCacheHit(hit bool) {
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) RecordStage(stage string, failures int, seconds float64) {
	m.StageRuns.WithLabelValues(stage).Inc()
	if failures > 0 {
		m.StageFailures.WithLabelValues(stage).Add(float64(failures))
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}
