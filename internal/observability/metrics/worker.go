package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	runTotal       *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	runInFlight    prometheus.Gauge
	queueLag       *prometheus.HistogramVec
	sourcesTotal   *prometheus.CounterVec
	codesTotal     *prometheus.CounterVec
	themesPerRun   *prometheus.HistogramVec
	cacheHitsTotal *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	runTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bqm",
			Subsystem: "worker",
			Name:      "extraction_run_total",
			Help:      "Total processed extraction runs by status.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bqm",
			Subsystem: "worker",
			Name:      "extraction_run_duration_seconds",
			Help:      "Extraction run duration in seconds by status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"service", "status"},
	)
	runInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bqm",
			Subsystem: "worker",
			Name:      "extraction_run_in_flight",
			Help:      "Number of in-flight extraction runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bqm",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between run submission and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	sourcesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bqm",
			Subsystem: "pipeline",
			Name:      "sources_total",
			Help:      "Total sources seen by the pipeline, by outcome.",
		},
		[]string{"service", "outcome"},
	)
	codesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bqm",
			Subsystem: "pipeline",
			Name:      "codes_total",
			Help:      "Total initial codes by embedding outcome.",
		},
		[]string{"service", "outcome"},
	)
	themesPerRun := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bqm",
			Subsystem: "pipeline",
			Name:      "themes_per_run",
			Help:      "Distribution of accepted themes per completed run.",
			Buckets:   []float64{1, 3, 5, 8, 13, 21, 34, 55, 89},
		},
		[]string{"service"},
	)
	cacheHitsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bqm",
			Subsystem: "embedding",
			Name:      "cache_lookups_total",
			Help:      "Embedding cache lookups by result.",
		},
		[]string{"service", "result"},
	)

	registry.MustRegister(runTotal, runDuration, runInFlight, queueLag, sourcesTotal, codesTotal, themesPerRun, cacheHitsTotal)

	return &WorkerMetrics{
		registry:       registry,
		runTotal:       runTotal,
		runDuration:    runDuration,
		runInFlight:    runInFlight,
		queueLag:       queueLag,
		sourcesTotal:   sourcesTotal,
		codesTotal:     codesTotal,
		themesPerRun:   themesPerRun,
		cacheHitsTotal: cacheHitsTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRun() {
	m.runInFlight.Inc()
}

func (m *WorkerMetrics) FinishRun(service string, duration time.Duration, err error) {
	m.runInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.runTotal.WithLabelValues(service, status).Inc()
	m.runDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) RecordPipelineCounts(service string, processed, failed, embedded, skipped int) {
	if processed > 0 {
		m.sourcesTotal.WithLabelValues(service, "processed").Add(float64(processed))
	}
	if failed > 0 {
		m.sourcesTotal.WithLabelValues(service, "failed").Add(float64(failed))
	}
	if embedded > 0 {
		m.codesTotal.WithLabelValues(service, "embedded").Add(float64(embedded))
	}
	if skipped > 0 {
		m.codesTotal.WithLabelValues(service, "skipped").Add(float64(skipped))
	}
}

func (m *WorkerMetrics) RecordThemes(service string, themes int) {
	m.themesPerRun.WithLabelValues(service).Observe(float64(themes))
}

func (m *WorkerMetrics) RecordCacheLookups(service string, hits, misses int) {
	if hits > 0 {
		m.cacheHitsTotal.WithLabelValues(service, "hit").Add(float64(hits))
	}
	if misses > 0 {
		m.cacheHitsTotal.WithLabelValues(service, "miss").Add(float64(misses))
	}
}
