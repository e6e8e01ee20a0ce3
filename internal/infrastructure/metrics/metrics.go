package metrics

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics містить колектори Prometheus на власному реєстрі
type Metrics struct {
	registry *prometheus.Registry

	transitionsTotal  *prometheus.CounterVec
	reportsGenerated  *prometheus.CounterVec
	analyticsDuration prometheus.Histogram
	statsCacheTotal   *prometheus.CounterVec
}

// New створює та реєструє колектори місій і звітів
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mission_status_transitions_total",
			Help: "Total number of requested mission status transitions",
		},
		[]string{"from", "to", "result"}, // result: applied, rejected, conflict
	)

	m.reportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_generated_total",
			Help: "Total number of persisted reports by type",
		},
		[]string{"type"},
	)

	m.analyticsDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_aggregation_duration_seconds",
			Help:    "Time taken to load and aggregate an analytics snapshot",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	m.statsCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_stats_cache_total",
			Help: "Report statistics cache lookups",
		},
		[]string{"result"}, // hit, miss
	)

	registered := []prometheus.Collector{
		m.transitionsTotal,
		m.reportsGenerated,
		m.analyticsDuration,
		m.statsCacheTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range registered {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// Handler повертає HTTP-обробник для ендпоінту /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// Registry повертає реєстр колекторів
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordTransition рахує запит на зміну статусу місії
func (m *Metrics) RecordTransition(from, to, result string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to, result).Inc()
}

// RecordReport рахує збережений звіт
func (m *Metrics) RecordReport(reportType string) {
	if m == nil {
		return
	}
	m.reportsGenerated.WithLabelValues(reportType).Inc()
}

// ObserveAnalytics фіксує тривалість побудови аналітики
func (m *Metrics) ObserveAnalytics(d time.Duration) {
	if m == nil {
		return
	}
	m.analyticsDuration.Observe(d.Seconds())
}

// RecordStatsCache рахує звернення до кешу статистики
func (m *Metrics) RecordStatsCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.statsCacheTotal.WithLabelValues(result).Inc()
}
