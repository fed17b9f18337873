// Package metrics содержит Prometheus-метрики HTTP API сервера
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace префикс всех метрик сервиса
const Namespace = "repairdesk"

// Metrics набор метрик сервера.
// Каждый экземпляр использует собственный registry.
type Metrics struct {
	registry *prometheus.Registry

	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	panics          prometheus.Counter

	rateLimitDenied *prometheus.CounterVec
	sessions        *prometheus.CounterVec
	catalogBuild    prometheus.Histogram
}

// New создает метрики и регистрирует их вместе с go/process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		panics: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "panics_total",
				Help:      "Total number of recovered handler panics",
			},
		),
		rateLimitDenied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "ratelimit",
				Name:      "denied_total",
				Help:      "Total number of requests denied by rate limiter",
			},
			[]string{"limiter"},
		),
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "pos",
				Name:      "sessions_total",
				Help:      "POS session tokens issued and validated",
			},
			[]string{"operation", "result"},
		),
		catalogBuild: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "catalog",
				Name:      "tree_build_seconds",
				Help:      "Duration of catalog tree building in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
			},
		),
	}

	m.registry.MustRegister(
		m.requestCount,
		m.requestDuration,
		m.panics,
		m.rateLimitDenied,
		m.sessions,
		m.catalogBuild,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry возвращает registry для тестов и дополнительных collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдает метрики в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest учитывает завершенный HTTP запрос.
// route - шаблон маршрута, а не фактический путь, чтобы не раздувать кардинальность.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	m.requestCount.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncPanics учитывает перехваченную панику
func (m *Metrics) IncPanics() {
	m.panics.Inc()
}

// IncRateLimitDenied учитывает отказ лимитера
func (m *Metrics) IncRateLimitDenied(limiter string) {
	m.rateLimitDenied.WithLabelValues(limiter).Inc()
}

// IncSession учитывает выпуск или проверку токена сессии
func (m *Metrics) IncSession(operation string, ok bool) {
	result := "ok"
	if !ok {
		result = "rejected"
	}
	m.sessions.WithLabelValues(operation, result).Inc()
}

// ObserveCatalogBuild учитывает время построения дерева каталога
func (m *Metrics) ObserveCatalogBuild(duration time.Duration) {
	m.catalogBuild.Observe(duration.Seconds())
}
