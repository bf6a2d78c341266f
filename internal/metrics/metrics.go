// Package metrics содержит счётчики Prometheus для планировщика и HTTP API.
// Каждый процесс создаёт свой реестр, поэтому тесты не делят состояние.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "subscription_tracker"

// Metrics набор счётчиков одного процесса.
type Metrics struct {
	registry *prometheus.Registry

	ReportsGenerated *prometheus.CounterVec
	RemindersQueued  prometheus.Counter
	SchedulingErrors prometheus.Counter
	UserFailures     prometheus.Counter
	Runs             prometheus.Counter
	RunDuration      prometheus.Histogram

	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New создаёт счётчики и регистрирует их в собственном реестре.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Reports rendered, emailed and saved, partitioned by kind.",
		}, []string{"kind"}),
		RemindersQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_queued_total",
			Help:      "Renewal reminders published to the broker.",
		}),
		SchedulingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduling_errors_total",
			Help:      "Subscriptions whose next renewal date could not be computed.",
		}),
		UserFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_failures_total",
			Help:      "Users skipped in a scheduler run because of an error.",
		}),
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_runs_total",
			Help:      "Completed scheduler runs.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_run_duration_seconds",
			Help:      "Duration of a scheduler run over all users.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "How many HTTP requests processed, partitioned by status code and HTTP method.",
		}, []string{"code", "method"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "The HTTP request latencies in seconds.",
		}, []string{"code", "method"}),
	}
	m.registry.MustRegister(
		m.ReportsGenerated,
		m.RemindersQueued,
		m.SchedulingErrors,
		m.UserFailures,
		m.Runs,
		m.RunDuration,
		m.requestCount,
		m.requestDuration,
	)
	return m
}

// Handler отдаёт содержимое реестра для /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware считает HTTP-запросы и их длительность.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)
		m.requestCount.WithLabelValues(code, r.Method).Inc()
		m.requestDuration.WithLabelValues(code, r.Method).Observe(time.Since(start).Seconds())
	})
}
