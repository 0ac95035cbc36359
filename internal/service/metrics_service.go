package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry. A nil *MetricsService is a valid no-op.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	transitions     *prometheus.CounterVec
	verifications   *prometheus.CounterVec
	loginThrottled  prometheus.Counter
	outboxEvents    *prometheus.CounterVec
	outboxPending   prometheus.Gauge
}

func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_transitions_total",
		Help: "Enrollment lifecycle transitions by outcome",
	}, []string{"transition", "outcome"})

	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_code_verifications_total",
		Help: "Portal access code verifications by result",
	}, []string{"result"})

	loginThrottled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_login_throttled_total",
		Help: "Portal logins refused by the attempt limiter",
	})

	outboxEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_outbox_events_total",
		Help: "Outbox events processed by the relay",
	}, []string{"outcome"})

	outboxPending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notification_outbox_pending",
		Help: "Outbox events waiting for dispatch",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		transitions, verifications, loginThrottled, outboxEvents, outboxPending, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		transitions:     transitions,
		verifications:   verifications,
		loginThrottled:  loginThrottled,
		outboxEvents:    outboxEvents,
		outboxPending:   outboxPending,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry is exposed for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordTransition counts a lifecycle transition attempt; outcome is "ok" or an error code.
func (m *MetricsService) RecordTransition(transition, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(transition, outcome).Inc()
}

func (m *MetricsService) RecordCredentialVerification(result string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(result).Inc()
}

func (m *MetricsService) RecordLoginThrottled() {
	if m == nil {
		return
	}
	m.loginThrottled.Inc()
}

func (m *MetricsService) RecordOutbox(outcome string) {
	if m == nil {
		return
	}
	m.outboxEvents.WithLabelValues(outcome).Inc()
}

func (m *MetricsService) SetOutboxPending(n int) {
	if m == nil {
		return
	}
	m.outboxPending.Set(float64(n))
}
