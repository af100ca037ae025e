package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/satriahrh/incident-relay/server/domain/repositories"
)

// Metrics holds the relay's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	uploadBytes     prometheus.Histogram
	modelDuration   *prometheus.HistogramVec
	modelCallsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "incident_relay",
		Name:      "http_requests_total",
		Help:      "Number of extraction requests by endpoint and status code",
	}, []string{"endpoint", "code"})
	m.uploadBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "incident_relay",
		Name:      "upload_bytes",
		Help:      "Size of consumed audio uploads",
		Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 8),
	})
	m.modelDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "incident_relay",
		Name:      "model_call_duration_seconds",
		Help:      "Latency of hosted model calls",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode", "outcome"})
	m.modelCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "incident_relay",
		Name:      "model_calls_total",
		Help:      "Number of hosted model calls by mode and outcome",
	}, []string{"mode", "outcome"})

	m.registry.MustRegister(
		m.requestsTotal, m.uploadBytes, m.modelDuration, m.modelCallsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics handler for echo
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// ObserveRequest counts a finished extraction request
func (m *Metrics) ObserveRequest(endpoint string, code int) {
	m.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// ObserveUpload records the size of a consumed upload
func (m *Metrics) ObserveUpload(size int) {
	m.uploadBytes.Observe(float64(size))
}

// RequestCounter returns the request counter for endpoint and code, for tests
func (m *Metrics) RequestCounter(endpoint string, code int) prometheus.Counter {
	return m.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(code))
}

// ModelCallCounter returns the model call counter for mode and outcome, for tests
func (m *Metrics) ModelCallCounter(mode, outcome string) prometheus.Counter {
	return m.modelCallsTotal.WithLabelValues(mode, outcome)
}

// InstrumentGenerator wraps a content generator so every call is timed and counted
func (m *Metrics) InstrumentGenerator(next repositories.ContentGenerator) repositories.ContentGenerator {
	return &instrumentedGenerator{next: next, metrics: m}
}

type instrumentedGenerator struct {
	next    repositories.ContentGenerator
	metrics *Metrics
}

func (g *instrumentedGenerator) GenerateContent(ctx context.Context, parts []repositories.Part, directive *repositories.ToolDirective) (*repositories.Generation, error) {
	mode := "text"
	if directive != nil {
		mode = "function_call"
	}

	start := time.Now()
	generation, err := g.next.GenerateContent(ctx, parts, directive)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case directive != nil && generation.FunctionCall == nil:
		outcome = "no_function_call"
	}

	g.metrics.modelDuration.WithLabelValues(mode, outcome).Observe(time.Since(start).Seconds())
	g.metrics.modelCallsTotal.WithLabelValues(mode, outcome).Inc()

	return generation, err
}
