// Package telemetry provides OpenTelemetry instrumentation for the
// risk engine. It exports Prometheus metrics and tracing capabilities.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "risk-engine"

// Metrics holds all risk engine Prometheus metrics.
type Metrics struct {
	// Classification metrics
	CommentsAssessed      *prometheus.CounterVec
	CommentsFailed        *prometheus.CounterVec
	AssessmentDuration    *prometheus.HistogramVec
	AssessmentsByCategory *prometheus.CounterVec
	AssessmentsByLevel    *prometheus.CounterVec

	// Model path metrics
	ModelCalls        prometheus.Counter
	ModelSafetyBlocks prometheus.Counter
	ParseFailures     prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Processor metrics
	BatchSize     prometheus.Histogram
	QueueDepth    prometheus.Gauge
	ActiveWorkers prometheus.Gauge
	PollerLag     prometheus.Histogram
}

// Provider wraps telemetry providers.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics.
func NewProvider() *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initClassificationMetrics(m)
	initModelMetrics(m)
	initCacheMetrics(m)
	initProcessorMetrics(m)
	return m
}

func initClassificationMetrics(m *Metrics) {
	m.CommentsAssessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_engine_comments_assessed_total",
		Help: "Total comments successfully assessed",
	}, []string{"method"})

	m.CommentsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_engine_comments_failed_total",
		Help: "Total comments that failed assessment",
	}, []string{"method", "error_kind"})

	m.AssessmentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "risk_engine_assessment_duration_seconds",
		Help:    "Time to assess a single comment",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"method"})

	m.AssessmentsByCategory = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_engine_assessments_by_category_total",
		Help: "Assessments grouped by resolved risk category",
	}, []string{"category"})

	m.AssessmentsByLevel = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_engine_assessments_by_level_total",
		Help: "Assessments grouped by resolved risk level",
	}, []string{"level"})
}

func initModelMetrics(m *Metrics) {
	m.ModelCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "risk_engine_model_calls_total",
		Help: "Total generation model invocations",
	})

	m.ModelSafetyBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "risk_engine_model_safety_blocks_total",
		Help: "Total model refusals for safety reasons",
	})

	m.ParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "risk_engine_parse_failures_total",
		Help: "Total model responses that contained no valid JSON",
	})
}

func initCacheMetrics(m *Metrics) {
	m.CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "risk_engine_cache_hits_total",
		Help: "Assessment cache hits",
	})

	m.CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "risk_engine_cache_misses_total",
		Help: "Assessment cache misses",
	})
}

func initProcessorMetrics(m *Metrics) {
	m.BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "risk_engine_batch_size",
		Help:    "Number of comments per processed batch",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 200},
	})

	m.QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "risk_engine_queue_depth",
		Help: "Current pending comments in work queue",
	})

	m.ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "risk_engine_active_workers",
		Help: "Currently active worker goroutines",
	})

	m.PollerLag = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "risk_engine_poller_lag_seconds",
		Help:    "Time between comment collection and assessment start",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
	})
}

// RecordAssessment records a completed assessment with its resolved
// category and level. Empty fields count under "unresolved".
func (p *Provider) RecordAssessment(ctx context.Context, method, category, level string, duration time.Duration) {
	p.Metrics.CommentsAssessed.WithLabelValues(method).Inc()
	p.Metrics.AssessmentDuration.WithLabelValues(method).Observe(duration.Seconds())
	p.Metrics.AssessmentsByCategory.WithLabelValues(orUnresolved(category)).Inc()
	p.Metrics.AssessmentsByLevel.WithLabelValues(orUnresolved(level)).Inc()
}

// RecordAssessmentFailure records a failed assessment with its error kind.
func (p *Provider) RecordAssessmentFailure(ctx context.Context, method, errorKind string) {
	p.Metrics.CommentsFailed.WithLabelValues(method, errorKind).Inc()
}

// RecordModelCall counts one generation model invocation.
func (p *Provider) RecordModelCall(ctx context.Context) {
	p.Metrics.ModelCalls.Inc()
}

// RecordSafetyBlock counts one model safety refusal.
func (p *Provider) RecordSafetyBlock(ctx context.Context) {
	p.Metrics.ModelSafetyBlocks.Inc()
}

// RecordParseFailure counts one unparseable model response.
func (p *Provider) RecordParseFailure(ctx context.Context) {
	p.Metrics.ParseFailures.Inc()
}

// RecordCacheHit counts an assessment served from cache.
func (p *Provider) RecordCacheHit(ctx context.Context) {
	p.Metrics.CacheHits.Inc()
}

// RecordCacheMiss counts an assessment that had to be computed.
func (p *Provider) RecordCacheMiss(ctx context.Context) {
	p.Metrics.CacheMisses.Inc()
}

// RecordPollerLag records the freshness lag for a polled comment.
func (p *Provider) RecordPollerLag(ctx context.Context, collectedAt time.Time) {
	p.Metrics.PollerLag.Observe(time.Since(collectedAt).Seconds())
}

// RecordBatchSize records the size of a processed batch.
func (p *Provider) RecordBatchSize(size int) {
	p.Metrics.BatchSize.Observe(float64(size))
}

// SetQueueDepth sets the current queue depth.
func (p *Provider) SetQueueDepth(depth int) {
	p.Metrics.QueueDepth.Set(float64(depth))
}

// SetActiveWorkers sets the current active worker count.
func (p *Provider) SetActiveWorkers(count int) {
	p.Metrics.ActiveWorkers.Set(float64(count))
}

// StartSpan starts a new trace span.
// The caller is responsible for ending the span with span.End().
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}

func orUnresolved(label string) string {
	if label == "" {
		return "unresolved"
	}
	return label
}
