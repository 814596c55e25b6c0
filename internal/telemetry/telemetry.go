// Package telemetry provides Prometheus metrics and OpenTelemetry tracing for content-mirror.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "content-mirror"

// Outcome labels.
const (
	OutcomeIngested   = "ingested"
	OutcomeSkipped    = "skipped"
	OutcomeFailed     = "failed"
	OutcomeDownloaded = "downloaded"
	OutcomeCached     = "cached"
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
	OutcomeHit        = "hit"
	OutcomeMiss       = "miss"
)

// Metrics holds all content-mirror Prometheus metrics.
type Metrics struct {
	IngestsTotal      *prometheus.CounterVec
	IngestDuration    prometheus.Histogram
	AssetsTotal       *prometheus.CounterVec
	SymbolFetches     *prometheus.CounterVec
	WebhooksReceived  prometheus.Counter
	WebhooksProcessed *prometheus.CounterVec
	LookupsTotal      *prometheus.CounterVec
}

// Provider bundles the metrics registry and tracer. A nil *Provider records nothing.
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	registry *prometheus.Registry
}

// NewProvider creates a Provider with its own registry, including Go runtime collectors.
func NewProvider() *Provider {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Provider{
		Tracer:   otel.Tracer(serviceName),
		Metrics:  initMetrics(promauto.With(registry)),
		registry: registry,
	}
}

// Handler returns the /metrics HTTP handler.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

func initMetrics(factory promauto.Factory) *Metrics {
	return &Metrics{
		IngestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "content_mirror_ingests_total",
			Help: "Payload ingests by outcome",
		}, []string{"outcome"}),
		IngestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "content_mirror_ingest_duration_seconds",
			Help:    "Time to normalize and persist one payload",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		AssetsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "content_mirror_assets_total",
			Help: "Localized assets by context and outcome",
		}, []string{"context", "outcome"}),
		SymbolFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "content_mirror_symbol_fetches_total",
			Help: "Remote fetches of referenced symbol content",
		}, []string{"outcome"}),
		WebhooksReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "content_mirror_webhooks_received_total",
			Help: "Webhook notifications accepted",
		}),
		WebhooksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "content_mirror_webhooks_processed_total",
			Help: "Webhook notifications processed by outcome",
		}, []string{"outcome"}),
		LookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "content_mirror_lookups_total",
			Help: "Locale-aware content lookups by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

// RecordIngest counts one ingest and observes its duration when it was not skipped.
func (p *Provider) RecordIngest(outcome string, duration time.Duration) {
	if p == nil {
		return
	}
	p.Metrics.IngestsTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSkipped {
		p.Metrics.IngestDuration.Observe(duration.Seconds())
	}
}

// RecordAsset counts one localized asset.
func (p *Provider) RecordAsset(assetContext, outcome string) {
	if p == nil {
		return
	}
	p.Metrics.AssetsTotal.WithLabelValues(assetContext, outcome).Inc()
}

// RecordSymbolFetch counts one remote symbol fetch.
func (p *Provider) RecordSymbolFetch(outcome string) {
	if p == nil {
		return
	}
	p.Metrics.SymbolFetches.WithLabelValues(outcome).Inc()
}

// RecordWebhookReceived counts one accepted webhook.
func (p *Provider) RecordWebhookReceived() {
	if p == nil {
		return
	}
	p.Metrics.WebhooksReceived.Inc()
}

// RecordWebhookProcessed counts one processed webhook.
func (p *Provider) RecordWebhookProcessed(outcome string) {
	if p == nil {
		return
	}
	p.Metrics.WebhooksProcessed.WithLabelValues(outcome).Inc()
}

// RecordLookup counts one content lookup.
func (p *Provider) RecordLookup(kind string, found bool) {
	if p == nil {
		return
	}
	outcome := OutcomeMiss
	if found {
		outcome = OutcomeHit
	}
	p.Metrics.LookupsTotal.WithLabelValues(kind, outcome).Inc()
}

// StartSpan starts a span. With a nil Provider it uses the global tracer.
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(serviceName)
	if p != nil && p.Tracer != nil {
		tracer = p.Tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
