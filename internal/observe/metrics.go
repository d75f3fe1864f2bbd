// Package observe provides application-wide observability primitives for
// orderbot: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all orderbot metrics.
const meterName = "github.com/MrWong99/orderbot"

// Pipeline stage names used with [Metrics.RecordStage].
const (
	StageCorrect = "correct"
	StageExtract = "extract"
	StageMatch   = "match"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// TurnDuration tracks the latency of one dialogue turn. Use with
	// attribute.String("state", ...).
	TurnDuration metric.Float64Histogram

	// StageDuration tracks order pipeline stage latency. Use with
	// attribute.String("stage", ...).
	StageDuration metric.Float64Histogram

	// Turns counts dialogue turns. Use with attributes:
	//   attribute.String("state", ...), attribute.String("outcome", ...)
	Turns metric.Int64Counter

	// Unrecognised counts ordering turns where no menu item was understood.
	// Use with attribute.String("restaurant", ...).
	Unrecognised metric.Int64Counter

	// CorrectorFallbacks counts text corrections that failed and fell back.
	// Use with attribute.String("corrector", ...).
	CorrectorFallbacks metric.Int64Counter

	// OrdersPlaced counts confirmed orders. Use with
	// attribute.String("restaurant", ...).
	OrdersPlaced metric.Int64Counter

	// SinkErrors counts failed order log writes. Use with
	// attribute.String("sink", ...).
	SinkErrors metric.Int64Counter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...),
	//   attribute.String("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Most of a
// turn is local string work; the upper buckets catch LLM correction.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TurnDuration, err = m.Float64Histogram("orderbot.turn.duration",
		metric.WithDescription("Latency of one dialogue turn by state."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StageDuration, err = m.Float64Histogram("orderbot.pipeline.stage.duration",
		metric.WithDescription("Latency of order pipeline stages."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Turns, err = m.Int64Counter("orderbot.turns",
		metric.WithDescription("Total dialogue turns by state and outcome."),
	); err != nil {
		return nil, err
	}
	if met.Unrecognised, err = m.Int64Counter("orderbot.utterances.unrecognised",
		metric.WithDescription("Ordering turns where no menu item was recognised."),
	); err != nil {
		return nil, err
	}
	if met.CorrectorFallbacks, err = m.Int64Counter("orderbot.corrector.fallbacks",
		metric.WithDescription("Text corrections that failed and fell back to the original text."),
	); err != nil {
		return nil, err
	}
	if met.OrdersPlaced, err = m.Int64Counter("orderbot.orders.placed",
		metric.WithDescription("Confirmed orders by restaurant."),
	); err != nil {
		return nil, err
	}
	if met.SinkErrors, err = m.Int64Counter("orderbot.orderlog.errors",
		metric.WithDescription("Failed order log writes by sink."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("orderbot.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordTurn records one dialogue turn that started in state.
func (m *Metrics) RecordTurn(ctx context.Context, state, outcome string, d time.Duration) {
	m.Turns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("state", state),
			attribute.String("outcome", outcome),
		),
	)
	m.TurnDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("state", state)),
	)
}

// RecordStage records the latency of one pipeline stage.
func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	m.StageDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}

// RecordUnrecognised records an ordering turn that matched nothing.
func (m *Metrics) RecordUnrecognised(ctx context.Context, restaurant string) {
	m.Unrecognised.Add(ctx, 1,
		metric.WithAttributes(attribute.String("restaurant", restaurant)),
	)
}

// RecordCorrectorFallback records a failed correction.
func (m *Metrics) RecordCorrectorFallback(ctx context.Context, corrector string) {
	m.CorrectorFallbacks.Add(ctx, 1,
		metric.WithAttributes(attribute.String("corrector", corrector)),
	)
}

// RecordOrderPlaced records a confirmed order.
func (m *Metrics) RecordOrderPlaced(ctx context.Context, restaurant string) {
	m.OrdersPlaced.Add(ctx, 1,
		metric.WithAttributes(attribute.String("restaurant", restaurant)),
	)
}

// RecordSinkError records a failed order log write.
func (m *Metrics) RecordSinkError(ctx context.Context, sink string) {
	m.SinkErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("sink", sink)),
	)
}
