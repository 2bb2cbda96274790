package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/prperemyshlev/film-service/internal/service"

const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

type queryMetrics struct {
	queries   metric.Int64Counter
	duration  metric.Float64Histogram
	cacheHits metric.Int64Counter
}

// newQueryMetrics binds instruments to the global meter provider.
// Instrument creation errors leave a no-op instrument in place.
func newQueryMetrics() *queryMetrics {
	meter := otel.Meter(meterName)

	queries, _ := meter.Int64Counter("film_queries",
		metric.WithDescription("Film lookups by outcome"))
	duration, _ := meter.Float64Histogram("film_query_duration",
		metric.WithDescription("Film lookup latency"),
		metric.WithUnit("s"))
	cacheHits, _ := meter.Int64Counter("film_cache_hits",
		metric.WithDescription("Film lookups answered from cache"))

	return &queryMetrics{
		queries:   queries,
		duration:  duration,
		cacheHits: cacheHits,
	}
}

func (m *queryMetrics) record(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.queries.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *queryMetrics) cacheHit(ctx context.Context) {
	m.cacheHits.Add(ctx, 1)
}
