package services

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
)

const instrumentationName = "github.com/zatekoja/medicaid-docextract/extraction"

type extractionMetrics struct {
	documents metric.Int64Counter
	duration  metric.Float64Histogram
	fallbacks metric.Int64Counter
}

var (
	extractionMetricsOnce sync.Once
	extractionMetricsInst *extractionMetrics
)

func ensureExtractionMetrics() *extractionMetrics {
	extractionMetricsOnce.Do(func() {
		meter := otel.Meter(instrumentationName)

		documents, err := meter.Int64Counter(
			"extraction.documents.count",
			metric.WithDescription("Number of processed documents"),
		)
		if err != nil {
			return
		}
		duration, err := meter.Float64Histogram(
			"extraction.documents.duration",
			metric.WithDescription("Document processing duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		fallbacks, err := meter.Int64Counter(
			"extraction.fallback.count",
			metric.WithDescription("Number of documents routed to fallback extraction"),
		)
		if err != nil {
			return
		}

		extractionMetricsInst = &extractionMetrics{
			documents: documents,
			duration:  duration,
			fallbacks: fallbacks,
		}
	})
	return extractionMetricsInst
}

func recordExtractionMetric(ctx context.Context, method entities.ProcessingMethod, source string, elapsed time.Duration) {
	m := ensureExtractionMetrics()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("extraction.method", string(method)),
		attribute.String("extraction.source", source),
	)
	m.documents.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
}

func recordFallbackMetric(ctx context.Context, reason string) {
	m := ensureExtractionMetrics()
	if m == nil {
		return
	}
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("extraction.fallback_reason", reason)))
}
