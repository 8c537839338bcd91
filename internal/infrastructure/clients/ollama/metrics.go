package ollama

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	opProbe    = "probe"
	opGenerate = "generate"
)

type analyzerMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
}

var (
	analyzerMetricsOnce sync.Once
	analyzerMetricsInst *analyzerMetrics
)

func ensureAnalyzerMetrics() *analyzerMetrics {
	analyzerMetricsOnce.Do(func() {
		meter := otel.Meter("github.com/zatekoja/medicaid-docextract/ollama")

		requestCount, err := meter.Int64Counter(
			"ai.analyzer.request.count",
			metric.WithDescription("Number of analyzer requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.analyzer.request.duration",
			metric.WithDescription("Analyzer request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.analyzer.request.errors",
			metric.WithDescription("Number of analyzer request errors"),
		)
		if err != nil {
			return
		}

		analyzerMetricsInst = &analyzerMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
		}
	})
	return analyzerMetricsInst
}

func recordAnalyzerMetric(ctx context.Context, model, operation string, statusCode int, duration time.Duration, err error) {
	m := ensureAnalyzerMetrics()
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "ollama"),
		attribute.String("ai.model", model),
		attribute.String("ai.operation", operation),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	m.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		m.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
