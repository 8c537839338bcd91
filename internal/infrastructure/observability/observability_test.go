package observability

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type memoryExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (m *memoryExporter) Export(_ context.Context, records []sdklog.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records = append(m.records, r.Clone())
	}
	return nil
}

func (m *memoryExporter) Shutdown(context.Context) error   { return nil }
func (m *memoryExporter) ForceFlush(context.Context) error { return nil }

func TestOTelHook_ForwardsEvents(t *testing.T) {
	exp := &memoryExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))
	defer provider.Shutdown(context.Background())

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(NewOTelHook(provider.Logger("test")))

	logger.Warn().Str("field", "diagnosis").Msg("analyzer reply malformed")
	logger.Info().Msg("extraction complete")

	require.Len(t, exp.records, 2)
	assert.Equal(t, "analyzer reply malformed", exp.records[0].Body().AsString())
	assert.Equal(t, otellog.SeverityWarn, exp.records[0].Severity())
	assert.Equal(t, "warn", exp.records[0].SeverityText())
	assert.Equal(t, otellog.SeverityInfo, exp.records[1].Severity())
	assert.Contains(t, buf.String(), "analyzer reply malformed")
}

func TestOTelHook_NilLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(NewOTelHook(nil))

	assert.NotPanics(t, func() { logger.Error().Msg("boom") })
	assert.Contains(t, buf.String(), "boom")
}

func TestLoggerFromContext_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerWithWriter(&buf, "docextract-test", "production", "debug")

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	LoggerFromContext(ctx).Info().Msg("hello")

	out := buf.String()
	assert.Contains(t, out, `"service":"docextract-test"`)
	assert.Contains(t, out, span.SpanContext().TraceID().String())
	assert.Contains(t, out, `"message":"hello"`)
}

func TestInitLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerWithWriter(&buf, "docextract-test", "production", "loud")
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	GetLogger().Debug().Msg("hidden")
	assert.NotContains(t, buf.String(), "hidden")
}
