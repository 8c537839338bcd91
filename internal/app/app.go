// Package app assembles the extraction pipeline from configuration. It is
// shared by the HTTP server, the CLI and the MCP server.
package app

import (
	"context"
	"fmt"

	"github.com/zatekoja/medicaid-docextract/internal/adapters/documents"
	"github.com/zatekoja/medicaid-docextract/internal/adapters/nlp"
	"github.com/zatekoja/medicaid-docextract/internal/application/patterns"
	"github.com/zatekoja/medicaid-docextract/internal/application/services"
	"github.com/zatekoja/medicaid-docextract/internal/domain/providers"
	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/clients/ollama"
	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/observability"
	"github.com/zatekoja/medicaid-docextract/pkg/config"
)

// Options adjusts how the pipeline is assembled
type Options struct {
	// Offline skips the analyzer entirely
	Offline bool
	// EventBus receives progress events; nil disables publishing
	EventBus providers.ProgressEventBus
}

// NewExtractionService builds the extraction service described by cfg
func NewExtractionService(ctx context.Context, cfg *config.Config, opts Options) (*services.ExtractionService, error) {
	logger := observability.LoggerFromContext(ctx)

	if err := documents.SetPDFLicense(cfg.Documents.PDFLicenseKey); err != nil {
		logger.Warn().Err(err).Msg("pdf license rejected; pdf extraction may fail")
	}

	engine, err := loadEngine(cfg.Extraction.PatternsFile)
	if err != nil {
		return nil, err
	}

	var recognizer providers.EntityRecognizer
	if cfg.Extraction.EntityRecognition {
		recognizer = nlp.NewProseRecognizer(0)
	}

	var analyzer providers.AnalyzerProvider
	switch {
	case opts.Offline:
		logger.Debug().Msg("analyzer skipped in offline mode")
	case !cfg.Analyzer.Enabled:
		logger.Info().Msg("analyzer disabled by configuration")
	default:
		client, err := ollama.NewClient(&cfg.Analyzer)
		if err != nil {
			return nil, fmt.Errorf("failed to create analyzer client: %w", err)
		}
		analyzer = client
	}

	return services.NewExtractionService(
		analyzer,
		services.NewFallbackExtractor(engine, recognizer),
		services.ExtractionConfig{
			ProbeTimeout:    cfg.Analyzer.ProbeTimeout,
			AnalyzerTimeout: cfg.Analyzer.Timeout,
			Documents:       documents.NewDefaultRouter(),
			EventBus:        opts.EventBus,
		},
	), nil
}

func loadEngine(path string) (*patterns.Engine, error) {
	if path == "" {
		return patterns.NewDefaultEngine()
	}
	engine, err := patterns.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns from %s: %w", path, err)
	}
	return engine, nil
}

// SetupTelemetry initializes OpenTelemetry when enabled. The returned
// function is always safe to call.
func SetupTelemetry(ctx context.Context, cfg *config.Config) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint == "" {
		return noop
	}

	shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
	if err != nil {
		observability.GetLogger().Warn().Err(err).Msg("failed to set up OpenTelemetry")
		return noop
	}
	observability.GetLogger().Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
	return shutdown
}
