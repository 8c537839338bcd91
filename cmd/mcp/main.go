package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/medicaid-docextract/internal/app"
	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/observability"
	"github.com/zatekoja/medicaid-docextract/internal/tool"
	"github.com/zatekoja/medicaid-docextract/pkg/config"
	"github.com/zatekoja/medicaid-docextract/pkg/secrets"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vaultResult, vaultErr := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv())

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// stdout is the protocol channel
	observability.InitLoggerWithWriter(os.Stderr, cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)
	if vaultErr != nil {
		log.Warn().Err(vaultErr).Msg("failed to load vault secrets")
	} else if vaultResult.Enabled {
		log.Info().Strs("loaded", vaultResult.Loaded).Msg("vault secrets applied")
	}

	svc, err := app.NewExtractionService(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build extraction service")
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "medicaid-docextract",
		Version: cfg.OTEL.ServiceVersion,
	}, nil)
	tool.Register(server, svc)

	log.Info().Str("tool", tool.MetadataExtractHealthcareDocument.Name).Msg("MCP server listening on stdio")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("MCP server stopped")
	}
}
