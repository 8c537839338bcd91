package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/medicaid-docextract/internal/adapters/events"
	"github.com/zatekoja/medicaid-docextract/internal/api/handlers"
	"github.com/zatekoja/medicaid-docextract/internal/api/middleware"
	"github.com/zatekoja/medicaid-docextract/internal/api/routes"
	"github.com/zatekoja/medicaid-docextract/internal/app"
	"github.com/zatekoja/medicaid-docextract/internal/domain/providers"
	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/clients/redis"
	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/observability"
	"github.com/zatekoja/medicaid-docextract/pkg/config"
	"github.com/zatekoja/medicaid-docextract/pkg/retry"
	"github.com/zatekoja/medicaid-docextract/pkg/secrets"
)

func main() {
	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Vault secrets populate the environment before configuration is read
	vaultResult, vaultErr := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv())

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)
	if vaultErr != nil {
		log.Warn().Err(vaultErr).Msg("failed to load vault secrets")
	} else if vaultResult.Enabled {
		log.Info().Strs("loaded", vaultResult.Loaded).Msg("vault secrets applied")
	}

	// Initialize OpenTelemetry if enabled
	shutdownTelemetry := app.SetupTelemetry(ctx, cfg)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			log.Error().Err(err).Msg("error shutting down OpenTelemetry")
		}
	}()

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize event bus for progress streaming
	var eventBus providers.ProgressEventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis, retry.DefaultConfig())
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable; using in-process event bus")
		} else {
			defer redisClient.Close()
			eventBus = events.NewRedisEventBusWithPrefix(redisClient, cfg.Redis.ChannelPrefix)
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("redis event bus initialized")
		}
	}
	if eventBus == nil {
		eventBus = events.NewMemoryEventBus()
	}
	defer eventBus.Close()

	// Initialize services
	extractionService, err := app.NewExtractionService(ctx, cfg, app.Options{EventBus: eventBus})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize extraction service")
	}

	// Initialize handlers
	extractionHandler := handlers.NewExtractionHandler(extractionService, cfg.Documents.UploadMaxBytes())
	sseHandler := handlers.NewSSEHandler(eventBus)

	// Set up router
	router := routes.NewRouter(
		extractionHandler,
		sseHandler,
		middleware.ParseAllowedOrigins(cfg.Server.AllowedOrigins),
		metrics,
	)

	// No WriteTimeout: SSE streams stay open until the client leaves.
	server := &http.Server{
		Addr:              cfg.Server.ServerAddr(),
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
}
