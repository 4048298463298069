package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/stockai-go/internal/api"
	"github.com/irfndi/stockai-go/internal/api/handlers"
	"github.com/irfndi/stockai-go/internal/bootstrap"
	"github.com/irfndi/stockai-go/internal/cache"
	"github.com/irfndi/stockai-go/internal/config"
	"github.com/irfndi/stockai-go/internal/database"
	"github.com/irfndi/stockai-go/internal/logging"
	"github.com/irfndi/stockai-go/internal/marketdata"
	"github.com/irfndi/stockai-go/internal/services"
	"github.com/irfndi/stockai-go/internal/telemetry"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := logging.NewLogger(cfg.LogLevel)
	logger := logging.NewLogrus(cfg.LogLevel)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	provider, err := telemetry.InitTelemetryWithProvider(ctx, telemetryConfig(cfg), events.Logger())
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shutdown telemetry: %v\n", err)
		}
	}()

	if cfg.Telemetry.Enabled && cfg.Telemetry.Exporter == "otlp" {
		otlpEvents, shutdownLogs, err := logging.NewOTLPLogger(ctx, logging.OTLPConfig{
			Endpoint:       cfg.Telemetry.OTLPEndpoint,
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: version,
			Environment:    cfg.Environment,
			LogLevel:       cfg.LogLevel,
		})
		if err != nil {
			logger.WithError(err).Warn("OTLP log export disabled")
		} else {
			events = otlpEvents
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdownLogs(shutdownCtx)
			}()
		}
	}

	app, err := buildApplication(ctx, cfg, logger, events)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.Watchlist.ScanEnabled {
		if err := app.scanner.Start(ctx); err != nil {
			return fmt.Errorf("failed to start watchlist scanner: %w", err)
		}
		defer app.scanner.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.router,
		ReadTimeout:       config.Duration(cfg.Server.ReadTimeout, 30*time.Second),
		WriteTimeout:      config.Duration(cfg.Server.WriteTimeout, 60*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		events.LogStartup(telemetry.ServiceName, version, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	events.LogShutdown(telemetry.ServiceName, "signal received")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited gracefully")
	return nil
}

func telemetryConfig(cfg *config.Config) *telemetry.TelemetryConfig {
	tc := telemetry.DefaultConfig()
	tc.Enabled = cfg.Telemetry.Enabled
	tc.Exporter = cfg.Telemetry.Exporter
	tc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	tc.ServiceName = cfg.Telemetry.ServiceName
	tc.ServiceVersion = version
	tc.Environment = cfg.Environment
	return tc
}

// application holds the wired HTTP router and background workers.
type application struct {
	router  *gin.Engine
	scanner *services.WatchlistScanner
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApplication connects the optional stores and wires the pipeline.
// Redis and Postgres are only dialed when enabled in config.
func buildApplication(ctx context.Context, cfg *config.Config, logger *logrus.Logger, events *logging.Logger) (*application, error) {
	app := &application{}
	deps := api.Dependencies{
		ValidPeriod:    marketdata.ValidPeriod,
		HealthChecks:   map[string]handlers.HealthChecker{},
		Version:        version,
		JWTSecret:      jwtSecret(cfg, logger),
		AdminAPIKey:    cfg.Security.AdminAPIKey,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	}

	prices, news := bootstrap.MarketSources(cfg, logger)

	var lister services.SymbolLister
	if cfg.Redis.Enabled {
		redisClient, err := database.NewRedisConnection(ctx, cfg.Redis)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, redisClient.Close)
		deps.HealthChecks["redis"] = redisClient

		marketCache := cache.NewMarketDataCache(redisClient.Client,
			config.Duration(cfg.Cache.PriceTTL, 5*time.Minute),
			config.Duration(cfg.Cache.NewsTTL, 10*time.Minute),
			logger)
		prices = marketCache.Prices(prices)
		news = marketCache.News(news)
		deps.Cache = marketCache
		deps.Capabilities.Cache = true

		store := database.NewWatchlistStore(redisClient.Client)
		deps.Watchlist = store
		deps.Capabilities.Watchlist = true
		lister = store
	}

	var recorder services.AnalysisRecorder
	if cfg.Database.Enabled {
		db, err := database.NewPostgresConnection(ctx, cfg.Database)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, db.Close)
		deps.HealthChecks["postgres"] = db

		repo := database.NewAnalysisRepository(database.NewTracedPool(db.Pool))
		if err := repo.EnsureSchema(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to prepare analysis history schema: %w", err)
		}
		recorder = repo
		deps.History = repo
		deps.Capabilities.History = true
	}

	scorer, usesLLM := bootstrap.Scorer(cfg.LLM, logger)
	deps.Capabilities.LLMScorer = usesLLM
	deps.Capabilities.Sentiment = true

	analysis := bootstrap.AnalysisService(cfg, bootstrap.Pipeline{
		Prices:   prices,
		News:     news,
		Scorer:   scorer,
		Recorder: recorder,
	}, logger, events)
	deps.Analysis = analysis
	deps.News = news

	var notifier services.SignalNotifier
	if cfg.Telegram.BotToken != "" {
		ns, err := services.NewNotificationService(cfg.Telegram.BotToken, cfg.Telegram.ChatIDs, "", logger)
		if err != nil {
			logger.WithError(err).Warn("Telegram alerts disabled")
		} else {
			notifier = ns
			deps.Capabilities.Notifications = true
		}
	}

	app.scanner = services.NewWatchlistScanner(analysis, lister, notifier, logger, events, services.WatchlistScannerConfig{
		Schedule:         cfg.Watchlist.ScanSchedule,
		StaticSymbols:    cfg.Watchlist.Symbols,
		IncludeSentiment: true,
		MinConfidence:    cfg.Telegram.MinConfidence,
	})
	deps.Scanner = app.scanner
	deps.Capabilities.Scanner = cfg.Watchlist.ScanEnabled

	app.router = api.NewRouter(deps)
	return app, nil
}

// jwtSecret returns the configured secret. Development runs without one get
// a random per-process secret so tokens never validate across restarts.
func jwtSecret(cfg *config.Config, logger *logrus.Logger) string {
	if cfg.Security.JWTSecret != "" {
		return cfg.Security.JWTSecret
	}
	logger.Warn("JWT_SECRET not set, using an ephemeral development secret")
	return uuid.NewString()
}
