package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"linkguard/internal/ai"
	"linkguard/internal/api"
	"linkguard/internal/api/handlers"
	"linkguard/internal/config"
	"linkguard/internal/detector"
	"linkguard/internal/domain/services"
	"linkguard/internal/infrastructure/cache"
	"linkguard/internal/infrastructure/database"
	"linkguard/internal/infrastructure/database/repository"
	"linkguard/internal/integrations/telegram"
	"linkguard/internal/integrations/whatsapp"
	"linkguard/internal/streaming"
	"linkguard/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting LinkGuard")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache, err := initInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Initialize repositories
	var (
		scanRepo  services.ScanRepository
		knownRepo services.KnownScamRepository
		reports   services.ReportRepository
	)
	if db != nil {
		scanRepo = repository.NewScanRepository(db.Pool())
		knownRepo = repository.NewKnownScamRepository(db.Pool())
		reports = repository.NewReportRepository(db.Pool())
		log.Info().Msg("repositories initialized with database")
	} else {
		log.Warn().Msg("running without database - scan history and blocklist unavailable")
	}

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without event streaming")
		} else {
			defer natsPublisher.Close()
			log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")
		}
	}
	var publisher services.EventPublisher
	if natsPublisher != nil {
		publisher = natsPublisher
	}

	// Initialize AI analyzer (optional extra detection signal)
	var extraSignal detector.ExtraFunc
	if aiAnalyzer := ai.NewAnalyzer(cfg.AI, log); aiAnalyzer != nil {
		extraSignal = aiAnalyzer.Score
		log.Info().Str("model", cfg.AI.Model).Msg("AI analysis enabled")
	}

	// Wire the known-scam gate straight to the blocklist repository
	var gate detector.LookupFunc
	if knownRepo != nil {
		gate = knownRepo.GetByDomain
	}

	det := detector.New(detector.Options{
		Threshold:       cfg.Detection.Threshold,
		BaseWeight:      cfg.Detection.BaseWeight,
		ExtraWeight:     cfg.Detection.ExtraWeight,
		FetchTimeout:    cfg.Detection.FetchTimeout,
		TLSTimeout:      cfg.Detection.TLSTimeout,
		KnownScamLookup: gate,
		ExtraSignal:     extraSignal,
	}, log)

	scanService := services.NewScanService(det, scanRepo, knownRepo, reports, redisCache, publisher, cfg.Detection, log)

	// Chat platform integrations
	tgWebhook := telegram.NewWebhook(cfg.Telegram, scanService, log)
	if tgWebhook != nil {
		log.Info().Msg("Telegram webhook enabled")
	}
	waWebhook := whatsapp.NewWebhook(cfg.WhatsApp, scanService, log)
	if waWebhook != nil {
		log.Info().Msg("WhatsApp webhook enabled")
	}

	// Initialize handlers and router
	h := handlers.NewHandlers(handlers.Dependencies{
		Scans:  scanService,
		Cache:  redisCache,
		DB:     db,
		Config: *cfg,
		Logger: log,
	})
	router := api.NewRouter(*cfg, h, redisCache, tgWebhook, waWebhook, log)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure initializes database and cache connections
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache, error) {
	// Connect to PostgreSQL
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
		db = nil
	}

	// Connect to Redis
	redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
	if err != nil {
		return db, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return db, redisCache, nil
}
