// Package main is the entry point for the sales document API server.
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

	"salesdocs/internal/config"
	"salesdocs/internal/core/numerator"
	"salesdocs/internal/domain/auth"
	"salesdocs/internal/domain/documents"
	v1 "salesdocs/internal/infrastructure/http/v1"
	"salesdocs/internal/infrastructure/http/v1/handlers"
	"salesdocs/internal/infrastructure/http/v1/middleware"
	"salesdocs/internal/infrastructure/notify"
	"salesdocs/internal/infrastructure/storage/migrations"
	"salesdocs/internal/infrastructure/storage/postgres"
	"salesdocs/internal/infrastructure/storage/postgres/document_repo"
	"salesdocs/internal/infrastructure/storage/sqlite"
	"salesdocs/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting salesdocs server", "env", cfg.Env, "counter_store", cfg.Numbering.CounterStore)

	if cfg.Database.URL == "" {
		log.Fatalw("DATABASE_URL is required")
	}

	// --- Schema ---
	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.URL); err != nil {
			log.Fatalw("failed to apply migrations", "error", err)
		}
		log.Info("database schema is up to date")
	}

	// --- Database connection ---
	pool, err := postgres.NewPool(ctx, cfg.PoolConfig())
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Numerator ---
	counters, closeCounters, err := openCounterStore(cfg, pool)
	if err != nil {
		log.Fatalw("failed to open counter store", "error", err)
	}
	defer closeCounters()

	targets, err := cfg.RegistryTargets()
	if err != nil {
		log.Fatalw("invalid registry configuration", "error", err)
	}
	registry, err := postgres.NewRegistry(pool, targets)
	if err != nil {
		log.Fatalw("failed to build document registry", "error", err)
	}

	numeratorCfg, err := cfg.NumeratorConfig()
	if err != nil {
		log.Fatalw("invalid numbering configuration", "error", err)
	}
	numbers := numerator.NewService(counters, registry, numeratorCfg)

	// --- Documents ---
	audit, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit", "error", err)
	}

	docService := documents.NewService(documents.ServiceConfig{
		Repo:            document_repo.NewRepo(txManager),
		Numbers:         numbers,
		TxManager:       txManager,
		Audit:           audit,
		PersistAttempts: cfg.Numbering.PersistAttempts,
	})

	// --- Notifications ---
	var dispatcher *notify.Dispatcher
	if len(cfg.Notify.Webhooks) > 0 {
		sender := notify.NewWebhookSender(cfg.Notify.Webhooks, nil)
		dispatcher = notify.NewDispatcher(sender, notify.DispatcherConfig{
			QueueSize: cfg.Notify.QueueSize,
			Workers:   cfg.Notify.Workers,
			Timeout:   cfg.Notify.Timeout,
		}, log.WithComponent("notify"))
		docService.Hooks().OnAfterCreate(documents.NotifyOnCreate(dispatcher))
		log.Infow("webhook notifications enabled", "targets", len(cfg.Notify.Webhooks))
	}

	// --- JWT ---
	var validator middleware.JWTValidator
	if cfg.Auth.JWTSecret != "" {
		jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
		jwtConfig.Issuer = cfg.Auth.Issuer
		validator = auth.NewJWTService(jwtConfig)
	} else {
		log.Warn("JWT_SECRET is not set, API runs without authentication")
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		Documents:      docService,
		Numbers:        numbers,
		HealthChecks:   map[string]handlers.Pinger{"database": txManager},
		JWTValidator:   validator,
		AuthRequired:   cfg.Auth.Required,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Development:    cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	if dispatcher != nil {
		if err := dispatcher.Close(shutdownCtx); err != nil {
			log.Warnw("pending notifications dropped", "error", err)
		}
	}

	log.Info("server stopped")
}

func openCounterStore(cfg config.Config, pool *postgres.Pool) (numerator.CounterStore, func(), error) {
	if cfg.Numbering.CounterStore == config.CounterStoreSQLite {
		store, err := sqlite.Open(cfg.Numbering.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	return postgres.NewCounterStore(pool), func() {}, nil
}
