package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autohaul_crm_backend/internal/adapters"
	"autohaul_crm_backend/internal/dispatches"
	apphttp "autohaul_crm_backend/internal/http"
	"autohaul_crm_backend/internal/http/router"
	"autohaul_crm_backend/internal/identity"
	"autohaul_crm_backend/internal/ingestion"
	"autohaul_crm_backend/internal/leads"
	"autohaul_crm_backend/internal/notification"
	"autohaul_crm_backend/internal/orders"
	"autohaul_crm_backend/internal/pipeline"
	"autohaul_crm_backend/internal/quotes"
	"autohaul_crm_backend/internal/scheduler"
	"autohaul_crm_backend/platform/config"
	"autohaul_crm_backend/platform/db"
	"autohaul_crm_backend/platform/events"
	"autohaul_crm_backend/platform/logger"
	"autohaul_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	identityModule := identity.NewModule(pool, val)
	leadsModule := leads.NewModule(pool, val)
	quotesModule := quotes.NewModule(pool, val)
	ordersModule := orders.NewModule(pool, val)
	dispatchesModule := dispatches.NewModule(pool, val)
	pipelineModule := pipeline.NewModule(pool, val, eventBus, log)
	ingestionModule := ingestion.NewModule(leadsModule.Service(), cfg, log)

	// Wire agent directory: leads → identity (for the stats rollup)
	agentDirectory := adapters.NewIdentityAgentDirectory(identityModule.Service())
	leadsModule.SetAgentDirectory(agentDirectory)

	// Notification module subscribes to conversion events (not HTTP-facing)
	notification.NewModule(eventBus, identityModule.Service(), cfg, log)

	// ========================================================================
	// Background Scheduler (optional, Redis-backed)
	// ========================================================================

	if cfg.GetRedisURL() != "" {
		schedulerClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize scheduler client", "error", err)
			panic("failed to initialize scheduler client: " + err.Error())
		}
		defer schedulerClient.Close()

		worker, err := scheduler.NewWorker(cfg, ingestionModule.Service(), log)
		if err != nil {
			log.Error("failed to initialize scheduler worker", "error", err)
			panic("failed to initialize scheduler worker: " + err.Error())
		}

		go worker.Run(ctx)
		go schedulerClient.RunIngestionPollLoop(ctx, cfg.GetIngestionPollInterval(), log)
		log.Info("scheduler started", "pollInterval", cfg.GetIngestionPollInterval().String())
	} else {
		log.Warn("REDIS_URL not configured; feed polling disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			identityModule,
			leadsModule,
			quotesModule,
			ordersModule,
			dispatchesModule,
			pipelineModule,
			ingestionModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
