package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/chat-recap/internal/config"
	httpcontroller "github.com/vadim/chat-recap/internal/controller/http"
	"github.com/vadim/chat-recap/internal/database"
	"github.com/vadim/chat-recap/internal/domain/transcript/dao"
	"github.com/vadim/chat-recap/internal/domain/transcript/entity"
	"github.com/vadim/chat-recap/internal/domain/transcript/policy"
	"github.com/vadim/chat-recap/internal/domain/transcript/scheduler"
	"github.com/vadim/chat-recap/internal/domain/transcript/service"
	"github.com/vadim/chat-recap/internal/domain/transcript/stats"
	"github.com/vadim/chat-recap/internal/httpx/response"
	"github.com/vadim/chat-recap/internal/storage"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	// Infrastructure, nil when not configured
	pool    *pgxpool.Pool
	archive *storage.S3Storage

	// Domain policies (interfaces for HTTP handlers)
	transcriptPolicy *policy.Policy

	// Scheduler for purging expired reports
	scheduler *scheduler.Scheduler
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger := NewLogger(cfg.Log.Level)

	requestTimeout := cfg.Server.WriteTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	// Initialize router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(requestTimeout))

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	// Initialize infrastructure
	if err := app.initInfrastructure(ctx); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	// Initialize domain layers
	if err := app.initDomains(); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	// Register routes
	if err := app.registerRoutes(); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("registering routes: %w", err)
	}

	// Initialize HTTP server
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// NewLogger builds the JSON logger at the given level (debug, info, warn, error)
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
}

// initInfrastructure initializes infrastructure components (Postgres, S3)
func (a *App) initInfrastructure(ctx context.Context) error {
	if dsn := a.cfg.Database.PostgresDSN; dsn != "" {
		pool, err := database.NewPostgresPool(ctx, dsn, database.PoolConfig{
			MaxConns:     int32(a.cfg.Database.MaxOpenConns),
			MinConns:     int32(a.cfg.Database.MaxIdleConns),
			ConnLifetime: a.cfg.Database.ConnLifetime,
		})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		a.pool = pool

		if a.cfg.Database.AutoMigrate {
			applied, err := database.Migrate(ctx, pool)
			if err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			a.logger.Info("database migrated", "applied", applied)
		}
	} else {
		a.logger.Warn("DATABASE_URL not set, reports will not be stored")
	}

	if a.cfg.S3.Enabled {
		archive, err := storage.NewS3Storage(storage.S3Config{
			Endpoint:        a.cfg.S3.Endpoint,
			AccessKeyID:     a.cfg.S3.AccessKeyID,
			SecretAccessKey: a.cfg.S3.SecretAccessKey,
			Bucket:          a.cfg.S3.Bucket,
			Region:          a.cfg.S3.Region,
			Prefix:          a.cfg.S3.Prefix,
		})
		if err != nil {
			return fmt.Errorf("creating s3 storage: %w", err)
		}
		a.archive = archive
	}

	return nil
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains() error {
	loc, err := a.cfg.Analyzer.Location()
	if err != nil {
		return err
	}
	order, err := entity.ParseDateOrder(a.cfg.Analyzer.DateOrder)
	if err != nil {
		return fmt.Errorf("analyzer date order: %w", err)
	}

	svcCfg := service.Config{
		Location:  loc,
		Retention: a.cfg.Analyzer.Retention,
		Stats: stats.Options{
			InitiationGap: a.cfg.Analyzer.InitiationGap,
			SilenceGap:    a.cfg.Analyzer.SilenceGap,
		},
	}

	var svc *service.Service
	if a.pool != nil {
		var archive service.TranscriptArchive
		if a.archive != nil {
			archive = a.archive
		}
		svc = service.NewWithRepo(svcCfg, dao.NewReportPostgres(a.pool), archive, a.logger)

		if a.cfg.Scheduler.Enabled {
			a.scheduler = scheduler.New(svc, scheduler.Config{Interval: a.cfg.Scheduler.Interval}, a.logger)
		}
	} else {
		if a.archive != nil {
			a.logger.Warn("S3 archive configured without a database, transcripts will not be archived")
		}
		svc = service.New(svcCfg, a.logger)
	}

	a.transcriptPolicy = policy.New(svc, a.cfg.Analyzer.MaxTranscriptBytes, policy.WithDefaultDateOrder(order))

	return nil
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() error {
	// Health check
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)

	// Swagger UI documentation
	swaggerHandler, err := httpcontroller.NewSwaggerHandler("Chat Recap API", OpenAPISpec)
	if err != nil {
		return err
	}
	swaggerHandler.RegisterRoutes(a.router)

	// API v1
	a.router.Route("/api/v1", func(r chi.Router) {
		analysisHandler := httpcontroller.NewAnalysisHandler(a.transcriptPolicy, a.cfg.Analyzer.MaxTranscriptBytes)
		analysisHandler.RegisterRoutes(r)
	})

	return nil
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// readyHandler handles readiness check requests
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	if a.pool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := a.pool.Ping(ctx); err != nil {
			a.logger.Warn("readiness check failed", "error", err)
			response.ServiceUnavailable(w, "database unavailable")
			return
		}
	}

	response.OK(w, map[string]string{"status": "ready"})
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	// Start scheduler if enabled
	if a.scheduler != nil {
		go a.scheduler.Start(ctx)
	}

	// Channel to receive errors from server
	errCh := make(chan error, 1)

	// Start HTTP server in goroutine
	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.closeInfrastructure()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	// Graceful shutdown
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	// Stop scheduler
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	a.closeInfrastructure()

	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) closeInfrastructure() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
