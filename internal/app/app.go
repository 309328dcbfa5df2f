package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"sspyviz/internal/config"
	"sspyviz/internal/datasets"
	apierrors "sspyviz/internal/errors"
	"sspyviz/internal/infrastructure"
	customMiddleware "sspyviz/internal/middleware"
	"sspyviz/internal/services"
	handlers "sspyviz/internal/transport/http"
	"sspyviz/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config         *config.Config
	Paths          *config.Paths
	Router         *chi.Mux
	Server         *http.Server
	Store          datasets.Store
	DatasetService *services.DatasetService
	HealthService  *services.HealthService
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders
	Metrics        *infrastructure.PipelineMetrics

	errorHandler *apierrors.ErrorHandler
}

// NewApplication wires the application from cfg. A nil logger is built from
// cfg.Logging.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		var err error
		logger, err = infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.CreatePipelineMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(ctx); err != nil {
		_ = otelProviders.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices opens the dataset store and builds the services on it
func (a *Application) initializeServices(ctx context.Context) error {
	store, err := datasets.NewStore(ctx, a.Config.Storage, a.Paths, infrastructure.WithComponent(a.Logger, "dataset_store"))
	if err != nil {
		return fmt.Errorf("failed to open dataset store: %w", err)
	}
	a.Store = store

	client := &http.Client{Timeout: a.Config.Datasets.FetchTimeout}
	registry := datasets.NewRegistry(a.Config.Datasets, a.Paths, client, infrastructure.WithComponent(a.Logger, "dataset_sources"))

	a.DatasetService = services.NewDatasetService(services.DatasetServiceConfig{
		Store:           store,
		Registry:        registry,
		Validation:      a.Config.Validation,
		ResultCacheSize: a.Config.Storage.ResultCacheSize,
		Metrics:         a.Metrics,
		Tracer:          a.OTelProviders.Tracer,
		Logger:          infrastructure.WithComponent(a.Logger, "dataset_service"),
	})
	a.HealthService = services.NewHealthService(a.Paths, store, infrastructure.WithComponent(a.Logger, "health_service"))
	return nil
}

// setupRouter builds the middleware chain and mounts every route.
// Order: RequestID → RealIP → errors/recovery → OTel → security → CORS → rate limit.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(apierrors.NewErrorMiddleware(a.errorHandler, a.Logger).Handler)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			Logger:         a.Logger,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.errorHandler,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	r.Mount("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP).Routes())
	a.setupAPIRoutes(r)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	validation := customMiddleware.NewValidationMiddleware(a.Logger, a.errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(validation.ValidateJSON)

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		datasetHandler := handlers.NewDatasetHandler(a.DatasetService, a.Config.Server.MaxUploadBytes, a.Logger, a.errorHandler)
		r.Mount("/sources", datasetHandler.SourceRoutes())
		r.Mount("/datasets", datasetHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port)),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start checks the working directories and starts serving in the
// background. Serve errors arrive on the returned channel.
func (a *Application) Start(ctx context.Context) <-chan error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("address", a.Server.Addr),
		slog.String("storage", a.Config.Storage.Driver),
		slog.String("level", a.Config.Logging.Level))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("dataset store close error: %w", err))
		}
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves until ctx is cancelled, SIGINT or SIGTERM arrives, or the
// server fails, then shuts down
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := a.Start(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Received shutdown signal")
	case serveErr = <-errCh:
	}

	if err := a.Stop(context.Background()); err != nil {
		return errors.Join(serveErr, err)
	}
	return serveErr
}

// performStartupHealthCheck verifies the working directories are writable
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	directories := map[string]string{
		"Data":    a.Paths.DataDir,
		"Cache":   a.Paths.CacheDir,
		"Exports": a.Paths.ExportsDir,
		"Logs":    a.Paths.LogsDir,
	}

	var warnings []string
	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
			continue
		}
		_ = os.Remove(testFile)
	}

	if _, err := os.Stat(a.Paths.Resolve(a.Config.Datasets.ISDPath)); err != nil && a.Config.Datasets.ISDURL == "" {
		a.Logger.InfoContext(ctx, "ISD dataset not found locally",
			slog.String("path", a.Paths.Resolve(a.Config.Datasets.ISDPath)))
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}
	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}

// Handler returns the root HTTP handler
func (a *Application) Handler() http.Handler {
	return a.Router
}
