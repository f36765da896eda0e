package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"salespulse/internal/analytics"
	"salespulse/internal/config"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/files"
	"salespulse/internal/infrastructure"
	customMiddleware "salespulse/internal/middleware"
	"salespulse/internal/report"
	"salespulse/internal/services"
	"salespulse/internal/storage"
	handlers "salespulse/internal/transport/http"
	"salespulse/internal/validation"
	ws "salespulse/internal/websocket"
	"salespulse/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Store         *storage.Store
	WebSocketHub  *ws.Hub
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Upload    *services.UploadService
	Analytics *services.AnalyticsService
	Export    *services.ExportService
	Health    *services.HealthService
}

// NewApplication loads the configuration and logger and builds the
// application.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return New(ctx, cfg, logger)
}

// New builds the application from an already loaded configuration. The
// database is opened here; Stop closes it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.GetVersionString()))

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
	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := app.initializeServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices opens the store and wires every service
func (a *Application) initializeServices(ctx context.Context) error {
	store, err := storage.Open(ctx, a.Paths.Database, a.Config.Storage, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.Store = store

	hub := ws.NewHub(a.Metrics, a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	fileManager := files.NewManager(a.Paths, a.Logger)
	pipeline := dataprocessing.NewPipeline(a.Config.Ingest, a.Metrics, a.Logger)
	validator := validation.NewFileValidator(a.Config.Ingest, a.Logger)

	analyticsService := services.NewAnalyticsService(services.AnalyticsDeps{
		Store:     store,
		Files:     fileManager,
		Ingester:  pipeline,
		Validator: validator,
		Engine:    analytics.NewEngine(a.Logger, analytics.DefaultConfig()),
		Notifier:  hub,
		Metrics:   a.Metrics,
	}, a.Config.Cache, a.Logger)

	uploadService := services.NewUploadService(services.UploadDeps{
		Store:     store,
		Files:     fileManager,
		Ingester:  pipeline,
		Validator: validator,
		Cache:     analyticsService,
		Notifier:  hub,
		Metrics:   a.Metrics,
	}, a.Logger)

	generator, err := report.NewGenerator(report.NewChromeRenderer(a.Config.Report, a.Logger), a.Metrics, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize report generator: %w", err)
	}

	a.Services = &ServiceContainer{
		Upload:    uploadService,
		Analytics: analyticsService,
		Export:    services.NewExportService(store, analyticsService, generator, a.Logger),
		Health:    services.NewHealthService(a.Paths, store, hub, a.Logger),
	}
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	// These do not wrap the ResponseWriter, so the websocket upgrade
	// below still reaches the hijacker.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).
		Handle("/ws", ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.allowedOrigins(), a.Logger))

	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, errorHandler))

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(errorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.allowedOrigins(),
				Logger:         a.Logger,
			}))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)

		r.Route("/api", func(r chi.Router) {
			a.setupAPIRoutes(r, errorHandler)
		})
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	salesHandler := handlers.NewSalesHandler(
		a.Services.Upload,
		a.Services.Analytics,
		a.Config.Ingest.MaxUploadBytes,
		a.Logger,
		errorHandler,
	)
	r.Mount("/", salesHandler.Routes())

	exportHandler := handlers.NewExportHandler(a.Services.Export, a.Logger, errorHandler)
	r.Mount("/export", exportHandler.Routes())
	r.Mount("/report", exportHandler.ReportRoutes())

	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Mount("/health", healthHandler.Routes())
	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/version", healthHandler.Version)

	r.Post("/client-log", handlers.NewClientLogHandler(a.Logger, errorHandler).Handle)
}

func (a *Application) allowedOrigins() []string {
	if !a.Config.Security.EnableCORS {
		return nil
	}
	return a.Config.Security.AllowedOrigins
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run serves until ctx is cancelled or the listener fails, then shuts down
// gracefully.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run over an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "Application started",
			slog.String("address", ln.Addr().String()),
			slog.String("database", a.Paths.Database))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	start := time.Now()
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.WebSocketHub.Stop()

	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database close error: %w", err))
	}

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete",
		slog.Duration("elapsed", time.Since(start)))
	return errors.Join(errs...)
}
