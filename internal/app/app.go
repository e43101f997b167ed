package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"cunydash/internal/charts"
	"cunydash/internal/config"
	"cunydash/internal/dashboard"
	"cunydash/internal/dataset"
	apperrors "cunydash/internal/errors"
	"cunydash/internal/exporter"
	"cunydash/internal/infrastructure"
	customMiddleware "cunydash/internal/middleware"
	"cunydash/internal/services"
	handlers "cunydash/internal/transport/http"
)

// AppName is logged at startup
const AppName = "CUNY College Data"

var (
	// Version is set at link time
	Version = "dev"
	// BuildTime is set at link time
	BuildTime = ""
)

// Application represents one running dashboard
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	Data             *dataset.Data
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.DashboardMetrics
}

// New loads the configuration of variant, initializes the global logger and
// builds the application
func New(ctx context.Context, variant string) (*Application, error) {
	cfg, err := config.Load(variant)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewWithConfig(ctx, cfg, logger)
}

// NewWithConfig builds the application from an explicit configuration.
// The dataset is loaded eagerly; any load failure is returned and no
// server is created.
func NewWithConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	// startup logs share one trace ID
	ctx = infrastructure.EnsureTraceID(ctx)

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("variant", cfg.Dashboard.Variant))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry, Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(ctx); err != nil {
		if shutdownErr := otelProviders.Shutdown(context.Background()); shutdownErr != nil {
			logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", shutdownErr.Error()))
		}
		return nil, err
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices loads the dataset and builds the services over it
func (a *Application) initializeServices(ctx context.Context) error {
	metrics, err := infrastructure.CreateDashboardMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	a.Metrics = metrics

	data, err := dataset.NewLoader(a.Logger).Load(ctx, dataset.Sources{
		Enrollment:  a.Config.EnrollmentPath(),
		Locations:   a.Config.LocationPath(),
		Retention:   a.Config.RetentionPath(),
		IndexColumn: a.Config.Data.EnrollmentIndexColumn,
	})
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	a.Data = data

	presenter := dashboard.NewPresenter(dashboard.SettingsFromConfig(a.Config.Dashboard))
	renderer := charts.NewSVGRenderer(a.Config.Dashboard.ChartWidth, a.Config.Dashboard.ChartHeight)

	dashboardService, err := services.NewDashboardService(
		a.Config.Dashboard.Variant, data, presenter, renderer, metrics, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dashboard service: %w", err)
	}
	a.DashboardService = dashboardService

	a.HealthService = services.NewHealthService(Version, a.Config.Dashboard.Variant, BuildTime, data, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apperrors.NewErrorHandler(a.Logger, a.Config.Server.Debug)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → RateLimit → Timeout
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apperrors.RecoveryMiddleware(errorHandler))
		r.Use(customMiddleware.SecurityHeaders(frameSources(a.Config.Dashboard.MapEmbedURL)...))
		r.Use(customMiddleware.Compress(5))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		page := handlers.PageConfig{
			Title:       a.Config.Dashboard.Title,
			Template:    a.Config.Dashboard.Template,
			MapEmbedURL: a.Config.Dashboard.MapEmbedURL,
			ChartWidth:  a.Config.Dashboard.ChartWidth,
		}
		handlers.NewDashboardHandler(
			a.DashboardService,
			customMiddleware.NewRequestValidator(a.Logger),
			exporter.NewJoinedExporter(a.Logger),
			errorHandler,
			page,
			a.Logger,
		).RegisterRoutes(r)

		handlers.NewHealthHandler(a.HealthService, a.Logger).RegisterRoutes(r)
	})

	// Prometheus metrics endpoint sits outside the middleware group
	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))

	a.Router = r
}

// frameSources returns the origin of the embedded map, if any
func frameSources(mapURL string) []string {
	if mapURL == "" {
		return nil
	}
	u, err := url.Parse(mapURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return []string{u.Scheme + "://" + u.Host}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Address(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run listens on the configured address and serves until ctx is done or
// SIGINT/SIGTERM arrives
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "Application started",
			slog.String("address", "http://"+ln.Addr().String()),
			slog.String("variant", a.Config.Dashboard.Variant))

		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}
