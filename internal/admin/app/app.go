package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tksolution/admin/internal/admin/audit"
	httpapi "github.com/tksolution/admin/internal/admin/http"
	"github.com/tksolution/admin/internal/admin/identity"
	"github.com/tksolution/admin/internal/admin/obs"
	"github.com/tksolution/admin/internal/admin/store"
	"github.com/tksolution/admin/internal/admin/store/drivers/postgres"
	"github.com/tksolution/admin/internal/admin/store/drivers/sqlite"
	"github.com/tksolution/admin/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the admin service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	identityClient *identity.Client
	auditSink      audit.Sink
	db             store.Store // nil unless a database audit backend is configured

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "admin-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("ADMIN_BACKEND_URL is required")
	}
	if cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("ADMIN_SERVICE_ROLE_KEY is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("ADMIN_ANON_KEY is required")
	}
	app.checkServiceKey()

	app.identityClient = identity.NewClient(cfg.BackendURL, cfg.AnonKey, cfg.ServiceRoleKey)

	if err := app.initAudit(); err != nil {
		return nil, err
	}

	obs.Init()
	app.initHTTP()

	return app, nil
}

// checkServiceKey decodes the configured service key without verifying its
// signature and warns when the role claim is not the privileged one. The
// backend is the sole verifier; this only catches a swapped key at startup
// instead of on the first admin call.
func (app *Application) checkServiceKey() {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(app.cfg.ServiceRoleKey, claims); err != nil {
		app.logger.Warn("service role key is not a decodable JWT", "error", err)
		return
	}

	if role, _ := claims["role"].(string); role != "service_role" {
		app.logger.Warn("service role key carries an unexpected role claim", "role", role)
	}
}

// initAudit wires the activity log sink selected by ADMIN_AUDIT_BACKEND.
func (app *Application) initAudit() error {
	switch app.cfg.AuditBackend {
	case "rest":
		app.auditSink = audit.NewRESTSink(app.cfg.BackendURL, app.cfg.ServiceRoleKey)

	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize sqlite audit store: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply audit migrations: %w", err)
		}
		app.db = db
		app.auditSink = &audit.StoreSink{Store: db}
		app.logger.Info("audit migrations applied successfully")

	case "postgres":
		if app.cfg.DatabaseURL == "" {
			return fmt.Errorf("ADMIN_DATABASE_URL is required for the postgres audit backend")
		}
		db, err := postgres.NewStore(app.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize postgres audit store: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply audit migrations: %w", err)
		}
		app.db = db
		app.auditSink = &audit.StoreSink{Store: db}
		app.logger.Info("audit migrations applied successfully")

	default:
		return fmt.Errorf("unknown audit backend %q", app.cfg.AuditBackend)
	}

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.identityClient,
		app.auditSink,
		BuildVersion,
		app.logger,
	)

	router.IdentityCheck = app.identityClient.Health
	if app.db != nil {
		router.AuditCheck = app.db.Ping
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("admin service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down admin service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing audit store", "error", err)
			return err
		}
	}

	app.logger.Info("admin service stopped")
	return nil
}
