package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ericfisherdev/kickstart/internal/adapter/driven/assets"
	"github.com/ericfisherdev/kickstart/internal/adapter/driven/envfile"
	"github.com/ericfisherdev/kickstart/internal/adapter/driven/memory"
	redisadapter "github.com/ericfisherdev/kickstart/internal/adapter/driven/redis"
	"github.com/ericfisherdev/kickstart/internal/adapter/driven/sqldb"
	sqliteadapter "github.com/ericfisherdev/kickstart/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/kickstart/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/kickstart/internal/adapter/driving/web"
	"github.com/ericfisherdev/kickstart/internal/application"
	"github.com/ericfisherdev/kickstart/internal/config"
	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
	"github.com/ericfisherdev/kickstart/internal/observability"
	"github.com/ericfisherdev/kickstart/internal/precheck"
)

// sessionPurgeInterval is how often expired sqlite session rows are removed.
const sessionPurgeInterval = 10 * time.Minute

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "serve",
		Short:         "Start the HTTP server behind the environment gate",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"env_file", cfg.EnvFile,
		"session_backend", cfg.SessionBackend,
		"cache_enabled", cfg.CacheEnabled(),
	)

	// 2. Verify prerequisites before binding the port.
	if report := precheck.Run(cfg); !report.OK() {
		for _, c := range report.Failed() {
			slog.Error("prerequisite failed", "check", c.Name, "message", c.Message, "fix", c.FixCommand)
		}
		return errPrecheckFailed
	}

	// 3. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Open the session backend.
	sessions, closeSessions, err := openSessionBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	// 5. Wire adapters.
	mappings, err := countEntityMappings(cfg.ModelsDir)
	if err != nil {
		return err
	}
	slog.Info("entity mappings detected", "dir", cfg.ModelsDir, "count", mappings)

	credentials := envfile.NewStore(cfg.EnvFile, cfg.EnvTemplate, config.OSEnvironment{}, logger)
	checks := application.NewCheckService(
		credentials,
		sqldb.NewPinger(cfg.DBTimeout),
		redisadapter.NewPinger(),
		assets.NewInspector(cfg.HotFile, cfg.AssetManifest),
		application.ProbeOptions{
			EntityMappings: mappings,
			CacheHost:      cfg.CacheHost,
			CachePort:      cfg.CachePort,
			CacheTimeout:   cfg.CacheTimeout,
			Observer:       observability.ObserveProbe,
		},
		logger,
	)

	// 6. Create the setup services.
	limiter := rate.NewLimiter(rate.Limit(cfg.SetupRate), cfg.SetupBurst)
	setupSvc := application.NewSetupService(checks, credentials, limiter, logger)
	wizard := webhandler.NewWizardRenderer(checks, nil, logger)
	gate := webhandler.NewGate(checks, setupSvc, wizard, webhandler.GateOptions{
		PassThrough: webhandler.DefaultPassThrough,
	}, logger)

	// 7. Register routes.
	mux := http.NewServeMux()
	httphandler.RegisterRoutes(mux)
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(checks, wizard, logger))

	// Apply middleware: logging outermost, then recovery, session and gate.
	sessionMgr := webhandler.NewSessionManager(sessions, cfg.CookieSecure, cfg.SessionTTL)
	handler := httphandler.Chain(mux,
		httphandler.Logging(logger),
		httphandler.Recovery(logger),
		sessionMgr.Middleware,
		gate.Middleware,
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	slog.Info("kickstart started",
		"listen_addr", cfg.ListenAddr,
		"database_required", checks.DatabaseRequired(),
	)

	// 8. Wait for shutdown signal or a server failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	}

	// 9. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// openSessionBackend returns the configured session backend and a function
// releasing its resources.
func openSessionBackend(ctx context.Context, cfg *config.Config) (driven.SessionBackend, func(), error) {
	if cfg.SessionBackend == config.SessionBackendMemory {
		slog.Info("using in-memory sessions", "max_sessions", cfg.SessionMax)
		return memory.NewSessionStore(cfg.SessionMax), func() {}, nil
	}

	db, err := sqliteadapter.NewDB(ctx, cfg.SessionDBPath)
	if err != nil {
		return nil, nil, err
	}
	version, err := sqliteadapter.MigrateSessionSchema(db.Writer)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	slog.Info("session database opened", "path", cfg.SessionDBPath, "schema_version", version)

	repo := sqliteadapter.NewSessionRepo(db)
	purgeCtx, cancel := context.WithCancel(ctx)
	go purgeSessions(purgeCtx, repo, cfg.SessionTTL)

	return repo, func() {
		cancel()
		if err := db.Close(); err != nil {
			slog.Error("error closing session database", "error", err)
		}
	}, nil
}

// purgeSessions periodically deletes session values older than ttl.
func purgeSessions(ctx context.Context, repo *sqliteadapter.SessionRepo, ttl time.Duration) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx, time.Now().Add(-ttl))
			if err != nil {
				slog.Error("session purge failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("expired sessions purged", "rows", n)
			}
		}
	}
}
