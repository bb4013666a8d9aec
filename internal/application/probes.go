package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/kickstart/internal/domain/model"
	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
)

// MaxCacheTimeout bounds the cache probe regardless of configuration.
const MaxCacheTimeout = 2 * time.Second

// ProbeOptions configures which dependencies the CheckService probes.
type ProbeOptions struct {
	// EntityMappings is the number of persistence mappings the application
	// registers. Zero means the database is not needed.
	EntityMappings int

	// CacheHost enables the cache probe when non-empty.
	CacheHost    string
	CachePort    string
	CacheTimeout time.Duration

	// Observer, when set, is called after each probe run by RunAll.
	Observer ProbeObserver
}

// ProbeObserver receives every probe result together with how long it took.
type ProbeObserver func(result model.DependencyCheckResult, elapsed time.Duration)

// CheckService runs the dependency probes. Every probe converts failures into
// a failing model.DependencyCheckResult; nothing is returned as an error.
type CheckService struct {
	credentials driven.CredentialStore
	database    driven.DatabasePinger
	cache       driven.CachePinger
	assets      driven.AssetInspector
	opts        ProbeOptions
	logger      *slog.Logger
}

// NewCheckService creates a CheckService. cache may be nil, in which case an
// enabled cache probe reports driven.ErrCacheClientUnavailable.
func NewCheckService(
	credentials driven.CredentialStore,
	database driven.DatabasePinger,
	cache driven.CachePinger,
	assets driven.AssetInspector,
	opts ProbeOptions,
	logger *slog.Logger,
) *CheckService {
	if opts.CachePort == "" {
		opts.CachePort = "6379"
	}
	if opts.CacheTimeout <= 0 || opts.CacheTimeout > MaxCacheTimeout {
		opts.CacheTimeout = MaxCacheTimeout
	}

	return &CheckService{
		credentials: credentials,
		database:    database,
		cache:       cache,
		assets:      assets,
		opts:        opts,
		logger:      logger,
	}
}

// CacheEnabled reports whether the cache probe is part of RunAll.
func (s *CheckService) CacheEnabled() bool {
	return s.opts.CacheHost != ""
}

// DatabaseRequired reports whether the application needs a database.
func (s *CheckService) DatabaseRequired() bool {
	return s.opts.EntityMappings > 0
}

// StoredConnection returns the connection settings currently persisted.
func (s *CheckService) StoredConnection(ctx context.Context) model.ConnectionConfig {
	return s.credentials.Read(ctx)
}

// RunAll probes every dependency in a fixed order: database, cache (when
// enabled), assets.
func (s *CheckService) RunAll(ctx context.Context) []model.DependencyCheckResult {
	results := make([]model.DependencyCheckResult, 0, 3)
	results = append(results, s.timed(ctx, s.CheckDatabase))
	if s.CacheEnabled() {
		results = append(results, s.timed(ctx, s.CheckCache))
	}
	results = append(results, s.timed(ctx, s.CheckAssets))
	return results
}

func (s *CheckService) timed(ctx context.Context, probe func(context.Context) model.DependencyCheckResult) model.DependencyCheckResult {
	start := time.Now()
	res := probe(ctx)
	if s.opts.Observer != nil {
		s.opts.Observer(res, time.Since(start))
	}
	return res
}

const databaseLabel = "Database"

// Probe descriptions are markdown. Values that come from configuration or a
// submitted form only enter them through model.CodeSpan.

// CheckDatabase probes the configured database. When the application has no
// entity mappings the check is skipped and passes.
func (s *CheckService) CheckDatabase(ctx context.Context) model.DependencyCheckResult {
	if !s.DatabaseRequired() {
		return model.SkippedCheck(model.CheckDatabase, databaseLabel,
			"No table classes are defined yet, so no database connection is needed.")
	}
	return s.TestConnection(ctx, s.credentials.Read(ctx))
}

// TestConnection probes the database described by cfg. The check is always
// required: callers use it to vet explicitly submitted settings.
func (s *CheckService) TestConnection(ctx context.Context, cfg model.ConnectionConfig) model.DependencyCheckResult {
	description := fmt.Sprintf("Connection to the **%s** database %s.", cfg.Driver.Label(), model.CodeSpan(cfg.Database))

	if err := s.database.Ping(ctx, cfg); err != nil {
		s.logger.Debug("database probe failed", "driver", cfg.Driver, "host", cfg.Host, "error", err)
		res := model.FailedCheck(model.CheckDatabase, databaseLabel, description, err.Error())
		res.ShowForm = true
		return res
	}

	return model.PassedCheck(model.CheckDatabase, databaseLabel, description)
}

const cacheLabel = "Cache service"

// CheckCache probes the cache service named by CacheHost.
func (s *CheckService) CheckCache(ctx context.Context) model.DependencyCheckResult {
	description := fmt.Sprintf("Redis server at %s.", model.CodeSpan(s.opts.CacheHost+":"+s.opts.CachePort))
	note := "If you do not want caching, remove `REDIS_HOST` from the environment."

	if s.cache == nil {
		res := model.FailedCheck(model.CheckCache, cacheLabel, description, driven.ErrCacheClientUnavailable.Error())
		res.Note = note
		return res
	}

	info, err := s.cache.Ping(ctx, s.opts.CacheHost, s.opts.CachePort, s.opts.CacheTimeout)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("no answer within %s", s.opts.CacheTimeout)
		}
		s.logger.Debug("cache probe failed", "host", s.opts.CacheHost, "error", err)
		res := model.FailedCheck(model.CheckCache, cacheLabel, description, msg)
		res.Note = note
		return res
	}

	return model.PassedCheck(model.CheckCache, cacheLabel,
		fmt.Sprintf("Redis %s running at %s.", model.CodeSpan(info.Version), model.CodeSpan(info.Host+":"+info.Port)))
}

const assetsLabel = "Frontend assets"

// CheckAssets passes when the asset dev server answers, or otherwise when a
// production build manifest exists.
func (s *CheckService) CheckAssets(ctx context.Context) model.DependencyCheckResult {
	if url, ok := s.assets.DevServerURL(); ok && s.assets.DevServerRunning(ctx, url) {
		return model.PassedCheck(model.CheckAssets, assetsLabel,
			fmt.Sprintf("Dev server running at %s.", model.CodeSpan(url)))
	}

	if s.assets.ManifestExists() {
		return model.PassedCheck(model.CheckAssets, assetsLabel, "Production build manifest found.")
	}

	res := model.FailedCheck(model.CheckAssets, assetsLabel,
		"Compiled frontend assets or a running dev server.",
		fmt.Sprintf("build manifest not found at %s; run npm run build (or npm run dev) and reload", s.assets.ManifestPath()))
	res.Note = "Run `npm install && npm run build` in the project root."
	return res
}
