// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
)

// Session backends.
const (
	SessionBackendSQLite = "sqlite"
	SessionBackendMemory = "memory"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	LogLevel   slog.Level

	// Env file holding DATABASE_URL, and the template that seeds it.
	EnvFile     string
	EnvTemplate string

	SessionBackend string
	SessionDBPath  string
	SessionTTL     time.Duration
	CookieSecure   bool

	// SessionMax caps the sessions held by the memory backend.
	SessionMax int

	// ModelsDir holds the application's table classes; the database check is
	// only required when it contains at least one.
	ModelsDir string

	HotFile       string
	AssetManifest string

	DBTimeout time.Duration

	// Process-wide limit on setup submissions, on top of the per-session one.
	SetupRate  float64
	SetupBurst int

	TmpDir  string
	LogsDir string

	CacheHost    string
	CachePort    string
	CacheTimeout time.Duration
}

// CacheEnabled returns true when REDIS_HOST is set, which turns on the cache
// dependency check.
func (c *Config) CacheEnabled() bool {
	return c.CacheHost != ""
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(OSEnvironment{})
}

// LoadFrom reads configuration from env and returns a validated Config.
// Optional variables with defaults: KICKSTART_LISTEN_ADDR (127.0.0.1:8765),
// KICKSTART_LOG_LEVEL (info), KICKSTART_ENV_FILE (config/.env),
// KICKSTART_ENV_TEMPLATE (config/.env.example), KICKSTART_SESSION_BACKEND
// (sqlite), KICKSTART_SESSION_DB (tmp/sessions.db), KICKSTART_SESSION_TTL
// (24h), KICKSTART_SESSION_MAX (10000), KICKSTART_COOKIE_SECURE (false), KICKSTART_MODELS_DIR
// (src/Model/Table), KICKSTART_HOT_FILE (webroot/hot),
// KICKSTART_ASSET_MANIFEST (webroot/build/manifest.json), KICKSTART_DB_TIMEOUT
// (2s), KICKSTART_SETUP_RATE (1), KICKSTART_SETUP_BURST (10), KICKSTART_TMP_DIR
// (tmp), KICKSTART_LOGS_DIR (logs), REDIS_HOST (unset), REDIS_PORT (6379),
// REDIS_TIMEOUT (2, seconds).
func LoadFrom(env driven.Environment) (*Config, error) {
	l := loader{env: env}

	cfg := &Config{
		ListenAddr:     l.str("KICKSTART_LISTEN_ADDR", "127.0.0.1:8765"),
		LogLevel:       l.level("KICKSTART_LOG_LEVEL", slog.LevelInfo),
		EnvFile:        l.str("KICKSTART_ENV_FILE", "config/.env"),
		EnvTemplate:    l.str("KICKSTART_ENV_TEMPLATE", "config/.env.example"),
		SessionBackend: strings.ToLower(l.str("KICKSTART_SESSION_BACKEND", SessionBackendSQLite)),
		SessionDBPath:  l.str("KICKSTART_SESSION_DB", "tmp/sessions.db"),
		SessionTTL:     l.duration("KICKSTART_SESSION_TTL", 24*time.Hour),
		SessionMax:     l.integer("KICKSTART_SESSION_MAX", 10000),
		CookieSecure:   l.boolean("KICKSTART_COOKIE_SECURE", false),
		ModelsDir:      l.str("KICKSTART_MODELS_DIR", "src/Model/Table"),
		HotFile:        l.str("KICKSTART_HOT_FILE", "webroot/hot"),
		AssetManifest:  l.str("KICKSTART_ASSET_MANIFEST", "webroot/build/manifest.json"),
		DBTimeout:      l.duration("KICKSTART_DB_TIMEOUT", 2*time.Second),
		SetupRate:      l.float("KICKSTART_SETUP_RATE", 1),
		SetupBurst:     l.integer("KICKSTART_SETUP_BURST", 10),
		TmpDir:         l.str("KICKSTART_TMP_DIR", "tmp"),
		LogsDir:        l.str("KICKSTART_LOGS_DIR", "logs"),
		CacheHost:      strings.TrimSpace(l.str("REDIS_HOST", "")),
		CachePort:      l.str("REDIS_PORT", "6379"),
		CacheTimeout:   l.seconds("REDIS_TIMEOUT", 2*time.Second),
	}

	if l.err != nil {
		return nil, l.err
	}

	switch cfg.SessionBackend {
	case SessionBackendSQLite, SessionBackendMemory:
	default:
		return nil, fmt.Errorf("KICKSTART_SESSION_BACKEND must be %q or %q, got %q",
			SessionBackendSQLite, SessionBackendMemory, cfg.SessionBackend)
	}
	if cfg.SessionMax < 1 {
		return nil, fmt.Errorf("KICKSTART_SESSION_MAX must be at least 1, got %d", cfg.SessionMax)
	}
	if cfg.SetupBurst < 1 {
		return nil, fmt.Errorf("KICKSTART_SETUP_BURST must be at least 1, got %d", cfg.SetupBurst)
	}
	if cfg.DBTimeout <= 0 {
		return nil, fmt.Errorf("KICKSTART_DB_TIMEOUT must be positive, got %s", cfg.DBTimeout)
	}

	return cfg, nil
}

// loader reads typed values and keeps the first parse error.
type loader struct {
	env driven.Environment
	err error
}

func (l *loader) str(key, def string) string {
	if v, ok := l.env.Lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (l *loader) fail(key, v string, err error) {
	if l.err == nil {
		l.err = fmt.Errorf("%s has invalid value %q: %w", key, v, err)
	}
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	v, ok := l.env.Lookup(key)
	if !ok || v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		l.fail(key, v, err)
		return def
	}
	return parsed
}

// seconds parses a plain number of seconds, such as REDIS_TIMEOUT=1.5.
func (l *loader) seconds(key string, def time.Duration) time.Duration {
	v, ok := l.env.Lookup(key)
	if !ok || v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		l.fail(key, v, err)
		return def
	}
	return time.Duration(parsed * float64(time.Second))
}

func (l *loader) integer(key string, def int) int {
	v, ok := l.env.Lookup(key)
	if !ok || v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		l.fail(key, v, err)
		return def
	}
	return parsed
}

func (l *loader) float(key string, def float64) float64 {
	v, ok := l.env.Lookup(key)
	if !ok || v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		l.fail(key, v, err)
		return def
	}
	return parsed
}

func (l *loader) boolean(key string, def bool) bool {
	v, ok := l.env.Lookup(key)
	if !ok || v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		l.fail(key, v, err)
		return def
	}
	return parsed
}

func (l *loader) level(key string, def slog.Level) slog.Level {
	v, ok := l.env.Lookup(key)
	if !ok || v == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		l.fail(key, v, err)
		return def
	}
	return lvl
}
