// Package sqldb implements the DatabasePinger port for the SQL engines the
// setup wizard supports.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ericfisherdev/kickstart/internal/domain/model"
	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DatabasePinger = (*Pinger)(nil)

// Pinger opens a throwaway connection pool per probe and pings it.
type Pinger struct {
	timeout time.Duration
}

// NewPinger creates a Pinger whose connection attempts give up after timeout.
func NewPinger(timeout time.Duration) *Pinger {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Pinger{timeout: timeout}
}

// Ping connects with cfg and returns the driver error on failure.
func (p *Pinger) Ping(ctx context.Context, cfg model.ConnectionConfig) error {
	driverName, dsn, err := DataSource(cfg, p.timeout)
	if err != nil {
		return err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", driverName, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return db.PingContext(ctx)
}

// DataSource returns the database/sql driver name and DSN for cfg.
func DataSource(cfg model.ConnectionConfig, timeout time.Duration) (string, string, error) {
	switch cfg.Driver {
	case model.DriverMySQL:
		return "mysql", buildMySQLDSN(cfg, timeout), nil
	case model.DriverPostgres:
		return "postgres", buildPostgresDSN(cfg, timeout), nil
	case model.DriverSQLite:
		dsn, err := buildSQLiteDSN(cfg, timeout)
		return "sqlite", dsn, err
	default:
		return "", "", fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}
