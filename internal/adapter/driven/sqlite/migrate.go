package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// sessionMigrationsTable keeps the schema version apart from any table the
// host application might create in the same file.
const sessionMigrationsTable = "kickstart_session_migrations"

// MigrateSessionSchema brings the session store schema up to date and
// returns the resulting schema version. Running it again is a no-op.
func MigrateSessionSchema(db *sql.DB) (uint, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("open session migrations: %w", err)
	}

	target, err := migratesqlite.WithInstance(db, &migratesqlite.Config{
		MigrationsTable: sessionMigrationsTable,
	})
	if err != nil {
		return 0, fmt.Errorf("prepare session schema driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return 0, fmt.Errorf("create session migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate session schema: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read session schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("session schema version %d is dirty", version)
	}
	return version, nil
}
