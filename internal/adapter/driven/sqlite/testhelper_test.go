package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestDB creates a migrated, named shared in-memory SQLite database.
// The name is derived from t.Name() so parallel tests stay isolated; both
// pools see the same database through cache=shared.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)",
		url.PathEscape(t.Name()),
	)

	open := func(maxConns int) *sql.DB {
		conn, err := sql.Open("sqlite", dsn)
		require.NoError(t, err)
		conn.SetMaxOpenConns(maxConns)
		require.NoError(t, conn.PingContext(context.Background()))
		return conn
	}

	db := &DB{Writer: open(1), Reader: open(4), path: dsn}
	t.Cleanup(func() { _ = db.Close() })

	_, err := MigrateSessionSchema(db.Writer)
	require.NoError(t, err)
	return db
}
