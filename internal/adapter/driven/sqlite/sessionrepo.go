package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionBackend = (*SessionRepo)(nil)

// SessionRepo is the SQLite implementation of the SessionBackend port. Each
// session value is one row keyed by (session_id, key).
type SessionRepo struct {
	db  *DB
	now func() time.Time
}

// NewSessionRepo creates a new SessionRepo.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db, now: time.Now}
}

// Get returns the value stored for key in the given session.
func (r *SessionRepo) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	const query = `SELECT value FROM session_values WHERE session_id = ? AND key = ?`

	var value string
	err := r.db.Reader.QueryRowContext(ctx, query, sessionID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session value %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores or replaces the value for key and refreshes the session's
// last-write time.
func (r *SessionRepo) Set(ctx context.Context, sessionID, key, value string) error {
	const query = `
		INSERT INTO session_values (session_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`

	if _, err := r.db.Writer.ExecContext(ctx, query, sessionID, key, value, r.now().Unix()); err != nil {
		return fmt.Errorf("set session value %q: %w", key, err)
	}
	return nil
}

// Delete removes key from the session.
func (r *SessionRepo) Delete(ctx context.Context, sessionID, key string) error {
	const query = `DELETE FROM session_values WHERE session_id = ? AND key = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, sessionID, key); err != nil {
		return fmt.Errorf("delete session value %q: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes values not written since before and returns how many
// rows were removed.
func (r *SessionRepo) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM session_values WHERE updated_at < ?`

	res, err := r.db.Writer.ExecContext(ctx, query, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return n, nil
}
