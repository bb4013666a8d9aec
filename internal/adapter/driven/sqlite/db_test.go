package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_CreatesDirectoryAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.db")
	ctx := context.Background()

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.FileExists(t, path)
	assert.Equal(t, path, db.Path())

	first, err := MigrateSessionSchema(db.Writer)
	require.NoError(t, err)
	second, err := MigrateSessionSchema(db.Writer)
	require.NoError(t, err, "second run is a no-op")
	assert.Equal(t, uint(1), first)
	assert.Equal(t, first, second)

	repo := NewSessionRepo(db)
	require.NoError(t, repo.Set(ctx, "s", "k", "v"))
	v, ok, err := repo.Get(ctx, "s", "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
