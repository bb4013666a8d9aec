package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	err := repo.Set(ctx, "sess-1", "_setup_csrf", "abc123")
	require.NoError(t, err)

	val, ok, err := repo.Get(ctx, "sess-1", "_setup_csrf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", val)
}

func TestSessionRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)

	val, ok, err := repo.Get(context.Background(), "sess-1", "nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", val)
}

func TestSessionRepo_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "sess-1", "k", "old-value"))
	require.NoError(t, repo.Set(ctx, "sess-1", "k", "new-value"))

	val, ok, err := repo.Get(ctx, "sess-1", "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new-value", val)
}

func TestSessionRepo_SessionsAreIsolated(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "sess-a", "k", "a"))
	require.NoError(t, repo.Set(ctx, "sess-b", "k", "b"))

	val, _, err := repo.Get(ctx, "sess-a", "k")
	require.NoError(t, err)
	assert.Equal(t, "a", val)

	require.NoError(t, repo.Delete(ctx, "sess-a", "k"))

	_, ok, err := repo.Get(ctx, "sess-a", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	val, ok, err = repo.Get(ctx, "sess-b", "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", val)
}

func TestSessionRepo_DeleteNonexistent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)

	err := repo.Delete(context.Background(), "sess-1", "nonexistent")
	assert.NoError(t, err, "deleting nonexistent value should not error")
}

func TestSessionRepo_PurgeExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0)
	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Set(ctx, "old", "k", "v"))

	repo.now = func() time.Time { return base.Add(48 * time.Hour) }
	require.NoError(t, repo.Set(ctx, "fresh", "k", "v"))

	n, err := repo.PurgeExpired(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, err := repo.Get(ctx, "old", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = repo.Get(ctx, "fresh", "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
