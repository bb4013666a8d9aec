package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_SetGetDelete(t *testing.T) {
	store := NewSessionStore(0)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "sess", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "sess", "k", "v1"))
	require.NoError(t, store.Set(ctx, "sess", "k", "v2"))

	val, ok, err := store.Get(ctx, "sess", "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", val)

	require.NoError(t, store.Delete(ctx, "sess", "k"))
	_, ok, err = store.Get(ctx, "sess", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_KeysDoNotCollideAcrossSessions(t *testing.T) {
	store := NewSessionStore(0)
	ctx := context.Background()

	// "a" + "bc" and "ab" + "c" must stay distinct.
	require.NoError(t, store.Set(ctx, "a", "bc", "first"))
	require.NoError(t, store.Set(ctx, "ab", "c", "second"))

	val, _, err := store.Get(ctx, "a", "bc")
	require.NoError(t, err)
	assert.Equal(t, "first", val)

	val, _, err = store.Get(ctx, "ab", "c")
	require.NoError(t, err)
	assert.Equal(t, "second", val)
}

func TestSessionStore_ConcurrentAccess(t *testing.T) {
	store := NewSessionStore(0)
	ctx := context.Background()

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines * 2)

	for range goroutines {
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Set(ctx, "sess", "k", "v"))
		}()
		go func() {
			defer wg.Done()
			_, _, err := store.Get(ctx, "sess", "k")
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	val, ok, err := store.Get(ctx, "sess", "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)
}

func TestSessionStore_EvictsLeastRecentlyUsedSession(t *testing.T) {
	store := NewSessionStore(2)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "old", "_setup_csrf", "t1"))
	require.NoError(t, store.Set(ctx, "old", "_setup_attempts", "[1]"))
	require.NoError(t, store.Set(ctx, "kept", "_setup_csrf", "t2"))

	// Reading "old" makes "kept" the least recently used session.
	_, ok, err := store.Get(ctx, "old", "_setup_csrf")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Set(ctx, "new", "_setup_csrf", "t3"))

	assert.Equal(t, 2, store.Len())
	_, ok, err = store.Get(ctx, "kept", "_setup_csrf")
	require.NoError(t, err)
	assert.False(t, ok, "evicted session loses its values")

	for _, key := range []string{"_setup_csrf", "_setup_attempts"} {
		_, ok, err = store.Get(ctx, "old", key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}
}

func TestSessionStore_ManyCookielessVisitsStayBounded(t *testing.T) {
	store := NewSessionStore(100)
	ctx := context.Background()

	for i := range 1000 {
		require.NoError(t, store.Set(ctx, fmt.Sprintf("visitor-%d", i), "_setup_csrf", "token"))
	}

	assert.Equal(t, 100, store.Len())
	_, ok, err := store.Get(ctx, "visitor-0", "_setup_csrf")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.Get(ctx, "visitor-999", "_setup_csrf")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSessionStore_EmptiedSessionReleasesSlot(t *testing.T) {
	store := NewSessionStore(1)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "k", "v"))
	require.NoError(t, store.Delete(ctx, "a", "k"))
	assert.Equal(t, 0, store.Len())

	require.NoError(t, store.Delete(ctx, "missing", "k"))
}
