package ttlcache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGet(t *testing.T) {
	t.Run("missing key returns not found", func(t *testing.T) {
		c := New[string, string](time.Minute, Config{})

		_, err := c.Get("absent")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("live entry is returned", func(t *testing.T) {
		c := New[string, string](time.Minute, Config{})

		require.NoError(t, c.Set("hello", "world", time.Time{}))

		got, err := c.Get("hello")
		require.NoError(t, err)
		assert.Equal(t, "world", got)
	})

	t.Run("entry older than ttl is treated as absent", func(t *testing.T) {
		c := New[string, string](time.Minute, Config{})

		// Backdate the entry past the TTL; it stays physically present
		// but must be invisible to readers.
		require.NoError(t, c.Set("hello", "world", time.Now().Add(-2*time.Minute)))

		_, err := c.Get("hello")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.False(t, c.Contains("hello"))
	})

	t.Run("entry within ttl is still visible", func(t *testing.T) {
		c := New[string, string](time.Minute, Config{})

		require.NoError(t, c.Set("hello", "world", time.Now().Add(-30*time.Second)))

		assert.True(t, c.Contains("hello"))
	})
}

func TestCacheSet(t *testing.T) {
	t.Run("duplicate live key is rejected with previous value", func(t *testing.T) {
		c := New[string, string](time.Minute, Config{})

		require.NoError(t, c.Set("key", "first", time.Time{}))

		err := c.Set("key", "second", time.Time{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrKeyExists)

		var exists *KeyExistsError[string]
		require.ErrorAs(t, err, &exists)
		assert.Equal(t, "first", exists.Prev)

		// The stored value is unchanged.
		got, err := c.Get("key")
		require.NoError(t, err)
		assert.Equal(t, "first", got)
	})

	t.Run("expired key can be rewritten", func(t *testing.T) {
		c := New[string, string](time.Minute, Config{})

		require.NoError(t, c.Set("key", "old", time.Now().Add(-2*time.Minute)))
		require.NoError(t, c.Set("key", "new", time.Time{}))

		got, err := c.Get("key")
		require.NoError(t, err)
		assert.Equal(t, "new", got)
	})

	t.Run("rewrite purges the replaced entry", func(t *testing.T) {
		c := New[string, string](time.Minute, Config{})

		// First write expires, second write takes over the key and the
		// lazy purge reclaims the replaced entry.
		require.NoError(t, c.Set("key", "old", time.Now().Add(-2*time.Minute)))
		require.NoError(t, c.Set("key", "new", time.Time{}))

		require.NoError(t, c.Set("other", "x", time.Time{}))

		assert.True(t, c.Contains("key"))
		assert.True(t, c.Contains("other"))
	})

	t.Run("stale queue entry does not evict a rewritten key", func(t *testing.T) {
		ttl := 100 * time.Millisecond
		c := New[string, string](ttl, Config{})

		// Six filler entries older than "key" soak up the bounded purge
		// budget, so the rewrite below leaves the replaced entry's queue
		// item behind as a stale one.
		now := time.Now()
		for i := range 6 {
			require.NoError(t, c.Set(fmt.Sprintf("filler-%d", i), "x", now.Add(-90*time.Millisecond)))
		}
		require.NoError(t, c.Set("key", "old", now.Add(-80*time.Millisecond)))

		time.Sleep(ttl + 20*time.Millisecond)

		require.NoError(t, c.Set("key", "new", time.Time{}))

		// This write's purge eventually pops the stale queue item for
		// "key"; the live entry must survive the pop.
		require.NoError(t, c.Set("other", "x", time.Time{}))

		assert.True(t, c.Contains("key"))
		assert.True(t, c.Contains("other"))
	})
}

func TestCacheMaxSize(t *testing.T) {
	t.Run("never exceeds the bound", func(t *testing.T) {
		c := New[string, string](time.Minute, Config{MaxSize: 2})

		now := time.Now()
		require.NoError(t, c.Set("hello", "world", now.Add(-3*time.Second)))
		assert.Equal(t, 1, c.Len())

		require.NoError(t, c.Set("how", "are", now.Add(-2*time.Second)))
		assert.Equal(t, 2, c.Len())

		require.NoError(t, c.Set("you", "today?", now))
		assert.Equal(t, 2, c.Len())
	})

	t.Run("evicts the oldest entry first", func(t *testing.T) {
		c := New[string, string](time.Minute, Config{MaxSize: 2})

		now := time.Now()
		require.NoError(t, c.Set("hello", "world", now.Add(-3*time.Second)))
		require.NoError(t, c.Set("how", "are", now.Add(-2*time.Second)))
		require.NoError(t, c.Set("you", "today?", now))

		_, err := c.Get("hello")
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := c.Get("how")
		require.NoError(t, err)
		assert.Equal(t, "are", got)

		got, err = c.Get("you")
		require.NoError(t, err)
		assert.Equal(t, "today?", got)
	})

	t.Run("bound holds across an expired rewrite", func(t *testing.T) {
		c := New[string, string](time.Hour, Config{MaxSize: 2})

		now := time.Now()

		// "a" is written, expires, and is rewritten; the rewrite must
		// not double-count against the size bound.
		require.NoError(t, c.Set("a", "old", now.Add(-2*time.Hour)))
		require.NoError(t, c.Set("a", "new", now.Add(-3*time.Second)))
		require.NoError(t, c.Set("b", "b", now.Add(-2*time.Second)))

		// Inserting "c" evicts the oldest live entry ("a").
		require.NoError(t, c.Set("c", "c", now))

		assert.False(t, c.Contains("a"))
		assert.True(t, c.Contains("b"))
		assert.True(t, c.Contains("c"))
		assert.Equal(t, 2, c.Len())
	})
}

func TestCacheLen(t *testing.T) {
	c := New[string, int](time.Minute, Config{})

	require.NoError(t, c.Set("live", 1, time.Time{}))
	require.NoError(t, c.Set("dead", 2, time.Now().Add(-2*time.Minute)))

	assert.Equal(t, 1, c.Len())
}

func TestCacheKeys(t *testing.T) {
	c := New[string, int](time.Minute, Config{})

	require.NoError(t, c.Set("one", 1, time.Time{}))
	require.NoError(t, c.Set("two", 2, time.Time{}))
	require.NoError(t, c.Set("dead", 3, time.Now().Add(-2*time.Minute)))

	seq := c.Keys()

	collect := func() map[string]bool {
		got := make(map[string]bool)
		for k := range seq {
			got[k] = true
		}
		return got
	}

	assert.Equal(t, map[string]bool{"one": true, "two": true}, collect())

	// The sequence is restartable.
	assert.Equal(t, map[string]bool{"one": true, "two": true}, collect())
}

func TestCacheSharedLock(t *testing.T) {
	var mu sync.Mutex

	outer := New[string, int](time.Minute, Config{Lock: &mu})
	inner := New[string, int](time.Minute, Config{Lock: &mu})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := range 50 {
				key := fmt.Sprintf("k-%d-%d", i, j)
				assert.NoError(t, outer.Set(key, j, time.Time{}))
				assert.NoError(t, inner.Set(key, j, time.Time{}))

				outer.Contains(key)
				inner.Len()
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 400, outer.Len())
	assert.Equal(t, 400, inner.Len())
}
