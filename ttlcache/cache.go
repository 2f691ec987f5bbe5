package ttlcache

import (
	"container/heap"
	"iter"
	"sync"
	"time"
)

// purgeBatch is the maximum number of expired entries removed per write.
const purgeBatch = 5

// Config configures optional cache behaviour.
type Config struct {
	// MaxSize bounds the number of physically stored entries. When the
	// bound would be exceeded, the oldest entry is evicted even if it has
	// not expired. Zero means unbounded.
	MaxSize int

	// Lock is the mutex guarding all mutation. When nil, the cache uses a
	// private mutex. Pass a shared lock to serialize writes across a group
	// of related caches.
	Lock *sync.Mutex
}

// entry is a stored value together with its insertion timestamp.
type entry[V any] struct {
	value V
	stamp time.Time
}

// live reports whether the entry is still within its time-to-live.
func (e entry[V]) live(now time.Time, ttl time.Duration) bool {
	return !e.stamp.Add(ttl).Before(now)
}

// Cache is a key-value store with logical TTL expiry and lazy eviction.
//
// The zero value is not usable; construct with New.
type Cache[K comparable, V any] struct {
	ttl     time.Duration
	maxSize int

	items sync.Map // K -> entry[V]

	mu    *sync.Mutex   // guards size and queue, and serializes Set
	size  int           // physical entry count
	queue purgeQueue[K] // min-heap ordered by insertion timestamp
}

// New creates a cache whose entries expire ttl after their timestamp.
func New[K comparable, V any](ttl time.Duration, cfg Config) *Cache[K, V] {
	mu := cfg.Lock
	if mu == nil {
		mu = &sync.Mutex{}
	}

	return &Cache[K, V]{
		ttl:     ttl,
		maxSize: cfg.MaxSize,
		mu:      mu,
	}
}

// TTL returns the configured time-to-live.
func (c *Cache[K, V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the live value stored under key. It returns ErrNotFound when
// the key is absent or its entry has outlived the TTL.
func (c *Cache[K, V]) Get(key K) (V, error) {
	e, ok := c.load(key)
	if !ok || !e.live(time.Now(), c.ttl) {
		var zero V
		return zero, ErrNotFound
	}

	return e.value, nil
}

// Contains reports whether key holds a live entry. Same expiry semantics
// as Get, no side effects.
func (c *Cache[K, V]) Contains(key K) bool {
	e, ok := c.load(key)

	return ok && e.live(time.Now(), c.ttl)
}

// Set stores value under key with the given insertion timestamp. A zero
// stamp means time.Now().
//
// When key already holds a live entry, Set fails with *KeyExistsError
// carrying the previous value; the store never silently overwrites a live
// key. An expired entry under the same key is replaced.
//
// A successful write first enforces the size bound (evicting oldest-first,
// even unexpired entries), then removes at most purgeBatch expired entries,
// then inserts.
func (c *Cache[K, V]) Set(key K, value V, stamp time.Time) error {
	now := time.Now()
	if stamp.IsZero() {
		stamp = now
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.load(key); ok && e.live(now, c.ttl) {
		return &KeyExistsError[V]{Prev: e.value}
	}

	// Stay below the size bound. Under memory pressure freshness yields
	// to bounded memory: the victim may not have expired yet.
	if c.maxSize > 0 {
		for c.size >= c.maxSize && c.queue.Len() > 0 {
			c.evictOldest()
		}
	}

	// Drop a few expired entries while we hold the lock.
	deadline := now.Add(-c.ttl)
	for i := 0; i < purgeBatch && c.queue.Len() > 0; i++ {
		if !c.queue[0].stamp.Before(deadline) {
			break
		}

		c.evictOldest()
	}

	if _, existed := c.items.Load(key); !existed {
		c.size++
	}

	c.items.Store(key, entry[V]{value: value, stamp: stamp})
	heap.Push(&c.queue, queueItem[K]{stamp: stamp, key: key})

	return nil
}

// Len returns the number of live entries. O(n): it walks the store and
// checks expiry per entry.
func (c *Cache[K, V]) Len() int {
	now := time.Now()

	var n int
	c.items.Range(func(_, v any) bool {
		if v.(entry[V]).live(now, c.ttl) {
			n++
		}

		return true
	})

	return n
}

// Keys returns a lazy, restartable sequence of the currently live keys.
// The sequence is best-effort under concurrent mutation: it may or may not
// observe entries added or evicted while it runs.
func (c *Cache[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		now := time.Now()

		c.items.Range(func(k, v any) bool {
			if !v.(entry[V]).live(now, c.ttl) {
				return true
			}

			return yield(k.(K))
		})
	}
}

// load fetches the raw entry for key without an expiry check.
func (c *Cache[K, V]) load(key K) (entry[V], bool) {
	v, ok := c.items.Load(key)
	if !ok {
		var zero entry[V]
		return zero, false
	}

	return v.(entry[V]), true
}

// evictOldest pops the heap minimum and removes the matching entry. When
// the popped timestamp does not match the live entry's timestamp the queue
// entry is stale (the key was rewritten after expiry) and the pop is a
// no-op for the store: the live entry is preserved.
//
// Callers must hold c.mu.
func (c *Cache[K, V]) evictOldest() {
	item := heap.Pop(&c.queue).(queueItem[K])

	e, ok := c.load(item.key)
	if !ok || !e.stamp.Equal(item.stamp) {
		return
	}

	c.items.Delete(item.key)
	c.size--
}

// queueItem is a (timestamp, key) pair in the purge queue.
type queueItem[K comparable] struct {
	stamp time.Time
	key   K
}

// purgeQueue is a min-heap of queue items ordered by timestamp. It is
// append-only in the sense that overwritten keys leave stale entries
// behind; staleness is reconciled at pop time.
type purgeQueue[K comparable] []queueItem[K]

func (q purgeQueue[K]) Len() int           { return len(q) }
func (q purgeQueue[K]) Less(i, j int) bool { return q[i].stamp.Before(q[j].stamp) }
func (q purgeQueue[K]) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *purgeQueue[K]) Push(x any) {
	*q = append(*q, x.(queueItem[K]))
}

func (q *purgeQueue[K]) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]

	return item
}
