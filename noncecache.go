package macauth

import (
	"errors"
	"sync"
	"time"

	"github.com/vitalvas/macauth/ttlcache"
)

// DefaultNonceTTL is the freshness window applied when NonceCacheConfig
// leaves NonceTTL unset.
const DefaultNonceTTL = 60 * time.Second

// NonceCacheConfig configures a NonceCache.
type NonceCacheConfig struct {
	// NonceTTL is the freshness window for nonces: a timestamp further
	// than this from server time (after skew adjustment) is rejected, and
	// a seen nonce blocks reuse for this long. Defaults to
	// DefaultNonceTTL.
	NonceTTL time.Duration

	// IDTTL is how long a per-identity entry (and its skew estimate)
	// lives. Defaults to NonceTTL.
	IDTTL time.Duration

	// MaxSize bounds both the number of tracked identities and the number
	// of nonces per identity. When the bound forces eviction of unexpired
	// entries, bounded memory wins over freshness and a small replay
	// window opens. Zero means unbounded.
	MaxSize int
}

// identityEntry is the per-identity state: the clock skew fixed at first
// observation and the store of consumed nonces.
type identityEntry struct {
	skew   time.Duration
	nonces *ttlcache.Cache[string, struct{}]
}

// NonceCache tracks consumed (id, nonce) pairs to reject replays. It keeps
// a clock-skew estimate per identity so clients with unsynchronized but
// stable clocks keep passing the freshness check.
//
// One mutex is shared between the identity cache and every per-identity
// nonce cache, so identity creation and nonce recording never interleave
// unsafely.
//
// Timestamps come from the wall clock. A backward system clock adjustment
// can corrupt stored skew estimates until the affected identities expire;
// the cache does not defend against this.
type NonceCache struct {
	nonceTTL time.Duration
	maxSize  int

	mu  sync.Mutex
	ids *ttlcache.Cache[string, identityEntry]
}

// NewNonceCache creates a nonce cache with the given configuration.
func NewNonceCache(cfg NonceCacheConfig) *NonceCache {
	nonceTTL := cfg.NonceTTL
	if nonceTTL <= 0 {
		nonceTTL = DefaultNonceTTL
	}

	idTTL := cfg.IDTTL
	if idTTL <= 0 {
		idTTL = nonceTTL
	}

	c := &NonceCache{
		nonceTTL: nonceTTL,
		maxSize:  cfg.MaxSize,
	}

	c.ids = ttlcache.New[string, identityEntry](idTTL, ttlcache.Config{
		MaxSize: cfg.MaxSize,
		Lock:    &c.mu,
	})

	return c
}

// NonceTTL returns the configured freshness window.
func (c *NonceCache) NonceTTL() time.Duration {
	return c.nonceTTL
}

// CheckNonce reports whether (id, stamp, nonce) is fresh and, when it is,
// consumes the nonce in the same step. A later call with the same triple
// within the freshness window returns false.
//
// The nonce is recorded before the caller compares signatures. A request
// that subsequently fails verification still burns its nonce slot; that is
// the price of closing the check/record race, and without the key an
// attacker cannot turn pre-consumed nonces into accepted requests.
func (c *NonceCache) CheckNonce(id string, stamp time.Time, nonce string) bool {
	now := time.Now()

	ent, err := c.ids.Get(id)
	if err != nil {
		// First sighting of this identity: fix its clock skew from this
		// request and give it a fresh nonce store.
		ent = identityEntry{
			skew: now.Sub(stamp),
			nonces: ttlcache.New[string, struct{}](c.nonceTTL, ttlcache.Config{
				MaxSize: c.maxSize,
				Lock:    &c.mu,
			}),
		}

		if err := c.ids.Set(id, ent, now); err != nil {
			// A concurrent request for the same identity won the insert
			// race. Adopt the winner's skew estimate; both came from
			// near-simultaneous requests from the same source.
			var exists *ttlcache.KeyExistsError[identityEntry]
			if errors.As(err, &exists) {
				ent = exists.Prev
			}
		}
	}

	adjusted := stamp.Add(ent.skew)
	if d := now.Sub(adjusted); d >= c.nonceTTL || d <= -c.nonceTTL {
		return false
	}

	// A rejected duplicate write means this exact nonce was already
	// consumed for this identity within the window.
	return ent.nonces.Set(nonce, struct{}{}, adjusted) == nil
}

// Len returns the number of live nonces across all living identities.
// O(identities), not O(1).
func (c *NonceCache) Len() int {
	var n int
	for id := range c.ids.Keys() {
		if ent, err := c.ids.Get(id); err == nil {
			n += ent.nonces.Len()
		}
	}

	return n
}
