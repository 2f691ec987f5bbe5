package macauth

import (
	"crypto/hmac"
	"hash"
	"net/http"
	"sync"
)

var (
	defaultNonces     *NonceCache
	defaultNoncesOnce sync.Once
)

// DefaultNonceCache returns the process-wide nonce cache used when
// VerifyConfig.Nonces is nil. It is built with default settings on first
// use and never reset.
func DefaultNonceCache() *NonceCache {
	defaultNoncesOnce.Do(func() {
		defaultNonces = NewNonceCache(NonceCacheConfig{})
	})

	return defaultNonces
}

// VerifyConfig configures MAC request verification.
type VerifyConfig struct {
	// Key is the shared secret for the claimed id. Required.
	Key []byte

	// Hash constructs the hash backing the HMAC. Defaults to sha1.New.
	Hash func() hash.Hash

	// Params optionally supplies pre-parsed parameters instead of parsing
	// the request's Authorization header.
	Params *Params

	// Nonces is the replay-protection cache. When nil the process-wide
	// DefaultNonceCache is used.
	Nonces *NonceCache
}

// VerifyRequest reports whether r carries a valid, fresh MAC signature for
// the configured key.
//
// Attacker-controlled input never produces an error: a malformed header, a
// missing or non-integer parameter, a stale or replayed nonce, and a wrong
// signature all collapse to false so the result cannot be used as an
// oracle.
func VerifyRequest(r *http.Request, cfg VerifyConfig) bool {
	nonces := cfg.Nonces
	if nonces == nil {
		nonces = DefaultNonceCache()
	}

	var params Params
	if cfg.Params != nil {
		params = *cfg.Params
	} else {
		var ok bool
		if params, ok = RequestParams(r); !ok {
			return false
		}
	}

	if params.Scheme != Scheme {
		return false
	}

	id := params.ID()
	nonce := params.Nonce()
	mac := params.MAC()

	if id == "" || nonce == "" || mac == "" {
		return false
	}

	stamp, err := params.Timestamp()
	if err != nil {
		return false
	}

	// Fresh-and-consume in one step: the nonce is burned even when the
	// signature below turns out to be wrong.
	if !nonces.CheckNonce(id, stamp, nonce) {
		return false
	}

	expected, err := Signature(r, cfg.Key, cfg.Hash, params)
	if err != nil {
		return false
	}

	return hmac.Equal([]byte(mac), []byte(expected))
}
