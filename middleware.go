package macauth

import (
	"hash"
	"net/http"
)

// KeyResolver returns the shared secret for the given MAC id. It is called
// during request verification. The request is provided for context (e.g.,
// to select keys per tenant or host).
type KeyResolver func(r *http.Request, id string) ([]byte, error)

// MiddlewareConfig configures the server-side verification middleware.
type MiddlewareConfig struct {
	// Resolver looks up the shared secret for a claimed id. Required.
	Resolver KeyResolver

	// Hash constructs the hash backing the HMAC. Defaults to sha1.New.
	Hash func() hash.Hash

	// Nonces is the replay-protection cache. When nil the process-wide
	// DefaultNonceCache is used.
	Nonces *NonceCache

	// OnError is called when a request fails authentication. When nil, a
	// plain 401 Unauthorized response with a WWW-Authenticate challenge
	// is sent.
	OnError func(w http.ResponseWriter, r *http.Request)
}

// Middleware returns a net/http middleware that rejects requests without a
// valid MAC signature.
//
// It returns ErrNoResolver if MiddlewareConfig.Resolver is nil.
func Middleware(cfg MiddlewareConfig) (func(http.Handler) http.Handler, error) {
	if cfg.Resolver == nil {
		return nil, ErrNoResolver
	}

	onError := cfg.OnError
	if onError == nil {
		onError = defaultOnError
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := RequestID(r)
			if id == "" {
				onError(w, r)
				return
			}

			key, err := cfg.Resolver(r, id)
			if err != nil {
				onError(w, r)
				return
			}

			ok := VerifyRequest(r, VerifyConfig{
				Key:    key,
				Hash:   cfg.Hash,
				Nonces: cfg.Nonces,
			})
			if !ok {
				onError(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

// defaultOnError writes a 401 Unauthorized response with a MAC challenge.
func defaultOnError(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("WWW-Authenticate", Scheme)
	w.WriteHeader(http.StatusUnauthorized)
}
