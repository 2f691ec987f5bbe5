// Package macauth implements the MAC Access Authentication scheme
// (draft-ietf-oauth-v2-http-mac-01): shared-secret HTTP request signing
// with timestamp, nonce, and HMAC over a canonical request string.
//
// # Signing Requests
//
// A client signs an outgoing request by installing a MAC Authorization
// header:
//
//	err := macauth.SignRequest(req, macauth.SignConfig{
//	    ID:  "h480djs93hd8",
//	    Key: []byte("489dks293j39"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Verifying Requests
//
// A server extracts the claimed id, looks up the shared secret, and
// verifies the signature:
//
//	id := macauth.RequestID(req)
//	if id != "" {
//	    key, ok := lookupKey(id)
//	    if ok && macauth.VerifyRequest(req, macauth.VerifyConfig{Key: key}) {
//	        // request is authentic
//	    }
//	}
//
// Verification returns a bare boolean: a malformed header, a stale or
// replayed nonce, and a wrong signature are indistinguishable to the
// caller, so the verifier cannot be used as an oracle.
//
// # Replay Protection
//
// Verified nonces are consumed through a NonceCache, which keeps a
// per-identity clock-skew estimate and a TTL-bounded store of seen nonces.
// When VerifyConfig.Nonces is nil a process-wide cache is used; tests and
// multi-tenant servers can inject their own instance. The cache lives in
// memory only, so a restarted server briefly accepts replays of nonces it
// saw before the restart.
//
// # Client Transport
//
// NewTransport wraps an http.RoundTripper so every outgoing request is
// signed automatically:
//
//	client := &http.Client{
//	    Transport: macauth.NewTransport(nil, macauth.SignConfig{
//	        ID:  id,
//	        Key: key,
//	    }),
//	}
//
// # Server Middleware
//
// Middleware returns a net/http middleware that rejects unsigned or
// invalid requests with 401 Unauthorized:
//
//	mw, err := macauth.Middleware(macauth.MiddlewareConfig{
//	    Resolver: func(r *http.Request, id string) ([]byte, error) {
//	        return lookupKey(id)
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	handler = mw(handler)
package macauth
