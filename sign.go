package macauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"hash"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/http/httpguts"
)

// nonceSize is the number of random bytes used to generate a nonce.
const nonceSize = 8

// GenerateNonce returns a cryptographically random nonce string: 8 random
// bytes encoded as unpadded base64url.
func GenerateNonce() (string, error) {
	b := make([]byte, nonceSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SignConfig configures MAC request signing.
type SignConfig struct {
	// ID identifies the MAC credentials to the server. Required.
	ID string

	// Key is the shared secret. Required.
	Key []byte

	// Hash constructs the hash backing the HMAC. Defaults to sha1.New.
	Hash func() hash.Hash

	// Params optionally pre-sets protocol parameters such as ts, nonce,
	// and ext. Missing ts and nonce values are filled in at signing time.
	Params map[string]string
}

// SignRequest signs r in place by installing a MAC Authorization header.
//
// When cfg.Params is nil, parameters are taken from any MAC Authorization
// header already present on the request; headers for other schemes are
// discarded. A missing ts gets the current time and a missing nonce gets a
// random value.
func SignRequest(r *http.Request, cfg SignConfig) error {
	if len(cfg.Key) == 0 {
		return ErrNoKey
	}

	seed := cfg.Params
	if seed == nil {
		if existing, ok := RequestParams(r); ok && existing.Scheme == Scheme {
			seed = existing.Attrs
		}
	}

	attrs := make(map[string]string, len(seed)+4)
	for k, v := range seed {
		attrs[k] = v
	}

	attrs["id"] = cfg.ID

	if _, ok := attrs["ts"]; !ok {
		attrs["ts"] = strconv.FormatInt(time.Now().Unix(), 10)
	}

	if _, ok := attrs["nonce"]; !ok {
		nonce, err := GenerateNonce()
		if err != nil {
			return err
		}

		attrs["nonce"] = nonce
	}

	params := Params{Scheme: Scheme, Attrs: attrs}

	mac, err := Signature(r, cfg.Key, cfg.Hash, params)
	if err != nil {
		return err
	}

	attrs["mac"] = mac

	header := params.String()
	if !httpguts.ValidHeaderFieldValue(header) {
		return fmt.Errorf("%w: parameter value not header-safe", ErrInvalidParameter)
	}

	r.Header.Set("Authorization", header)

	return nil
}

// Signature computes the base64 HMAC digest over the canonical string for
// r and params. A nil hashNew means HMAC-SHA1, the scheme default.
func Signature(r *http.Request, key []byte, hashNew func() hash.Hash, params Params) (string, error) {
	if hashNew == nil {
		hashNew = sha1.New
	}

	base, err := SigningString(r, params)
	if err != nil {
		return "", err
	}

	mac := hmac.New(hashNew, key)
	mac.Write([]byte(base))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// RequestID returns the MAC id claimed by the request's Authorization
// header, or "" when the header is absent, malformed, carries another
// scheme, or has no id parameter. It performs no cryptographic
// verification.
func RequestID(r *http.Request) string {
	params, ok := RequestParams(r)
	if !ok || params.Scheme != Scheme {
		return ""
	}

	return params.ID()
}
