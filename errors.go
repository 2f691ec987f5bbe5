package macauth

import "errors"

// Header parsing errors.
var (
	// ErrMalformedHeader is returned when an Authorization header value
	// cannot be parsed as a scheme token followed by key=value parameters.
	ErrMalformedHeader = errors.New("macauth: malformed authorization header")
)

// Signing errors.
var (
	// ErrNoKey is returned when SignConfig has an empty Key.
	ErrNoKey = errors.New("macauth: key must not be empty")

	// ErrUnknownScheme is returned when the request port cannot be
	// resolved: no explicit port in the host and no registered default
	// for the request scheme. Ambiguous ports are never guessed.
	ErrUnknownScheme = errors.New("macauth: no default port for scheme")

	// ErrMissingParameter is returned when a required protocol parameter
	// is absent.
	ErrMissingParameter = errors.New("macauth: required parameter missing")

	// ErrInvalidParameter is returned when a protocol parameter has an
	// unusable value, such as a non-integer timestamp.
	ErrInvalidParameter = errors.New("macauth: invalid parameter value")
)

// Middleware errors.
var (
	// ErrNoResolver is returned when MiddlewareConfig has no Resolver
	// configured.
	ErrNoResolver = errors.New("macauth: key resolver must not be nil")
)
