package ttlcache

import "errors"

var (
	// ErrNotFound is returned by Get when a key is absent or its entry
	// has outlived the TTL.
	ErrNotFound = errors.New("ttlcache: key not found")

	// ErrKeyExists is the sentinel wrapped by KeyExistsError. Use
	// errors.Is(err, ErrKeyExists) to detect a rejected duplicate write.
	ErrKeyExists = errors.New("ttlcache: key already present")
)

// KeyExistsError is returned by Set when the key already holds a live
// entry. Prev is the value that remains stored.
type KeyExistsError[V any] struct {
	Prev V
}

func (e *KeyExistsError[V]) Error() string {
	return ErrKeyExists.Error()
}

func (e *KeyExistsError[V]) Unwrap() error {
	return ErrKeyExists
}
