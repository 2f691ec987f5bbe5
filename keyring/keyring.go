// Package keyring provides an in-memory store of MAC credentials keyed by
// id, loadable from a YAML document. It implements the key lookup side of
// MAC authentication; it does not distribute or rotate keys.
package keyring

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vitalvas/macauth"
)

// ErrUnknownID is returned by the resolver when no key is registered for
// the claimed id.
var ErrUnknownID = errors.New("keyring: unknown id")

// Keyring is a thread-safe id-to-secret map.
type Keyring struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

// New returns an empty keyring.
func New() *Keyring {
	return &Keyring{keys: make(map[string][]byte)}
}

// file is the YAML document shape:
//
//	keys:
//	  h480djs93hd8: 489dks293j39
type file struct {
	Keys map[string]string `yaml:"keys"`
}

// Load reads a YAML keyring document from r.
func Load(r io.Reader) (*Keyring, error) {
	var doc file
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("keyring: decode: %w", err)
	}

	k := New()
	for id, secret := range doc.Keys {
		k.Add(id, []byte(secret))
	}

	return k, nil
}

// LoadFile reads a YAML keyring document from the named file.
func LoadFile(path string) (*Keyring, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("keyring: open: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Add registers (or replaces) the secret for id. The secret is copied.
func (k *Keyring) Add(id string, secret []byte) {
	cp := make([]byte, len(secret))
	copy(cp, secret)

	k.mu.Lock()
	defer k.mu.Unlock()

	k.keys[id] = cp
}

// Remove drops the secret for id, if present.
func (k *Keyring) Remove(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	delete(k.keys, id)
}

// Key returns the secret for id.
func (k *Keyring) Key(id string) ([]byte, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	secret, ok := k.keys[id]

	return secret, ok
}

// Len returns the number of registered ids.
func (k *Keyring) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return len(k.keys)
}

// Resolver returns a macauth.KeyResolver backed by this keyring.
func (k *Keyring) Resolver() macauth.KeyResolver {
	return func(_ *http.Request, id string) ([]byte, error) {
		secret, ok := k.Key(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownID, id)
		}

		return secret, nil
	}
}
