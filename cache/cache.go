// Package cache persists downloaded indicators, certificate bundles and
// evaluation records on disk.
//
// The store is an external content-addressable collaborator for the
// evaluation engine: one logo file and one certificate bundle per
// (domain, selector) key, one authenticated-logo file once a pass verdict is
// reached, and one shared root-certificate bundle. Writes go to a temp file
// first and are renamed into place, so concurrent evaluators never observe a
// partial file.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound indicates the requested entry is not in the store.
var ErrNotFound = errors.New("cache: entry not found")

// Store is a file-backed cache rooted at a directory.
type Store struct {
	// Dir is the cache directory. Created on first write.
	Dir string
}

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Get returns the bytes stored under name, or ErrNotFound.
func (s *Store) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cache: reading %s: %w", name, err)
	}
	return data, nil
}

// Put stores data under name. The write is atomic: data lands in a temp file
// named with a fresh ULID and is renamed into place, giving
// at-most-one-writer-per-key semantics without locking.
func (s *Store) Put(name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("cache: creating %s: %w", s.Dir, err)
	}

	tmp := filepath.Join(s.Dir, name+".tmp."+ulid.Make().String())
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("cache: writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.Dir, name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cache: committing %s: %w", name, err)
	}
	return nil
}

// Key builds the <domain>_<selector> cache key, with path separators and
// leading dots neutralized so a hostile domain cannot escape the cache
// directory.
func Key(domain, selector string) string {
	clean := func(s string) string {
		s = strings.ToLower(strings.TrimSuffix(s, "."))
		s = strings.ReplaceAll(s, string(filepath.Separator), "_")
		s = strings.TrimLeft(s, ".")
		return s
	}
	return clean(domain) + "_" + clean(selector)
}

// LogoKey is the store name for the fetched (unauthenticated) indicator.
func LogoKey(domain, selector string) string {
	return Key(domain, selector) + ".svg"
}

// VerifiedLogoKey is the store name for the indicator extracted from a
// verified VMC. Written only on a pass verdict.
func VerifiedLogoKey(domain, selector string) string {
	return Key(domain, selector) + ".authenticated.svg"
}

// CertsKey is the store name for the downloaded VMC bundle.
func CertsKey(domain, selector string) string {
	return Key(domain, selector) + ".pem"
}

// RootsKey is the store name for the shared pinned root bundle.
func RootsKey() string {
	return "roots.pem"
}
