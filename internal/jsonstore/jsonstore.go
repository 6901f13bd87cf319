// internal/jsonstore/jsonstore.go
package jsonstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

// ErrCorrupt is returned when a collection file exists but cannot be read
// or decoded. A missing file is not corruption: it reads as an empty
// collection, and the caller decides what either case means.
var ErrCorrupt = errors.New("collection file is corrupt")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store persists named collections as JSON files inside a single directory.
// Every save is a whole-collection overwrite; there is no partial update.
type Store struct {
	dir string
}

// New creates the data directory if needed and returns a store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// Exists reports whether the collection file is present on disk.
func (s *Store) Exists(collection string) bool {
	_, err := os.Stat(s.path(collection))
	return err == nil
}

// Load decodes the named collection into dst, which must be a pointer to a
// slice. A missing file leaves dst untouched (empty collection); any other
// failure is reported as ErrCorrupt.
func (s *Store) Load(collection string, dst any) error {
	data, err := os.ReadFile(s.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read collection %s: %w", collection, ErrCorrupt)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode collection %s: %w", collection, ErrCorrupt)
	}
	return nil
}

// Save overwrites the named collection with records.
func (s *Store) Save(collection string, records any) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", collection, err)
	}
	if err := os.WriteFile(s.path(collection), data, 0o644); err != nil {
		return fmt.Errorf("write collection %s: %w", collection, err)
	}
	return nil
}
