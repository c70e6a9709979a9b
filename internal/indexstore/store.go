// Package indexstore persists the catalog index as a single versioned JSON
// document, replaced atomically on every save.
package indexstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/munin/internal/apperr"
	"github.com/starford/munin/internal/fsutil"
	"github.com/starford/munin/internal/models"
)

const (
	// schemaVersion is stamped into every saved index. Load rejects anything newer.
	schemaVersion = 1

	indexFilename = "catalog.json"
)

// Store reads and writes the persisted catalog index. It never retains a
// reference to an index between calls; the catalog owns the in-memory state.
type Store struct {
	path string
}

// New creates a store persisting under dir. The directory is created on the
// first save, not here.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, indexFilename)}
}

// Path returns the location of the persisted index file.
func (s *Store) Path() string { return s.path }

// Load reads the persisted index. A missing file yields an empty index; an
// existing file that cannot be parsed or fails consistency validation yields
// a CorruptError, and a newer schema version yields a VersionError.
func (s *Store) Load() (*models.CatalogIndex, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.NewCatalogIndex(), nil
		}
		return nil, &apperr.CorruptError{Path: s.path, Err: err}
	}

	var idx models.CatalogIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, &apperr.CorruptError{Path: s.path, Err: err}
	}
	if idx.Version > schemaVersion {
		return nil, &apperr.VersionError{Path: s.path, Version: idx.Version}
	}
	if idx.Documents == nil {
		idx.Documents = make(map[string]models.DocumentRecord)
	}
	if idx.Tags == nil {
		idx.Tags = make(map[string][]string)
	}
	if err := idx.Validate(); err != nil {
		return nil, &apperr.CorruptError{Path: s.path, Err: err}
	}
	return &idx, nil
}

// Save stamps the current schema version and atomically replaces the index
// file. A crash mid-save leaves the previous file intact.
func (s *Store) Save(idx *models.CatalogIndex) error {
	idx.Version = schemaVersion
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("indexstore: marshal: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("indexstore: save: %w", err)
	}
	return nil
}
