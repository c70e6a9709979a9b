// Package models defines the domain types for Munin.
package models

import (
	"fmt"
	"slices"
	"time"
)

// DocumentRecord is one catalog entry per indexed file. The ID is the
// canonical absolute path of the file and acts as the primary key.
type DocumentRecord struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Filename   string    `json:"filename"`
	Extension  string    `json:"extension"`
	Size       int64     `json:"size"`
	Checksum   string    `json:"checksum,omitempty"`
	CreatedAt  time.Time `json:"created"`
	ModifiedAt time.Time `json:"modified"`
	Tags       []string  `json:"tags"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// Clone returns a copy whose tag slice is independent of the original.
func (r DocumentRecord) Clone() DocumentRecord {
	out := r
	out.Tags = append([]string(nil), r.Tags...)
	return out
}

// HasTag reports whether the record carries the given tag (case-sensitive).
func (r DocumentRecord) HasTag(tag string) bool {
	return slices.Contains(r.Tags, tag)
}

// CatalogIndex is the complete persisted catalog state: all document records
// plus the inverted tag index derived from them.
type CatalogIndex struct {
	Version   int                       `json:"version"`
	Documents map[string]DocumentRecord `json:"documents"`
	Tags      map[string][]string       `json:"tags"`
}

// NewCatalogIndex returns an empty index ready for use.
func NewCatalogIndex() *CatalogIndex {
	return &CatalogIndex{
		Documents: make(map[string]DocumentRecord),
		Tags:      make(map[string][]string),
	}
}

// Validate checks the bidirectional consistency invariant between Documents
// and the inverted Tags index: every tag a document carries must list the
// document's id, every listed id must belong to a document carrying that tag,
// and no tag bucket may be empty.
func (idx *CatalogIndex) Validate() error {
	for id, rec := range idx.Documents {
		if rec.ID != id {
			return fmt.Errorf("document key %q does not match record id %q", id, rec.ID)
		}
		for _, tag := range rec.Tags {
			if !slices.Contains(idx.Tags[tag], id) {
				return fmt.Errorf("document %q carries tag %q but is missing from its bucket", id, tag)
			}
		}
	}
	for tag, ids := range idx.Tags {
		if len(ids) == 0 {
			return fmt.Errorf("tag %q has an empty bucket", tag)
		}
		for _, id := range ids {
			rec, ok := idx.Documents[id]
			if !ok {
				return fmt.Errorf("tag %q lists unknown document %q", tag, id)
			}
			if !rec.HasTag(tag) {
				return fmt.Errorf("tag %q lists document %q which does not carry it", tag, id)
			}
		}
	}
	return nil
}
