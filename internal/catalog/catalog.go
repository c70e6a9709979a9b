// Package catalog implements the document catalog engine: it owns the
// in-memory index, serializes all mutating access, and persists every
// mutation through the index store before returning.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/starford/munin/internal/apperr"
	"github.com/starford/munin/internal/checksum"
	"github.com/starford/munin/internal/indexstore"
	"github.com/starford/munin/internal/models"
)

// DefaultSearchLimit is applied by adapters when the caller omits a limit.
const DefaultSearchLimit = 10

// supportedExtensions lists the file types the catalog accepts as text
// documents. Everything else is rejected with a format error.
var supportedExtensions = map[string]struct{}{
	".md": {}, ".markdown": {}, ".txt": {}, ".text": {}, ".rst": {}, ".org": {},
	".log": {}, ".json": {}, ".yaml": {}, ".yml": {}, ".csv": {}, ".tsv": {},
}

// Catalog holds the in-memory index, loaded once at construction. Mutations
// take the write lock and treat read-modify-persist as one atomic unit;
// lookups and searches share the read lock.
type Catalog struct {
	mu    sync.RWMutex
	store *indexstore.Store
	idx   *models.CatalogIndex
}

// New loads the persisted index and returns a ready catalog.
func New(store *indexstore.Store) (*Catalog, error) {
	idx, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Catalog{store: store, idx: idx}, nil
}

// CanonicalPath resolves path to the absolute, cleaned form used as a
// document id. Symlinks are not resolved; two spellings of the same file via
// different links are distinct ids.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("catalog: resolve %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// IndexDocument registers (or re-registers) the file at path with the given
// tags and returns its id. Re-indexing an existing id fully replaces the
// record; the inverted tag index is updated by diffing old against new tags.
func (c *Catalog) IndexDocument(_ context.Context, path string, tags []string) (string, error) {
	rec, err := buildRecord(path, tags)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.idx.Documents[rec.ID]; ok {
		// Creation time is sticky across re-indexes of the same id.
		rec.CreatedAt = prev.CreatedAt
	}

	undo := c.applyRecord(rec)
	if err := c.store.Save(c.idx); err != nil {
		undo()
		return "", err
	}
	return rec.ID, nil
}

// SearchDocuments returns records matching query and the tag filter, ordered
// by indexed_at descending with id ascending as the tie-breaker, truncated to
// limit. Tag filtering uses intersection semantics: a candidate must carry
// every requested tag. An empty query matches every candidate.
func (c *Catalog) SearchDocuments(_ context.Context, query string, tags []string, limit int) ([]models.DocumentRecord, error) {
	if limit <= 0 {
		return nil, &apperr.InvalidArgumentError{
			Name:   "limit",
			Reason: fmt.Sprintf("must be positive, got %d", limit),
		}
	}
	q := strings.ToLower(strings.TrimSpace(query))

	c.mu.RLock()
	defer c.mu.RUnlock()

	var matches []models.DocumentRecord
	for _, rec := range c.candidates(tags) {
		if matchesQuery(rec, q) {
			matches = append(matches, rec.Clone())
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].IndexedAt.Equal(matches[j].IndexedAt) {
			return matches[i].IndexedAt.After(matches[j].IndexedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// ExtractMetadata returns the record for path if one exists. It is a pure
// lookup and never indexes as a side effect.
func (c *Catalog) ExtractMetadata(_ context.Context, path string) (models.DocumentRecord, error) {
	id, err := CanonicalPath(path)
	if err != nil {
		return models.DocumentRecord{}, &apperr.NotFoundError{Path: path}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.idx.Documents[id]
	if !ok {
		return models.DocumentRecord{}, &apperr.NotFoundError{Path: path}
	}
	return rec.Clone(), nil
}

// Has reports whether a record exists for the given id.
func (c *Catalog) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.idx.Documents[id]
	return ok
}

// Checksum returns the stored content digest for id, or "" if unknown.
func (c *Catalog) Checksum(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.idx.Documents[id].Checksum
}

// Len returns the number of registered documents.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.idx.Documents)
}

// candidates returns the records to match against: the intersection of the
// requested tag buckets, or every document when no tags are given. Callers
// must hold at least the read lock.
func (c *Catalog) candidates(tags []string) []models.DocumentRecord {
	if len(tags) == 0 {
		out := make([]models.DocumentRecord, 0, len(c.idx.Documents))
		for _, rec := range c.idx.Documents {
			out = append(out, rec)
		}
		return out
	}

	ids, ok := c.idx.Tags[tags[0]]
	if !ok {
		return nil
	}
	kept := append([]string(nil), ids...)
	for _, tag := range tags[1:] {
		bucket, ok := c.idx.Tags[tag]
		if !ok {
			return nil
		}
		set := make(map[string]struct{}, len(bucket))
		for _, id := range bucket {
			set[id] = struct{}{}
		}
		next := kept[:0]
		for _, id := range kept {
			if _, in := set[id]; in {
				next = append(next, id)
			}
		}
		kept = next
		if len(kept) == 0 {
			return nil
		}
	}

	out := make([]models.DocumentRecord, 0, len(kept))
	for _, id := range kept {
		out = append(out, c.idx.Documents[id])
	}
	return out
}

// matchesQuery reports whether q (already lower-cased) is a substring of the
// filename or equals one of the tags case-insensitively. Empty q matches.
func matchesQuery(rec models.DocumentRecord, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(rec.Filename), q) {
		return true
	}
	for _, tag := range rec.Tags {
		if strings.ToLower(tag) == q {
			return true
		}
	}
	return false
}

// applyRecord installs rec and applies the tag delta to the inverted index.
// The returned func undoes the whole change; it is used to roll back the
// in-memory state when persistence fails, so a failed mutation is never
// observable. Callers must hold the write lock.
func (c *Catalog) applyRecord(rec models.DocumentRecord) func() {
	prev, existed := c.idx.Documents[rec.ID]

	oldSet := make(map[string]struct{}, len(prev.Tags))
	for _, t := range prev.Tags {
		oldSet[t] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(rec.Tags))
	for _, t := range rec.Tags {
		newSet[t] = struct{}{}
	}

	var removed, added []string
	for _, t := range prev.Tags {
		if _, keep := newSet[t]; !keep {
			removed = append(removed, t)
		}
	}
	for _, t := range rec.Tags {
		if _, had := oldSet[t]; !had {
			added = append(added, t)
		}
	}

	for _, t := range removed {
		c.removeFromBucket(t, rec.ID)
	}
	for _, t := range added {
		c.idx.Tags[t] = append(c.idx.Tags[t], rec.ID)
	}
	c.idx.Documents[rec.ID] = rec

	return func() {
		for _, t := range added {
			c.removeFromBucket(t, rec.ID)
		}
		for _, t := range removed {
			c.idx.Tags[t] = append(c.idx.Tags[t], rec.ID)
		}
		if existed {
			c.idx.Documents[rec.ID] = prev
		} else {
			delete(c.idx.Documents, rec.ID)
		}
	}
}

// removeFromBucket drops id from a tag bucket, deleting the bucket entirely
// rather than leaving it empty.
func (c *Catalog) removeFromBucket(tag, id string) {
	ids := c.idx.Tags[tag]
	for i, v := range ids {
		if v == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(c.idx.Tags, tag)
	} else {
		c.idx.Tags[tag] = ids
	}
}

// buildRecord stats and reads the file at path and produces its record.
func buildRecord(path string, tags []string) (models.DocumentRecord, error) {
	id, err := CanonicalPath(path)
	if err != nil {
		return models.DocumentRecord{}, &apperr.NotFoundError{Path: path}
	}

	info, err := os.Stat(id)
	if err != nil || !info.Mode().IsRegular() {
		return models.DocumentRecord{}, &apperr.NotFoundError{Path: path}
	}

	ext := strings.ToLower(filepath.Ext(id))
	if _, ok := supportedExtensions[ext]; !ok {
		return models.DocumentRecord{}, &apperr.FormatError{
			Path:      id,
			Extension: ext,
			Reason:    "unsupported extension",
		}
	}

	data, err := os.ReadFile(id)
	if err != nil {
		return models.DocumentRecord{}, &apperr.NotFoundError{Path: path}
	}
	if !utf8.Valid(data) {
		return models.DocumentRecord{}, &apperr.FormatError{
			Path:      id,
			Extension: ext,
			Reason:    "content is not valid UTF-8 text",
		}
	}

	return models.DocumentRecord{
		ID:         id,
		Path:       id,
		Filename:   filepath.Base(id),
		Extension:  ext,
		Size:       info.Size(),
		Checksum:   checksum.Sum(data),
		CreatedAt:  info.ModTime(),
		ModifiedAt: info.ModTime(),
		Tags:       normalizeTags(tags),
		IndexedAt:  time.Now(),
	}, nil
}

// normalizeTags drops blanks and duplicates while preserving first-seen order.
func normalizeTags(tags []string) []string {
	out := []string{}
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
