package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/munin/internal/checksum"
	"github.com/starford/munin/internal/notes"
)

// RefreshDocument re-indexes path, keeping the tags its record already
// carries. Unknown .md files recover tags from their note header block;
// other unknown files are indexed untagged.
func (c *Catalog) RefreshDocument(ctx context.Context, path string) (string, error) {
	id, err := CanonicalPath(path)
	if err != nil {
		return "", err
	}

	c.mu.RLock()
	rec, known := c.idx.Documents[id]
	var tags []string
	if known {
		tags = append([]string(nil), rec.Tags...)
	}
	c.mu.RUnlock()

	if !known && strings.EqualFold(filepath.Ext(id), ".md") {
		if data, readErr := os.ReadFile(id); readErr == nil {
			if hdr, _ := notes.ParseHeader(data); hdr != nil {
				tags = hdr.Tags
			}
		}
	}
	return c.IndexDocument(ctx, id, tags)
}

// SyncDir walks dir and brings the catalog up to date: new files are indexed
// and changed files re-indexed with their existing tags. Unchanged files are
// skipped by checksum. Nothing is ever pruned; the catalog has no delete
// operation.
func (c *Catalog) SyncDir(ctx context.Context, dir string, logger *slog.Logger) error {
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := supportedExtensions[ext]; !ok {
			return nil
		}

		id, err := CanonicalPath(p)
		if err != nil {
			return nil
		}
		data, err := os.ReadFile(id)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", id), slog.String("error", err.Error()))
			return nil
		}
		if c.Checksum(id) == checksum.Sum(data) {
			return nil
		}

		if _, err := c.RefreshDocument(ctx, id); err != nil {
			logger.Warn("sync: index failed", slog.String("path", id), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("catalog: sync %s: %w", dir, err)
	}
	return nil
}
