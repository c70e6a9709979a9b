// Package notes synthesizes note files (header block + body) and registers
// them with the document catalog.
package notes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/starford/munin/internal/apperr"
	"github.com/starford/munin/internal/fsutil"
)

const (
	headerDelim = "---"
	maxSlugLen  = 80
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Indexer registers a written note with the catalog.
type Indexer interface {
	IndexDocument(ctx context.Context, path string, tags []string) (string, error)
}

// Builder writes note files into a storage directory and hands them to the
// catalog for registration.
type Builder struct {
	dir     string
	catalog Indexer
}

// NewBuilder creates a Builder storing notes under dir.
func NewBuilder(dir string, catalog Indexer) *Builder {
	return &Builder{dir: dir, catalog: catalog}
}

// CreateNote derives a unique filename from title, writes the note file, and
// registers it with the catalog. It returns the absolute path of the note.
// The note is not registered if the write did not succeed.
func (b *Builder) CreateNote(ctx context.Context, title, content string, tags []string) (string, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", &apperr.NoteWriteError{Path: b.dir, Err: err}
	}

	path, err := b.claimPath(title)
	if err != nil {
		return "", err
	}

	body := Render(title, time.Now(), tags, content)
	if err := fsutil.WriteAtomic(path, []byte(body), 0o644); err != nil {
		_ = os.Remove(path)
		return "", &apperr.NoteWriteError{Path: path, Err: err}
	}

	if _, err := b.catalog.IndexDocument(ctx, path, tags); err != nil {
		return "", err
	}
	return path, nil
}

// Slug derives a filesystem-safe filename stem from title: lower-case,
// non-alphanumeric runs collapsed to a single dash, bounded length.
func Slug(title string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.Trim(s[:maxSlugLen], "-")
	}
	if s == "" {
		s = "note"
	}
	return s
}

// claimPath reserves an absolute path under the notes directory by creating
// the file with O_EXCL, appending a counter suffix while the name is taken.
// The exclusive create makes the claim atomic, so concurrent callers with the
// same title each get their own path and an existing note is never
// overwritten.
func (b *Builder) claimPath(title string) (string, error) {
	stem := Slug(title)
	for n := 1; ; n++ {
		name := stem + ".md"
		if n > 1 {
			name = fmt.Sprintf("%s-%d.md", stem, n)
		}
		p := filepath.Join(b.dir, name)
		f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", &apperr.NoteWriteError{Path: p, Err: err}
		}
		_ = f.Close()

		abs, absErr := filepath.Abs(p)
		if absErr != nil {
			_ = os.Remove(p)
			return "", &apperr.NoteWriteError{Path: p, Err: absErr}
		}
		return abs, nil
	}
}

// Render produces the on-disk note representation: a delimited header block
// with title, creation timestamp, and comma-joined tags, a blank line, then
// the caller's content verbatim.
func Render(title string, created time.Time, tags []string, content string) string {
	var sb strings.Builder
	sb.WriteString(headerDelim + "\n")
	sb.WriteString("title: " + title + "\n")
	sb.WriteString("created: " + created.Format(time.RFC3339) + "\n")
	sb.WriteString("tags: " + strings.Join(tags, ", ") + "\n")
	sb.WriteString(headerDelim + "\n\n")
	sb.WriteString(content)
	return sb.String()
}
