package indexstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/munin/internal/apperr"
	"github.com/starford/munin/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir())
}

func TestLoad_MissingFileYieldsEmptyIndex(t *testing.T) {
	s := testStore(t)
	idx, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(idx.Documents) != 0 || len(idx.Tags) != 0 {
		t.Errorf("expected empty index, got %d documents, %d tags", len(idx.Documents), len(idx.Tags))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)
	idx := models.NewCatalogIndex()
	rec := models.DocumentRecord{
		ID:         "/docs/a.md",
		Path:       "/docs/a.md",
		Filename:   "a.md",
		Extension:  ".md",
		Size:       12,
		CreatedAt:  time.Now().Truncate(time.Second),
		ModifiedAt: time.Now().Truncate(time.Second),
		Tags:       []string{"go", "notes"},
		IndexedAt:  time.Now().Truncate(time.Second),
	}
	idx.Documents[rec.ID] = rec
	idx.Tags["go"] = []string{rec.ID}
	idx.Tags["notes"] = []string{rec.ID}

	if err := s.Save(idx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got, ok := loaded.Documents[rec.ID]
	if !ok {
		t.Fatalf("document missing after round trip")
	}
	if got.Filename != rec.Filename || got.Size != rec.Size || len(got.Tags) != 2 {
		t.Errorf("record mismatch: %+v", got)
	}
	if len(loaded.Tags) != 2 {
		t.Errorf("tags mapping = %v, want 2 entries", loaded.Tags)
	}
	if loaded.Version != schemaVersion {
		t.Errorf("version = %d, want %d", loaded.Version, schemaVersion)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	s := testStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := s.Load()
	if !errors.Is(err, apperr.ErrIndexCorrupt) {
		t.Fatalf("expected index corrupt error, got %v", err)
	}
	var ce *apperr.CorruptError
	if !errors.As(err, &ce) || ce.Err == nil {
		t.Errorf("corrupt error should carry the underlying cause: %v", err)
	}
}

func TestLoad_InconsistentIndexIsCorrupt(t *testing.T) {
	s := testStore(t)
	// A tag bucket pointing at a document that does not carry the tag.
	raw := `{
  "version": 1,
  "documents": {
    "/docs/a.md": {"id": "/docs/a.md", "path": "/docs/a.md", "filename": "a.md", "tags": []}
  },
  "tags": {"go": ["/docs/a.md"]}
}`
	if err := os.WriteFile(s.Path(), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := s.Load()
	if !errors.Is(err, apperr.ErrIndexCorrupt) {
		t.Fatalf("expected index corrupt error, got %v", err)
	}
}

func TestLoad_FutureVersionRejected(t *testing.T) {
	s := testStore(t)
	raw := `{"version": 99, "documents": {}, "tags": {}}`
	if err := os.WriteFile(s.Path(), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := s.Load()
	if !errors.Is(err, apperr.ErrIndexVersion) {
		t.Fatalf("expected index version error, got %v", err)
	}
	var ve *apperr.VersionError
	if !errors.As(err, &ve) || ve.Version != 99 {
		t.Errorf("version error should carry the offending version: %v", err)
	}
}

func TestSave_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := s.Save(models.NewCatalogIndex()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, ".munin-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestSave_OverwriteKeepsFileParseable(t *testing.T) {
	s := testStore(t)
	if err := s.Save(models.NewCatalogIndex()); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	idx := models.NewCatalogIndex()
	idx.Documents["/x.txt"] = models.DocumentRecord{ID: "/x.txt", Path: "/x.txt", Filename: "x.txt"}
	if err := s.Save(idx); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load after overwrite: %v", err)
	}
	if len(loaded.Documents) != 1 {
		t.Errorf("documents = %d, want 1", len(loaded.Documents))
	}
}
