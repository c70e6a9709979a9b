package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/munin/internal/indexstore"
)

func TestSyncDir_IndexesNewFiles(t *testing.T) {
	cat, docs := testCatalog(t)
	writeDoc(t, docs, "one.md", "# One")
	writeDoc(t, docs, "two.txt", "plain text")
	writeDoc(t, docs, "skip.bin", "not a document")
	sub := filepath.Join(docs, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeDoc(t, sub, "three.md", "# Three")

	if err := cat.SyncDir(context.Background(), docs, quietLogger()); err != nil {
		t.Fatalf("SyncDir: %v", err)
	}
	if cat.Len() != 3 {
		t.Errorf("catalog size = %d, want 3", cat.Len())
	}
}

func TestSyncDir_SkipsUnchanged(t *testing.T) {
	cat, docs := testCatalog(t)
	ctx := context.Background()
	p := writeDoc(t, docs, "stable.md", "# Stable")

	if err := cat.SyncDir(ctx, docs, quietLogger()); err != nil {
		t.Fatal(err)
	}
	id, _ := CanonicalPath(p)
	first, err := cat.ExtractMetadata(ctx, id)
	if err != nil {
		t.Fatal(err)
	}

	if err := cat.SyncDir(ctx, docs, quietLogger()); err != nil {
		t.Fatal(err)
	}
	second, err := cat.ExtractMetadata(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !second.IndexedAt.Equal(first.IndexedAt) {
		t.Error("unchanged file was re-indexed")
	}
}

func TestSyncDir_ReindexKeepsTags(t *testing.T) {
	cat, docs := testCatalog(t)
	ctx := context.Background()
	p := writeDoc(t, docs, "tagged.md", "v1")

	if _, err := cat.IndexDocument(ctx, p, []string{"work"}); err != nil {
		t.Fatal(err)
	}
	writeDoc(t, docs, "tagged.md", "v2 changed")

	if err := cat.SyncDir(ctx, docs, quietLogger()); err != nil {
		t.Fatal(err)
	}

	rec, err := cat.ExtractMetadata(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Tags) != 1 || rec.Tags[0] != "work" {
		t.Errorf("tags = %v, want [work]", rec.Tags)
	}
	if rec.Size != int64(len("v2 changed")) {
		t.Errorf("record not refreshed: size = %d", rec.Size)
	}
}

func TestRefreshDocument_RecoversNoteHeaderTags(t *testing.T) {
	cat, docs := testCatalog(t)
	content := "---\ntitle: Standup\ncreated: 2026-01-05T09:00:00Z\ntags: meeting, team\n---\n\nNotes body.\n"
	p := writeDoc(t, docs, "standup.md", content)

	if _, err := cat.RefreshDocument(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	rec, err := cat.ExtractMetadata(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Tags) != 2 || rec.Tags[0] != "meeting" || rec.Tags[1] != "team" {
		t.Errorf("tags = %v, want [meeting team]", rec.Tags)
	}
}

func TestSyncDir_SurvivesRestart(t *testing.T) {
	indexDir := t.TempDir()
	docs := t.TempDir()
	writeDoc(t, docs, "persisted.md", "# Persisted")

	cat, err := New(indexstore.New(indexDir))
	if err != nil {
		t.Fatal(err)
	}
	if err := cat.SyncDir(context.Background(), docs, quietLogger()); err != nil {
		t.Fatal(err)
	}

	cat2, err := New(indexstore.New(indexDir))
	if err != nil {
		t.Fatal(err)
	}
	if cat2.Len() != 1 {
		t.Errorf("reloaded catalog size = %d, want 1", cat2.Len())
	}
}
