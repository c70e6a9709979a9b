package notes_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/munin/internal/apperr"
	"github.com/starford/munin/internal/catalog"
	"github.com/starford/munin/internal/indexstore"
	"github.com/starford/munin/internal/notes"
)

func testBuilder(t *testing.T) (*notes.Builder, *catalog.Catalog, string) {
	t.Helper()
	cat, err := catalog.New(indexstore.New(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	return notes.NewBuilder(dir, cat), cat, dir
}

func TestSlug(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Meeting Notes", "meeting-notes"},
		{"  Hello,   World!  ", "hello-world"},
		{"Already-Slugged", "already-slugged"},
		{"UPPER case", "upper-case"},
		{"weird///path\\chars", "weird-path-chars"},
		{"日本語のみ", "note"},
		{"", "note"},
		{"---", "note"},
		{strings.Repeat("a", 200), strings.Repeat("a", 80)},
	}
	for _, tc := range cases {
		if got := notes.Slug(tc.title); got != tc.want {
			t.Errorf("Slug(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestCreateNote_FileLayout(t *testing.T) {
	b, _, dir := testBuilder(t)

	path, err := b.CreateNote(context.Background(), "Project Kickoff", "First line.\nSecond line.", []string{"work", "planning"})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if filepath.Base(path) != "project-kickoff.md" {
		t.Errorf("filename = %q", filepath.Base(path))
	}
	if filepath.Dir(path) != mustAbs(t, dir) {
		t.Errorf("note written outside builder dir: %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) < 7 {
		t.Fatalf("unexpected layout:\n%s", data)
	}
	if lines[0] != "---" || lines[4] != "---" || lines[5] != "" {
		t.Errorf("header fences wrong:\n%s", data)
	}
	if lines[1] != "title: Project Kickoff" {
		t.Errorf("title line = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "created: ") {
		t.Errorf("created line = %q", lines[2])
	}
	if _, err := time.Parse(time.RFC3339, strings.TrimPrefix(lines[2], "created: ")); err != nil {
		t.Errorf("created timestamp not RFC3339: %q", lines[2])
	}
	if lines[3] != "tags: work, planning" {
		t.Errorf("tags line = %q", lines[3])
	}
	if lines[6] != "First line." {
		t.Errorf("body start = %q", lines[6])
	}
}

func TestCreateNote_RegisteredWithCatalog(t *testing.T) {
	b, cat, _ := testBuilder(t)
	ctx := context.Background()

	path, err := b.CreateNote(ctx, "Meeting Notes", "Agenda.", []string{"meeting"})
	if err != nil {
		t.Fatal(err)
	}

	rec, err := cat.ExtractMetadata(ctx, path)
	if err != nil {
		t.Fatalf("note not registered: %v", err)
	}
	if len(rec.Tags) != 1 || rec.Tags[0] != "meeting" {
		t.Errorf("tags = %v", rec.Tags)
	}

	res, err := cat.SearchDocuments(ctx, "meeting", nil, catalog.DefaultSearchLimit)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Path != path {
		t.Errorf("search did not find the created note: %+v", res)
	}
}

func TestCreateNote_CollisionSuffix(t *testing.T) {
	b, _, _ := testBuilder(t)
	ctx := context.Background()

	p1, err := b.CreateNote(ctx, "Daily Log", "one", nil)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := b.CreateNote(ctx, "Daily Log", "two", nil)
	if err != nil {
		t.Fatal(err)
	}
	p3, err := b.CreateNote(ctx, "Daily Log", "three", nil)
	if err != nil {
		t.Fatal(err)
	}

	if filepath.Base(p1) != "daily-log.md" {
		t.Errorf("first = %q", filepath.Base(p1))
	}
	if filepath.Base(p2) != "daily-log-2.md" {
		t.Errorf("second = %q", filepath.Base(p2))
	}
	if filepath.Base(p3) != "daily-log-3.md" {
		t.Errorf("third = %q", filepath.Base(p3))
	}

	// The first note's content must be untouched.
	data, _ := os.ReadFile(p1)
	if !strings.HasSuffix(string(data), "one") {
		t.Errorf("original note overwritten:\n%s", data)
	}
}

func TestCreateNote_ConcurrentSameTitle(t *testing.T) {
	b, cat, _ := testBuilder(t)

	const n = 32
	var wg sync.WaitGroup
	paths := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = b.CreateNote(context.Background(), "Meeting Notes", fmt.Sprintf("body %d", i), nil)
		}(i)
	}
	wg.Wait()

	// Every call must have claimed its own file; none may share a path or
	// overwrite another's content.
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if _, dup := seen[paths[i]]; dup {
			t.Fatalf("path %q returned by more than one call", paths[i])
		}
		seen[paths[i]] = struct{}{}
	}
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("note %d missing from disk: %v", i, err)
		}
		if !strings.HasSuffix(string(data), fmt.Sprintf("body %d", i)) {
			t.Errorf("note %d content overwritten:\n%s", i, data)
		}
	}
	if cat.Len() != n {
		t.Errorf("catalog size = %d, want %d", cat.Len(), n)
	}
}

func TestCreateNote_WriteFailure(t *testing.T) {
	cat, err := catalog.New(indexstore.New(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	// A regular file where the notes directory should be makes MkdirAll fail.
	parent := t.TempDir()
	blocked := filepath.Join(parent, "notes")
	if err := os.WriteFile(blocked, []byte("in the way"), 0o644); err != nil {
		t.Fatal(err)
	}
	b := notes.NewBuilder(blocked, cat)

	_, err = b.CreateNote(context.Background(), "Doomed", "content", nil)
	if !errors.Is(err, apperr.ErrNoteWrite) {
		t.Fatalf("expected note write error, got %v", err)
	}
	if cat.Len() != 0 {
		t.Error("failed note must not be registered")
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	body := "Line one.\n\nLine two.\n"
	rendered := notes.Render("Round Trip", created, []string{"a", "b"}, body)

	hdr, gotBody := notes.ParseHeader([]byte(rendered))
	if hdr == nil {
		t.Fatal("header did not parse")
	}
	if hdr.Title != "Round Trip" {
		t.Errorf("title = %q", hdr.Title)
	}
	if !hdr.Created.Equal(created) {
		t.Errorf("created = %v, want %v", hdr.Created, created)
	}
	if len(hdr.Tags) != 2 || hdr.Tags[0] != "a" || hdr.Tags[1] != "b" {
		t.Errorf("tags = %v", hdr.Tags)
	}
	if gotBody != body {
		t.Errorf("body = %q, want %q", gotBody, body)
	}
}

func TestParseHeader_NoHeader(t *testing.T) {
	content := "# Just Markdown\n\nNo header block here.\n"
	hdr, body := notes.ParseHeader([]byte(content))
	if hdr != nil {
		t.Errorf("header = %+v, want nil", hdr)
	}
	if body != content {
		t.Errorf("body = %q", body)
	}
}

func TestParseHeader_UnclosedFence(t *testing.T) {
	content := "---\ntitle: Broken\nno closing fence\n"
	hdr, body := notes.ParseHeader([]byte(content))
	if hdr != nil {
		t.Errorf("header = %+v, want nil", hdr)
	}
	if body != content {
		t.Errorf("body = %q", body)
	}
}

func mustAbs(t *testing.T, p string) string {
	t.Helper()
	abs, err := filepath.Abs(p)
	if err != nil {
		t.Fatal(err)
	}
	return abs
}
