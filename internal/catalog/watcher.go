package catalog

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/munin/internal/checksum"
)

// EventCallback is called after a watcher-driven catalog change.
// kind is "created" or "updated"; id is the document id.
type EventCallback func(kind, id string)

// settleDelay is how long a file must be quiet before the watcher reads it.
// Truncate-then-write saves arrive as several events in quick succession;
// debouncing collapses them so only the settled content is indexed.
const settleDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on dir and re-indexes supported files on
// create/write events until ctx is cancelled, calling cb (if non-nil) after
// each successful mutation. Events are debounced per settle window before
// the file is read. Remove and rename events are ignored: the catalog has no
// delete operation, so vanished files keep their records.
//
// Directories created at runtime are added to the watch list.
func (c *Catalog) Watch(ctx context.Context, dir string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", dir))

	// settleTimer debounces pending paths; each new event pushes it back.
	var settleTimer *time.Timer
	var settleCh <-chan time.Time
	pending := make(map[string]struct{})

	scheduleSettle := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}

	flush := func() {
		for id := range pending {
			delete(pending, id)

			// Skip settled content the catalog already has; the note
			// builder triggers a create event for files it just indexed.
			if data, readErr := os.ReadFile(id); readErr == nil && c.Checksum(id) == checksum.Sum(data) {
				continue
			}

			known := c.Has(id)
			if _, idxErr := c.RefreshDocument(ctx, id); idxErr != nil {
				logger.Warn("watcher: index failed", slog.String("path", id), slog.String("error", idxErr.Error()))
				continue
			}
			kind := "updated"
			if !known {
				kind = "created"
			}
			logger.Debug("watcher: indexed", slog.String("path", id), slog.String("op", kind))
			if cb != nil {
				cb(kind, id)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			flush()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			ext := strings.ToLower(filepath.Ext(ev.Name))
			if _, supported := supportedExtensions[ext]; !supported {
				continue
			}

			id, idErr := CanonicalPath(ev.Name)
			if idErr != nil {
				continue
			}

			pending[id] = struct{}{}
			scheduleSettle()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
