// Package apperr defines the failure taxonomy shared by the catalog engine
// and its adapters. Each condition has a sentinel kind plus a typed error
// carrying detail; callers branch with errors.Is, never on message text.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. The typed errors below match these via errors.Is.
var (
	ErrNotFound        = errors.New("document not found")
	ErrFormat          = errors.New("unsupported document format")
	ErrIndexCorrupt    = errors.New("catalog index corrupt")
	ErrIndexVersion    = errors.New("unknown catalog index version")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoteWrite       = errors.New("note write failed")
)

// NotFoundError reports a path that does not resolve to a readable regular
// file, or a lookup for a path that was never indexed.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document not found: %s", e.Path)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// FormatError reports a file whose extension is unsupported or whose content
// cannot be decoded as text.
type FormatError struct {
	Path      string
	Extension string
	Reason    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error (%s): %s: %s", e.Extension, e.Reason, e.Path)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// CorruptError reports a persisted index that exists but cannot be parsed or
// fails consistency validation. The underlying cause is preserved.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("catalog index corrupt: %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

func (e *CorruptError) Is(target error) bool { return target == ErrIndexCorrupt }

// VersionError reports a persisted index with a schema version newer than
// this build understands.
type VersionError struct {
	Path    string
	Version int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("catalog index %s has unknown schema version %d", e.Path, e.Version)
}

func (e *VersionError) Is(target error) bool { return target == ErrIndexVersion }

// InvalidArgumentError reports a bad operation parameter.
type InvalidArgumentError struct {
	Name   string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Name, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// NoteWriteError reports a note that could not be persisted to disk.
type NoteWriteError struct {
	Path string
	Err  error
}

func (e *NoteWriteError) Error() string {
	return fmt.Sprintf("note write failed: %s: %v", e.Path, e.Err)
}

func (e *NoteWriteError) Unwrap() error { return e.Err }

func (e *NoteWriteError) Is(target error) bool { return target == ErrNoteWrite }
