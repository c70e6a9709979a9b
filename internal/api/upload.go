package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/munin/internal/sse"
)

const maxUploadBytes = 50 << 20 // 50 MB

// UploadHandler accepts document uploads into the documents directory and
// registers them with the catalog.
type UploadHandler struct {
	docsDir string
	inner   *Handler
}

// NewUploadHandler creates a handler storing uploads under docsDir.
func NewUploadHandler(docsDir string, inner *Handler) *UploadHandler {
	return &UploadHandler{docsDir: docsDir, inner: inner}
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the documents dir.
func (h *UploadHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.docsDir, cleaned)
	if !strings.HasPrefix(abs, h.docsDir+string(os.PathSeparator)) && abs != h.docsDir {
		return "", fmt.Errorf("path escapes documents directory")
	}
	return abs, nil
}

// Upload handles POST /documents/upload (multipart/form-data, field "file",
// optional repeated field "tag"). The file is written into the documents
// directory and indexed; indexing failures surface with the saved file left
// in place but unregistered.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	abs, err := h.safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	if err := os.MkdirAll(h.docsDir, 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create documents dir"))
		return
	}

	dst, err := os.Create(abs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create file"))
		return
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	tags := r.MultipartForm.Value["tag"]
	id, err := h.inner.cat.IndexDocument(r.Context(), abs, tags)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	h.inner.publish(sse.EventDocumentIndexed, id)

	writeJSON(w, http.StatusCreated, UploadResponse{
		ID:       id,
		Filename: header.Filename,
		Size:     written,
	})
}
