package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/munin/internal/apperr"
	"github.com/starford/munin/internal/catalog"
	"github.com/starford/munin/internal/models"
	"github.com/starford/munin/internal/notes"
	"github.com/starford/munin/internal/sse"
)

const maxBodyBytes = 10 << 20 // 10 MB

// Handler holds API route handlers over the catalog engine.
type Handler struct {
	cat     *catalog.Catalog
	builder *notes.Builder
	broker  *sse.Broker
}

// NewHandler creates a new Handler. broker may be nil (no event publishing).
func NewHandler(cat *catalog.Catalog, builder *notes.Builder, broker *sse.Broker) *Handler {
	return &Handler{cat: cat, builder: builder, broker: broker}
}

func (h *Handler) publish(eventType, id string) {
	if h.broker != nil {
		h.broker.PublishCatalogEvent(eventType, id)
	}
}

// writeCatalogError maps the failure taxonomy onto HTTP status codes.
func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrFormat):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error("catalog operation failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// IndexDocument handles POST /documents.
func (h *Handler) IndexDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req IndexDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	id, err := h.cat.IndexDocument(r.Context(), req.Path, req.Tags)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	h.publish(sse.EventDocumentIndexed, id)
	writeJSON(w, http.StatusCreated, IndexDocumentResponse{ID: id})
}

// CreateNote handles POST /notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Title == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title and content are required"))
		return
	}

	path, err := h.builder.CreateNote(r.Context(), req.Title, req.Content, req.Tags)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	h.publish(sse.EventNoteCreated, path)
	writeJSON(w, http.StatusCreated, CreateNoteResponse{Path: path})
}

// Search handles GET /search. An empty q matches every candidate, so only
// its presence is not enforced; limit defaults to the catalog default.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	tags := r.URL.Query()["tag"]

	limit := catalog.DefaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be an integer"))
			return
		}
		limit = parsed
	}

	results, err := h.cat.SearchDocuments(r.Context(), q, tags, limit)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if results == nil {
		results = []models.DocumentRecord{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}

// Metadata handles GET /documents/metadata.
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}

	rec, err := h.cat.ExtractMetadata(r.Context(), path)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
