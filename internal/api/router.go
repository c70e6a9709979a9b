package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/munin/internal/catalog"
	"github.com/starford/munin/internal/notes"
	"github.com/starford/munin/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// docsDir is where uploaded documents are stored.
func NewRouter(cat *catalog.Catalog, builder *notes.Builder, broker *sse.Broker, authEnabled bool, token string, sseHandler http.Handler, docsDir string) chi.Router {
	h := NewHandler(cat, builder, broker)
	uh := NewUploadHandler(docsDir, h)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog operations.
	r.Post("/documents", h.IndexDocument)
	r.Post("/documents/upload", uh.Upload)
	r.Get("/documents/metadata", h.Metadata)
	r.Post("/notes", h.CreateNote)
	r.Get("/search", h.Search)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
