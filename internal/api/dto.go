package api

import "github.com/starford/munin/internal/models"

// IndexDocumentRequest is the request body for registering a document.
type IndexDocumentRequest struct {
	Path string   `json:"path"`
	Tags []string `json:"tags,omitempty"`
}

// IndexDocumentResponse carries the id of the registered document.
type IndexDocumentResponse struct {
	ID string `json:"id"`
}

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// CreateNoteResponse carries the path of the created note file.
type CreateNoteResponse struct {
	Path string `json:"path"`
}

// SearchResponse wraps ordered search results.
type SearchResponse struct {
	Results []models.DocumentRecord `json:"results"`
	Total   int                     `json:"total"`
}

// UploadResponse is returned after a successful document upload.
type UploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}
