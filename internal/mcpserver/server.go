// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the Munin catalog operations for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/munin/internal/catalog"
	"github.com/starford/munin/internal/notes"
)

// Server wraps the MCP server with the catalog tools.
type Server struct {
	mcp     *server.MCPServer
	cat     *catalog.Catalog
	builder *notes.Builder
}

// New creates a new MCP server with all catalog tools registered.
func New(cat *catalog.Catalog, builder *notes.Builder) *Server {
	s := &Server{cat: cat, builder: builder}

	s.mcp = server.NewMCPServer(
		"Munin",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("index_document",
		mcp.WithDescription("Index a document for search and retrieval."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the document to index")),
		mcp.WithArray("tags", mcp.Description("Optional tags for categorization"), mcp.WithStringItems()),
	), s.indexDocument)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note in markdown format. The note gets a "+
			"header block with title, creation time, and tags; read the "+
			"munin://note-format resource for the exact layout."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the note")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Content of the note in markdown")),
		mcp.WithArray("tags", mcp.Description("Optional tags for the note"), mcp.WithStringItems()),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Search indexed documents by filename keywords or tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string (empty matches everything)")),
		mcp.WithArray("tags", mcp.Description("Optional tags to filter results; documents must carry all of them"), mcp.WithStringItems()),
		mcp.WithNumber("limit", mcp.DefaultNumber(catalog.DefaultSearchLimit), mcp.Description("Maximum number of results")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("extract_metadata",
		mcp.WithDescription("Extract metadata for an indexed document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the document")),
	), s.extractMetadata)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("munin://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical note layout produced by create_note."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) indexDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags := req.GetStringSlice("tags", nil)

	id, err := s.cat.IndexDocument(ctx, path, tags)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Document indexed successfully: %s", id)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags := req.GetStringSlice("tags", nil)

	path, err := s.builder.CreateNote(ctx, title, content, tags)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Note created successfully at: %s", path)), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags := req.GetStringSlice("tags", nil)
	limit := int(req.GetFloat("limit", catalog.DefaultSearchLimit))

	results, err := s.cat.SearchDocuments(ctx, query, tags, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) extractMetadata(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.cat.ExtractMetadata(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "munin://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
