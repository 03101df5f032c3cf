package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/anchorlight/anchorlight/internal/storage"
	"github.com/anchorlight/anchorlight/internal/summarize"
)

const (
	// ServerName is the MCP server name
	ServerName = "anchorlight"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the highlight database
	DefaultDBPath = "~/.anchorlight"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp        *server.MCPServer
	storage    storage.Storage
	summarizer *summarize.Client // nil when no endpoint is configured
}

// NewServer creates a new MCP server instance
func NewServer(dbPath string) (*Server, error) {
	// Expand home directory if needed
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".anchorlight")
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbFile := filepath.Join(dbPath, "anchorlight.db")

	store, err := storage.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Summarization is optional: without an endpoint the tool reports
	// itself unconfigured instead of failing server startup.
	summarizer, err := summarize.NewFromEnv()
	if err != nil && !errors.Is(err, summarize.ErrNoEndpoint) {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize summarizer: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:        mcpServer,
		storage:    store,
		summarizer: summarizer,
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(captureHighlightTool(), s.handleCaptureHighlight)
	s.mcp.AddTool(restoreHighlightsTool(), s.handleRestoreHighlights)
	s.mcp.AddTool(listHighlightsTool(), s.handleListHighlights)
	s.mcp.AddTool(removeHighlightTool(), s.handleRemoveHighlight)
	s.mcp.AddTool(resolveDeepLinkTool(), s.handleResolveDeepLink)
	s.mcp.AddTool(summarizeHighlightTool(), s.handleSummarizeHighlight)
	s.mcp.AddTool(exportHighlightsTool(), s.handleExportHighlights)
	s.mcp.AddTool(importHighlightsTool(), s.handleImportHighlights)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
