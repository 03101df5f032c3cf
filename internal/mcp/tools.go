package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/anchorlight/anchorlight/internal/dom"
	"github.com/anchorlight/anchorlight/internal/engine"
	"github.com/anchorlight/anchorlight/internal/storage"
	"github.com/anchorlight/anchorlight/internal/summarize"
	"github.com/anchorlight/anchorlight/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound          = -32001 // Highlight does not exist
	ErrorCodeNotAnchored       = -32002 // Passage could not be located in the page
	ErrorCodeNoSummarizer      = -32003 // Summarization endpoint not configured
	ErrorCodeCollaboratorError = -32004 // Persistence or summarization call failed
)

// handleCaptureHighlight handles the capture_highlight tool invocation
func (s *Server) handleCaptureHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	pageURL, html, err := pageArgs(args)
	if err != nil {
		return nil, err
	}
	text, _ := args["text"].(string)
	if strings.TrimSpace(text) == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "text parameter is required", nil)
	}

	doc, parseErr := dom.ParseString(html, pageURL)
	if parseErr != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "unparseable html", map[string]interface{}{
			"reason": parseErr.Error(),
		})
	}

	eng := engine.New(doc, nil)
	frag, res, capErr := eng.CaptureText(text)
	if capErr != nil {
		return nil, newMCPError(ErrorCodeNotAnchored, "passage not found in page", map[string]interface{}{
			"text":   text,
			"reason": capErr.Error(),
		})
	}

	rec := &types.Record{Fragment: frag, PageURL: pageURL}
	if saveErr := s.storage.SaveFragment(ctx, rec); saveErr != nil {
		return nil, newMCPError(ErrorCodeCollaboratorError, "failed to save highlight", map[string]interface{}{
			"reason": saveErr.Error(),
		})
	}

	marked, renderErr := doc.HTML()
	if renderErr != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to render page", nil)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"fragment": rec,
		"outcome":  string(res.Outcome),
		"html":     marked,
	})), nil
}

// handleRestoreHighlights handles the restore_highlights tool invocation
func (s *Server) handleRestoreHighlights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	pageURL, html, err := pageArgs(args)
	if err != nil {
		return nil, err
	}

	recs, listErr := s.storage.ListFragmentsByPage(ctx, pageURL)
	if listErr != nil {
		return nil, newMCPError(ErrorCodeCollaboratorError, "failed to load highlights", map[string]interface{}{
			"reason": listErr.Error(),
		})
	}

	doc, parseErr := dom.ParseString(html, pageURL)
	if parseErr != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "unparseable html", map[string]interface{}{
			"reason": parseErr.Error(),
		})
	}

	frags := make([]types.Fragment, len(recs))
	for i, rec := range recs {
		frags[i] = rec.Fragment
	}

	eng := engine.New(doc, nil)
	results, runErr := eng.RestoreAll(ctx, frags)
	if runErr != nil {
		return nil, newMCPError(ErrorCodeInternalError, "restore interrupted", map[string]interface{}{
			"reason": runErr.Error(),
		})
	}

	restored := 0
	outcomes := make([]map[string]interface{}, len(results))
	for i, res := range results {
		if res.OK() {
			restored++
		}
		entry := map[string]interface{}{
			"id":      res.FragmentID,
			"outcome": string(res.Outcome),
		}
		if res.Err != nil {
			entry["error"] = res.Err.Error()
		}
		outcomes[i] = entry
	}

	marked, renderErr := doc.HTML()
	if renderErr != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to render page", nil)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"total":    len(recs),
		"restored": restored,
		"results":  outcomes,
		"html":     marked,
	})), nil
}

// handleListHighlights handles the list_highlights tool invocation
func (s *Server) handleListHighlights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	pageURL := getStringDefault(args, "page_url", "")

	var recs []*types.Record
	var err error
	if pageURL != "" {
		recs, err = s.storage.ListFragmentsByPage(ctx, pageURL)
	} else {
		recs, err = s.storage.ListFragments(ctx)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeCollaboratorError, "failed to list highlights", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":      len(recs),
		"highlights": recs,
	})), nil
}

// handleRemoveHighlight handles the remove_highlight tool invocation
func (s *Server) handleRemoveHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	id, _ := args["id"].(string)
	if id == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "id parameter is required", nil)
	}

	err := s.storage.DeleteFragment(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotFound, "highlight not found", map[string]interface{}{"id": id})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeCollaboratorError, "failed to delete highlight", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"deleted": id,
	})), nil
}

// handleResolveDeepLink handles the resolve_deep_link tool invocation
func (s *Server) handleResolveDeepLink(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	pageURL, html, err := pageArgs(args)
	if err != nil {
		return nil, err
	}
	link, _ := args["link"].(string)
	if link == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "link parameter is required", nil)
	}

	doc, parseErr := dom.ParseString(html, pageURL)
	if parseErr != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "unparseable html", map[string]interface{}{
			"reason": parseErr.Error(),
		})
	}

	eng := engine.New(doc, nil)
	// The page HTML is a snapshot here, so polling for late-rendered
	// content defaults to a single attempt.
	eng.DeepLinkAttempts = getIntDefault(args, "max_attempts", 1)

	res, resolveErr := eng.ResolveDeepLink(ctx, link)
	if resolveErr != nil && !res.OK() {
		return nil, newMCPError(ErrorCodeNotAnchored, "deep link target not found", map[string]interface{}{
			"reason": resolveErr.Error(),
		})
	}

	marked, renderErr := doc.HTML()
	if renderErr != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to render page", nil)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"outcome": string(res.Outcome),
		"found":   res.OK(),
		"html":    marked,
	})), nil
}

// handleSummarizeHighlight handles the summarize_highlight tool invocation
func (s *Server) handleSummarizeHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	id, _ := args["id"].(string)
	if id == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "id parameter is required", nil)
	}
	if s.summarizer == nil {
		return nil, newMCPError(ErrorCodeNoSummarizer, "summarization endpoint not configured", map[string]interface{}{
			"hint": "set " + summarize.EnvEndpoint,
		})
	}

	rec, err := s.storage.GetFragment(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotFound, "highlight not found", map[string]interface{}{"id": id})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeCollaboratorError, "failed to load highlight", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	summary, err := s.summarizer.Summarize(ctx, summarize.Request{
		Text:    rec.Text,
		PageURL: rec.PageURL,
		Metadata: map[string]string{
			"captured_at": rec.CapturedAt.UTC().Format("2006-01-02T15:04:05Z"),
			"context":     rec.ContextText,
		},
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeCollaboratorError, "summarization failed", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"id":      id,
		"summary": summary,
	})), nil
}

// handleExportHighlights handles the export_highlights tool invocation
func (s *Server) handleExportHighlights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	if err := s.storage.ExportJSON(ctx, &sb); err != nil {
		return nil, newMCPError(ErrorCodeCollaboratorError, "export failed", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleImportHighlights handles the import_highlights tool invocation
func (s *Server) handleImportHighlights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	data, _ := args["data"].(string)
	if data == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "data parameter is required", nil)
	}

	imported, err := s.storage.ImportJSON(ctx, strings.NewReader(data))
	if err != nil {
		return nil, newMCPError(ErrorCodeCollaboratorError, "import failed", map[string]interface{}{
			"imported": imported,
			"reason":   err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"imported": imported,
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, err := s.storage.CountFragments(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeCollaboratorError, "failed to read status", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"server":     ServerName,
		"version":    ServerVersion,
		"highlights": count,
		"build_mode": storage.BuildMode,
		"driver":     storage.DriverName,
		"summarizer": s.summarizer != nil,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// pageArgs extracts the page_url and html parameters common to page-bound
// tools.
func pageArgs(args map[string]interface{}) (pageURL, html string, err error) {
	pageURL, _ = args["page_url"].(string)
	if pageURL == "" {
		return "", "", newMCPError(ErrorCodeInvalidParams, "page_url parameter is required", nil)
	}
	html, _ = args["html"].(string)
	if html == "" {
		return "", "", newMCPError(ErrorCodeInvalidParams, "html parameter is required", nil)
	}
	return pageURL, html, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
