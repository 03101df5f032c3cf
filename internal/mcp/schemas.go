package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// captureHighlightTool returns the tool definition for capture_highlight
func captureHighlightTool() mcp.Tool {
	return mcp.Tool{
		Name:        "capture_highlight",
		Description: "Capture a text passage on a page as a persistent highlight and return the marked-up HTML",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"page_url": map[string]interface{}{
					"type":        "string",
					"description": "URL of the page the passage was selected on",
				},
				"html": map[string]interface{}{
					"type":        "string",
					"description": "Current HTML of the page",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "The selected passage (1-1000 characters)",
				},
			},
			Required: []string{"page_url", "html", "text"},
		},
	}
}

// restoreHighlightsTool returns the tool definition for restore_highlights
func restoreHighlightsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "restore_highlights",
		Description: "Re-anchor every stored highlight for a page against its current HTML",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"page_url": map[string]interface{}{
					"type":        "string",
					"description": "URL the highlights were captured on",
				},
				"html": map[string]interface{}{
					"type":        "string",
					"description": "Current HTML of the page (may differ from capture time)",
				},
			},
			Required: []string{"page_url", "html"},
		},
	}
}

// listHighlightsTool returns the tool definition for list_highlights
func listHighlightsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_highlights",
		Description: "List stored highlights, optionally filtered to one page",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"page_url": map[string]interface{}{
					"type":        "string",
					"description": "Restrict the listing to this page",
				},
			},
		},
	}
}

// removeHighlightTool returns the tool definition for remove_highlight
func removeHighlightTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_highlight",
		Description: "Delete a stored highlight by its identifier",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Fragment identifier of the highlight",
				},
			},
			Required: []string{"id"},
		},
	}
}

// resolveDeepLinkTool returns the tool definition for resolve_deep_link
func resolveDeepLinkTool() mcp.Tool {
	return mcp.Tool{
		Name:        "resolve_deep_link",
		Description: "Locate and mark the target of a highlight deep link (highlight=<text>&pos=<rect>) in the given HTML",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"page_url": map[string]interface{}{
					"type":        "string",
					"description": "URL of the page",
				},
				"html": map[string]interface{}{
					"type":        "string",
					"description": "Current HTML of the page",
				},
				"link": map[string]interface{}{
					"type":        "string",
					"description": "Deep-link identifier, e.g. highlight=alpha%20beta&pos=%7B%22top%22%3A10%7D",
				},
				"max_attempts": map[string]interface{}{
					"type":        "integer",
					"description": "Bound on 500ms location retries for asynchronously rendered content",
					"default":     1,
				},
			},
			Required: []string{"page_url", "html", "link"},
		},
	}
}

// summarizeHighlightTool returns the tool definition for summarize_highlight
func summarizeHighlightTool() mcp.Tool {
	return mcp.Tool{
		Name:        "summarize_highlight",
		Description: "Summarize a stored highlight through the configured summarization endpoint",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Fragment identifier of the highlight",
				},
			},
			Required: []string{"id"},
		},
	}
}

// exportHighlightsTool returns the tool definition for export_highlights
func exportHighlightsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "export_highlights",
		Description: "Export every stored highlight as a versioned JSON envelope",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// importHighlightsTool returns the tool definition for import_highlights
func importHighlightsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "import_highlights",
		Description: "Import highlights from a previously exported JSON envelope",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"data": map[string]interface{}{
					"type":        "string",
					"description": "JSON envelope produced by export_highlights",
				},
			},
			Required: []string{"data"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report server status: stored highlight count, build mode, summarizer availability",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
