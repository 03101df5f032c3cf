// Package mcp exposes the anchoring engine over the Model Context Protocol
// on stdio.
//
// The tools are the glue surface around the engine: capturing and restoring
// highlights against supplied page HTML, listing and removing stored
// records, import/export, deep-link resolution, and summarization through
// the external collaborator. Rendering of any list or popup view is the
// client's concern; only the boundary lives here.
package mcp
