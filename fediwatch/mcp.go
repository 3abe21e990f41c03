// CLAUDE:SUMMARY Registers the read-only fedimark MCP tools: lookup a handle, list directories, session stats.
package fediwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/fedimark/identity"
)

// RegisterMCP registers the fedimark tools on an MCP server.
func RegisterMCP(srv *mcp.Server, src SessionSource) {
	registerLookupTool(srv, src)
	registerListTool(srv, src)
	registerStatsTool(srv, src)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addTool registers fn as a tool. Arguments are decoded into a fresh Req
// and the result is returned as JSON text; failures become tool errors.
func addTool[Req any](srv *mcp.Server, tool *mcp.Tool, fn func(ctx context.Context, req *Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, call *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req Req
		if len(call.Params.Arguments) > 0 {
			if err := json.Unmarshal(call.Params.Arguments, &req); err != nil {
				return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}

		resp, err := fn(ctx, &req)
		if err != nil {
			return toolError(err), nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

// --- lookup ---

type lookupRequest struct {
	Handle string `json:"handle"`
	PageID string `json:"page_id,omitempty"`
}

// PageRecord is a directory record together with the page it was found on.
type PageRecord struct {
	PageID string          `json:"page_id"`
	Record identity.Record `json:"record"`
}

func registerLookupTool(srv *mcp.Server, src SessionSource) {
	tool := &mcp.Tool{
		Name:        "fedimark_lookup",
		Description: "Look up a native handle in the identity directories of the watched pages. Returns the federated identity found for it, per page.",
		InputSchema: inputSchema(map[string]any{
			"handle":  map[string]any{"type": "string", "description": "Native handle, with or without the leading @"},
			"page_id": map[string]any{"type": "string", "description": "Restrict to one page"},
		}, []string{"handle"}),
	}

	addTool(srv, tool, func(_ context.Context, r *lookupRequest) (any, error) {
		handle := normalizeHandle(r.Handle)
		if handle == "" {
			return nil, fmt.Errorf("handle is required")
		}
		sessions, err := selectSessions(src, r.PageID)
		if err != nil {
			return nil, err
		}
		matches := []PageRecord{}
		for _, s := range sessions {
			if rec, ok := s.Directory().Get(handle); ok {
				matches = append(matches, PageRecord{PageID: s.ID(), Record: rec})
			}
		}
		return matches, nil
	})
}

// --- list ---

type listRequest struct {
	PageID       string `json:"page_id,omitempty"`
	ResolvedOnly bool   `json:"resolved_only,omitempty"`
}

// PageDirectory is the content of one page's directory.
type PageDirectory struct {
	PageID  string            `json:"page_id"`
	URL     string            `json:"url,omitempty"`
	Records []identity.Record `json:"records"`
}

func registerListTool(srv *mcp.Server, src SessionSource) {
	tool := &mcp.Tool{
		Name:        "fedimark_list",
		Description: "List the identity directory of each watched page, sorted by native handle.",
		InputSchema: inputSchema(map[string]any{
			"page_id":       map[string]any{"type": "string", "description": "Restrict to one page"},
			"resolved_only": map[string]any{"type": "boolean", "description": "Only records with a federated handle (default: false)"},
		}, nil),
	}

	addTool(srv, tool, func(_ context.Context, r *listRequest) (any, error) {
		sessions, err := selectSessions(src, r.PageID)
		if err != nil {
			return nil, err
		}
		return directories(sessions, r.ResolvedOnly), nil
	})
}

// --- stats ---

func registerStatsTool(srv *mcp.Server, src SessionSource) {
	tool := &mcp.Tool{
		Name:        "fedimark_stats",
		Description: "Per-page counters: responses ingested, directory size, scans and augmentations.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	addTool(srv, tool, func(_ context.Context, _ *struct{}) (any, error) {
		return allStats(src), nil
	})
}

// --- shared with the HTTP debug routes ---

func normalizeHandle(h string) string {
	return strings.TrimPrefix(strings.TrimSpace(h), "@")
}

// selectSessions returns every session, or only the one with pageID.
func selectSessions(src SessionSource, pageID string) ([]*Session, error) {
	all := src.Sessions()
	if pageID == "" {
		return all, nil
	}
	for _, s := range all {
		if s.ID() == pageID {
			return []*Session{s}, nil
		}
	}
	return nil, fmt.Errorf("unknown page %q", pageID)
}

func directories(sessions []*Session, resolvedOnly bool) []PageDirectory {
	out := make([]PageDirectory, 0, len(sessions))
	for _, s := range sessions {
		recs := s.Directory().Snapshot()
		if resolvedOnly {
			kept := recs[:0]
			for _, rec := range recs {
				if rec.Resolved() {
					kept = append(kept, rec)
				}
			}
			recs = kept
		}
		if recs == nil {
			recs = []identity.Record{}
		}
		out = append(out, PageDirectory{PageID: s.ID(), URL: s.URL(), Records: recs})
	}
	return out
}

func allStats(src SessionSource) []Stats {
	sessions := src.Sessions()
	out := make([]Stats, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Stats())
	}
	return out
}
