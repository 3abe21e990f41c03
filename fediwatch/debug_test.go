package fediwatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/fedimark/identity"
)

var testImpl = &mcp.Implementation{Name: "fediwatch-test", Version: "0.1.0"}

// populated returns a session whose directory holds jane (resolved) and
// bob (unresolved).
func populated(t *testing.T) *Session {
	t.Helper()
	s, _, _ := newTestSession(t, timelinePage)
	s.HandleResponse(context.Background(), notificationsURL, legacyPayload(t,
		user{ScreenName: "jane", Name: "@jane@mas.to"},
		user{ScreenName: "bob", Name: "Bob"},
	))
	return s
}

func getJSON(t *testing.T, url string, want int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		t.Fatalf("GET %s: status %d, want %d", url, resp.StatusCode, want)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("GET %s: decode: %v", url, err)
		}
	}
}

func TestDebugHTTP(t *testing.T) {
	ts := httptest.NewServer(NewDebugHandler(SessionList{populated(t)}, quiet))
	defer ts.Close()

	var health map[string]any
	getJSON(t, ts.URL+"/health", 200, &health)
	if health["status"] != "ok" || health["sessions"] != float64(1) {
		t.Errorf("health: %v", health)
	}

	var all []PageDirectory
	getJSON(t, ts.URL+"/directory", 200, &all)
	if len(all) != 1 || len(all[0].Records) != 2 || all[0].PageID != "p1" {
		t.Errorf("directory: %+v", all)
	}

	var resolved PageDirectory
	getJSON(t, ts.URL+"/directory/p1?resolved=true", 200, &resolved)
	if len(resolved.Records) != 1 || resolved.Records[0].NativeHandle != "jane" {
		t.Errorf("resolved: %+v", resolved)
	}

	for _, h := range []string{"jane", "@jane"} {
		var rec identity.Record
		getJSON(t, ts.URL+"/directory/p1/"+h, 200, &rec)
		if rec.FederatedURL != "https://mas.to/@jane" {
			t.Errorf("%s: %+v", h, rec)
		}
	}

	getJSON(t, ts.URL+"/directory/nope", 404, nil)
	getJSON(t, ts.URL+"/directory/p1/nobody", 404, nil)

	var stats []Stats
	getJSON(t, ts.URL+"/sessions", 200, &stats)
	if len(stats) != 1 || stats[0].Directory != 2 {
		t.Errorf("sessions: %+v", stats)
	}
}

func TestDebugHTTP_SecurityHeaders(t *testing.T) {
	ts := httptest.NewServer(NewDebugHandler(SessionList{}, quiet))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("nosniff: %q", got)
	}
}

func TestDebugHTTP_RejectsRemotePeers(t *testing.T) {
	h := NewDebugHandler(SessionList{}, quiet)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d", rec.Code)
	}
}

// mcpSession registers the tools over src and returns a connected client.
func mcpSession(t *testing.T, src SessionSource) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testImpl, nil)
	RegisterMCP(srv, src)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() {
		_ = srv.Run(ctx, serverT)
	}()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	return tc.Text, result.IsError
}

func TestMCP_Lookup(t *testing.T) {
	session := mcpSession(t, SessionList{populated(t)})

	text, isErr := callTool(t, session, "fedimark_lookup", map[string]any{"handle": "@jane"})
	if isErr {
		t.Fatalf("tool error: %s", text)
	}
	var matches []PageRecord
	if err := json.Unmarshal([]byte(text), &matches); err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].PageID != "p1" || matches[0].Record.FederatedHandle != "@jane@mas.to" {
		t.Errorf("matches: %s", text)
	}

	text, isErr = callTool(t, session, "fedimark_lookup", map[string]any{"handle": "nobody"})
	if isErr || text != "[]" {
		t.Errorf("unknown handle: %s", text)
	}

	if text, isErr = callTool(t, session, "fedimark_lookup", map[string]any{"handle": "jane", "page_id": "zzz"}); !isErr {
		t.Errorf("unknown page: want tool error, got %s", text)
	}
}

func TestMCP_ListAndStats(t *testing.T) {
	session := mcpSession(t, SessionList{populated(t)})

	text, isErr := callTool(t, session, "fedimark_list", map[string]any{"resolved_only": true})
	if isErr {
		t.Fatalf("tool error: %s", text)
	}
	var dirs []PageDirectory
	if err := json.Unmarshal([]byte(text), &dirs); err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 1 || len(dirs[0].Records) != 1 {
		t.Errorf("list: %s", text)
	}

	text, _ = callTool(t, session, "fedimark_stats", map[string]any{})
	if !strings.Contains(text, `"directory":2`) {
		t.Errorf("stats: %s", text)
	}
}

func TestMCP_OverHTTP(t *testing.T) {
	ts := httptest.NewServer(NewDebugHandler(SessionList{populated(t)}, quiet))
	defer ts.Close()

	ctx := context.Background()
	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL + "/mcp"}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"fedimark_lookup", "fedimark_list", "fedimark_stats"} {
		if !names[want] {
			t.Errorf("tool %s not listed", want)
		}
	}
}
