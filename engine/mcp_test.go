package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/calque/blueprint"
)

var testImpl = &mcp.Implementation{Name: "calque-test", Version: "0.0.1"}

// mcpSession creates an Engine, registers MCP tools, and returns a connected
// client session that can call tools end-to-end.
func mcpSession(t *testing.T) (*Engine, *mcp.ClientSession) {
	t.Helper()
	e := testEngine(t)

	srv := mcp.NewServer(testImpl, nil)
	e.RegisterMCP(srv)

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

	return e, session
}

// callTool invokes a tool and returns the JSON text from the first TextContent.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if res.IsError {
		t.Fatalf("tool %s returned error: %+v", name, res.Content)
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("tool %s: unexpected content type %T", name, res.Content[0])
	}
	return text.Text
}

func TestMCPBuildAndSnapshots(t *testing.T) {
	_, session := mcpSession(t)

	evJSON, err := json.Marshal(testBundle())
	if err != nil {
		t.Fatal(err)
	}
	out := callTool(t, session, "calque_build", map[string]any{
		"evidence": json.RawMessage(evJSON),
	})

	var bp blueprint.Blueprint
	if err := json.Unmarshal([]byte(out), &bp); err != nil {
		t.Fatalf("decode blueprint: %v", err)
	}
	if bp.Summary.Nodes != 4 {
		t.Fatalf("nodes = %d, want 4", bp.Summary.Nodes)
	}

	out = callTool(t, session, "calque_snapshots", map[string]any{})
	var listing struct {
		Pages []struct {
			URL string `json:"url"`
		} `json:"pages"`
	}
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatal(err)
	}
	if len(listing.Pages) != 1 || listing.Pages[0].URL != "https://example.com" {
		t.Fatalf("pages = %+v", listing.Pages)
	}

	out = callTool(t, session, "calque_snapshots", map[string]any{
		"page_url": "https://example.com",
	})
	var detail struct {
		Viewports  []string `json:"viewports"`
		Blueprints []struct {
			ID string `json:"id"`
		} `json:"blueprints"`
	}
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatal(err)
	}
	if len(detail.Viewports) != 2 {
		t.Fatalf("viewports = %v", detail.Viewports)
	}
	if len(detail.Blueprints) != 1 || detail.Blueprints[0].ID != bp.ID {
		t.Fatalf("blueprints = %+v", detail.Blueprints)
	}
}

func TestMCPPromptFromStoredBlueprint(t *testing.T) {
	e, session := mcpSession(t)

	bp, err := e.BuildBlueprint(context.Background(), testBundle())
	if err != nil {
		t.Fatal(err)
	}

	out := callTool(t, session, "calque_prompt", map[string]any{
		"blueprint_id": bp.ID,
	})
	var resp struct {
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Prompt == "" {
		t.Fatal("empty prompt")
	}
}

func TestMCPBuildRequiresInput(t *testing.T) {
	_, session := mcpSession(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "calque_build",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for empty arguments")
	}
}
