package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/calque/blueprint"
	"github.com/hazyhaar/calque/evidence"
	"github.com/hazyhaar/calque/kit"
	"github.com/hazyhaar/calque/synth"
)

// RegisterMCP registers calque tools on an MCP server.
func (e *Engine) RegisterMCP(srv *mcp.Server) {
	e.registerBuildTool(srv)
	e.registerCSSTool(srv)
	e.registerPlanTool(srv)
	e.registerPromptTool(srv)
	e.registerSnapshotsTool(srv)
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

// loadBlueprint resolves a blueprint from an id, a page URL (latest build),
// or inline JSON, in that precedence order.
func (e *Engine) loadBlueprint(ctx context.Context, id, pageURL string, inline json.RawMessage) (*blueprint.Blueprint, error) {
	switch {
	case id != "":
		return e.store.GetBlueprint(ctx, id)
	case pageURL != "":
		page, err := e.store.GetPageByURL(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		return e.store.LatestBlueprint(ctx, page.ID)
	case len(inline) > 0:
		return blueprint.Unmarshal(inline)
	default:
		return nil, fmt.Errorf("engine: need blueprint_id, page_url, or blueprint")
	}
}

// --- calque_build ---

type buildRequest struct {
	URL      string          `json:"url,omitempty"`
	Evidence json.RawMessage `json:"evidence,omitempty"`
}

func (e *Engine) registerBuildTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "calque_build",
		Description: "Build a replication blueprint. Pass a URL to capture live evidence, or an inline evidence bundle for an offline build.",
		InputSchema: inputSchema(map[string]any{
			"url":      map[string]any{"type": "string", "description": "Page URL to capture and build"},
			"evidence": map[string]any{"type": "object", "description": "Inline evidence bundle (offline build)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*buildRequest)
		if r.URL != "" {
			return e.CaptureAndBuild(ctx, r.URL)
		}
		bundle, err := evidence.DecodeBundle(r.Evidence, e.logger)
		if err != nil {
			return nil, err
		}
		return e.BuildBlueprint(ctx, bundle)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r buildRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		if r.URL == "" && len(r.Evidence) == 0 {
			return nil, fmt.Errorf("url or evidence required")
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- calque_css ---

type cssRequest struct {
	BlueprintID string          `json:"blueprint_id,omitempty"`
	PageURL     string          `json:"page_url,omitempty"`
	Blueprint   json.RawMessage `json:"blueprint,omitempty"`
}

type cssResponse struct {
	Stylesheet string                `json:"stylesheet"`
	Markup     string                `json:"markup"`
	Components []synth.ComponentFile `json:"components,omitempty"`
}

func (e *Engine) registerCSSTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "calque_css",
		Description: "Generate the CSS/HTML replication bundle from a stored or inline blueprint, including responsive overrides from stored viewport snapshots.",
		InputSchema: inputSchema(map[string]any{
			"blueprint_id": map[string]any{"type": "string", "description": "Stored blueprint id"},
			"page_url":     map[string]any{"type": "string", "description": "Use the latest blueprint built for this URL"},
			"blueprint":    map[string]any{"type": "object", "description": "Inline blueprint JSON"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*cssRequest)
		bp, err := e.loadBlueprint(ctx, r.BlueprintID, r.PageURL, r.Blueprint)
		if err != nil {
			return nil, err
		}
		bundle := synth.GenerateBundle(bp, e.StoredViewports(ctx, bp))
		return &cssResponse{
			Stylesheet: bundle.Stylesheet,
			Markup:     bundle.Markup,
			Components: bundle.Components,
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r cssRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- calque_interaction_plan ---

type planRequest struct {
	BlueprintID string          `json:"blueprint_id,omitempty"`
	PageURL     string          `json:"page_url,omitempty"`
	Blueprint   json.RawMessage `json:"blueprint,omitempty"`
}

func (e *Engine) registerPlanTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "calque_interaction_plan",
		Description: "Return the prioritized interaction capture plan of a blueprint: targets, groupings, recommendations, and the tool-call workflow.",
		InputSchema: inputSchema(map[string]any{
			"blueprint_id": map[string]any{"type": "string", "description": "Stored blueprint id"},
			"page_url":     map[string]any{"type": "string", "description": "Use the latest blueprint built for this URL"},
			"blueprint":    map[string]any{"type": "object", "description": "Inline blueprint JSON"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*planRequest)
		bp, err := e.loadBlueprint(ctx, r.BlueprintID, r.PageURL, r.Blueprint)
		if err != nil {
			return nil, err
		}
		if bp.Interaction == nil {
			return &blueprint.Plan{Targets: []*blueprint.Target{}}, nil
		}
		return bp.Interaction, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r planRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- calque_prompt ---

type promptRequest struct {
	BlueprintID string          `json:"blueprint_id,omitempty"`
	PageURL     string          `json:"page_url,omitempty"`
	Blueprint   json.RawMessage `json:"blueprint,omitempty"`
	PageHTML    string          `json:"page_html,omitempty"`
}

type promptResponse struct {
	Prompt string `json:"prompt"`
}

func (e *Engine) registerPromptTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "calque_prompt",
		Description: "Render the compact textual digest of a blueprint for downstream generation, optionally with a markdown content digest of the page.",
		InputSchema: inputSchema(map[string]any{
			"blueprint_id": map[string]any{"type": "string", "description": "Stored blueprint id"},
			"page_url":     map[string]any{"type": "string", "description": "Use the latest blueprint built for this URL"},
			"blueprint":    map[string]any{"type": "object", "description": "Inline blueprint JSON"},
			"page_html":    map[string]any{"type": "string", "description": "Raw page HTML for the content digest"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*promptRequest)
		bp, err := e.loadBlueprint(ctx, r.BlueprintID, r.PageURL, r.Blueprint)
		if err != nil {
			return nil, err
		}
		return &promptResponse{Prompt: e.RenderPrompt(bp, r.PageHTML)}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r promptRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- calque_snapshots ---

type snapshotsRequest struct {
	PageURL string `json:"page_url,omitempty"`
}

type snapshotsResponse struct {
	Pages      []snapstorePage          `json:"pages,omitempty"`
	Viewports  []string                 `json:"viewports,omitempty"`
	Blueprints []snapstoreBlueprintMeta `json:"blueprints,omitempty"`
}

type snapstorePage struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

type snapstoreBlueprintMeta struct {
	ID        string `json:"id"`
	NodeCount int    `json:"node_count"`
	CreatedAt int64  `json:"created_at"`
}

func (e *Engine) registerSnapshotsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "calque_snapshots",
		Description: "List captured pages, or the stored viewport snapshots and blueprints of one page.",
		InputSchema: inputSchema(map[string]any{
			"page_url": map[string]any{"type": "string", "description": "Limit to one page; omit to list all pages"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*snapshotsRequest)
		resp := &snapshotsResponse{}

		if r.PageURL == "" {
			pages, err := e.store.ListPages(ctx)
			if err != nil {
				return nil, err
			}
			for _, p := range pages {
				resp.Pages = append(resp.Pages, snapstorePage{ID: p.ID, URL: p.URL, Title: p.Title})
			}
			return resp, nil
		}

		page, err := e.store.GetPageByURL(ctx, r.PageURL)
		if err != nil {
			return nil, err
		}
		vps, err := e.store.LoadViewports(ctx, page.ID)
		if err != nil {
			return nil, err
		}
		for name := range vps {
			resp.Viewports = append(resp.Viewports, name)
		}
		sort.Strings(resp.Viewports)
		metas, err := e.store.ListBlueprints(ctx, page.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range metas {
			resp.Blueprints = append(resp.Blueprints, snapstoreBlueprintMeta{
				ID: m.ID, NodeCount: m.NodeCount, CreatedAt: m.CreatedAt,
			})
		}
		return resp, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r snapshotsRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
