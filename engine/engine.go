// Package engine wires the calque pipeline end to end: evidence in,
// blueprint out, with optional capture and persistence. It is the single
// composition point — the phase packages never import each other's
// orchestration.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/calque/blueprint"
	"github.com/hazyhaar/calque/builder"
	"github.com/hazyhaar/calque/capture"
	"github.com/hazyhaar/calque/dbopen"
	"github.com/hazyhaar/calque/evidence"
	"github.com/hazyhaar/calque/interact"
	"github.com/hazyhaar/calque/prompt"
	"github.com/hazyhaar/calque/shield"
	"github.com/hazyhaar/calque/snapstore"
	"github.com/hazyhaar/calque/synth"
	_ "modernc.org/sqlite"
)

// Engine is the calque orchestrator.
type Engine struct {
	cfg      *Config
	store    *snapstore.Store
	capturer *capture.Capturer
	mgr      *capture.Manager
	logger   *slog.Logger
}

// New creates an Engine. Opens the SQLite database; the capture browser is
// started lazily on the first live-page request.
func New(cfg *Config, logger *slog.Logger) (*Engine, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	s, err := snapstore.Open(cfg.DBPath, dbopen.WithSchema(shield.Schema))
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:    cfg,
		store:  s,
		logger: logger,
	}, nil
}

// Store exposes the persistence layer (rate limiter schema shares the DB).
func (e *Engine) Store() *snapstore.Store {
	return e.store
}

// Close shuts down the browser (if started) and the database.
func (e *Engine) Close() error {
	if e.mgr != nil {
		if err := e.mgr.Close(); err != nil {
			e.logger.Warn("engine: browser close", "error", err)
		}
	}
	return e.store.Close()
}

// BuildBlueprint runs the full pipeline on an evidence bundle: indices →
// tree build → relationships → component binding → sections → interaction
// plan → responsive summary → assembly. It never fails on degraded
// evidence; budget overruns surface as summary flags. The result is
// persisted when the bundle carries a page URL.
func (e *Engine) BuildBlueprint(ctx context.Context, bundle *evidence.Bundle) (*blueprint.Blueprint, error) {
	if bundle == nil {
		return nil, fmt.Errorf("engine: nil evidence bundle")
	}
	bundle.Validate()

	if bundle.Structure == nil && bundle.PageHTML != "" {
		if root, err := capture.ParseStructure(bundle.PageHTML); err == nil {
			bundle.Structure = root
		} else {
			e.logger.Warn("engine: structure from html", "error", err)
		}
	}

	resolver := evidence.NewTreeResolver(bundle.Structure)
	compIdx := evidence.BuildComponentIndex(bundle.Components, resolver)
	stateIdx := evidence.BuildStateIndex(bundle.States, resolver)
	a11yIdx := evidence.BuildA11yIndex(bundle.A11y, resolver)

	b := builder.New(e.cfg.Builder, compIdx, stateIdx, a11yIdx, e.logger)
	result := b.Build(bundle.Structure)

	var relationships map[int]*blueprint.NodeRelations
	if result.Tree != nil {
		relationships = builder.InferRelationships(result.Tree)
	}

	components := builder.Components(compIdx, result.Bindings)
	builder.BindFallback(components, result.Nodes)
	sections := builder.Sections(bundle.Sections, components)

	planner := interact.NewPlanner(e.cfg.Planner, sections, stateIdx, e.logger)
	plan := planner.Plan(result.Tree)

	var responsive *blueprint.Responsive
	if len(bundle.Viewports) > 0 {
		baseline, counts := synth.DiffCounts(bundle.Viewports)
		responsive = &blueprint.Responsive{
			Baseline:         baseline,
			ChangedSelectors: counts,
		}
		for _, vp := range bundle.Viewports {
			responsive.Viewports = append(responsive.Viewports, vp.Viewport)
		}
	}

	bp := builder.Assemble(builder.AssembleParams{
		PageURL:       bundle.PageURL,
		PageID:        bundle.PageID,
		Tree:          result.Tree,
		Truncated:     result.Truncated,
		Sections:      sections,
		Components:    components,
		Relationships: relationships,
		Plan:          plan,
		Responsive:    responsive,
		Tokens:        bundle.Tokens,
	})

	e.logger.Info("engine: blueprint built",
		"id", bp.ID,
		"nodes", bp.Summary.Nodes,
		"components", bp.Summary.Components,
		"targets", bp.Summary.Targets,
		"truncated", bp.Summary.Truncated,
	)

	if bundle.PageURL != "" {
		e.persist(ctx, bundle, bp)
	}
	return bp, nil
}

// persist records the page, its viewport snapshots, and the blueprint.
// Storage failures are logged, never propagated: the caller already has
// the blueprint.
func (e *Engine) persist(ctx context.Context, bundle *evidence.Bundle, bp *blueprint.Blueprint) {
	pageID, err := e.store.UpsertPage(ctx, bundle.PageURL, "")
	if err != nil {
		e.logger.Warn("engine: persist page", "error", err)
		return
	}
	bp.PageID = pageID

	for name, vl := range bundle.Viewports {
		if err := e.store.SaveViewport(ctx, pageID, name, vl); err != nil {
			e.logger.Warn("engine: persist viewport", "name", name, "error", err)
		}
	}
	if err := e.store.SaveBlueprint(ctx, pageID, bp); err != nil {
		e.logger.Warn("engine: persist blueprint", "error", err)
	}
}

// CaptureAndBuild captures live evidence for a URL and builds its blueprint.
func (e *Engine) CaptureAndBuild(ctx context.Context, pageURL string) (*blueprint.Blueprint, error) {
	c, err := e.ensureCapturer(ctx)
	if err != nil {
		return nil, err
	}
	bundle, err := c.CapturePage(ctx, pageURL, e.cfg.Viewports)
	if err != nil {
		return nil, err
	}
	return e.BuildBlueprint(ctx, bundle)
}

func (e *Engine) ensureCapturer(ctx context.Context) (*capture.Capturer, error) {
	if e.capturer != nil {
		return e.capturer, nil
	}
	mgr := capture.NewManager(capture.Config{
		RemoteURL:       e.cfg.Browser.RemoteURL,
		Stealth:         e.cfg.Browser.Stealth,
		NavigateTimeout: e.cfg.Browser.NavigateTimeout,
		Logger:          e.logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	e.mgr = mgr
	e.capturer = capture.NewCapturer(mgr, e.cfg.Browser.MaxDepth, e.logger)
	return e.capturer, nil
}

// RenderPrompt renders the compact textual digest of a blueprint, with a
// content digest appended when page HTML is available.
func (e *Engine) RenderPrompt(bp *blueprint.Blueprint, pageHTML string) string {
	rendered := prompt.Render(bp, e.cfg.Prompt)
	if pageHTML != "" {
		rendered = prompt.WithDigest(rendered, pageHTML, e.cfg.Prompt)
	}
	return rendered
}

// StoredViewports loads the persisted snapshots for a blueprint's page,
// used when a synthesis call arrives without fresh viewport evidence.
func (e *Engine) StoredViewports(ctx context.Context, bp *blueprint.Blueprint) map[string]*evidence.ViewportLayout {
	if bp == nil || bp.PageID == "" {
		return nil
	}
	vps, err := e.store.LoadViewports(ctx, bp.PageID)
	if err != nil {
		e.logger.Warn("engine: load viewports", "error", err)
		return nil
	}
	return vps
}
