package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/calque/blueprint"
	"github.com/hazyhaar/calque/evidence"
)

// Capturer collects the evidence bundle for live pages.
type Capturer struct {
	mgr      *Manager
	maxDepth int
	logger   *slog.Logger
}

// NewCapturer wraps a started Manager. maxDepth bounds the structure walk
// on the page side; <=0 means 25.
func NewCapturer(mgr *Manager, maxDepth int, logger *slog.Logger) *Capturer {
	if maxDepth <= 0 {
		maxDepth = 25
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Capturer{mgr: mgr, maxDepth: maxDepth, logger: logger}
}

// CapturePage navigates to pageURL and collects the full evidence bundle.
// viewports lists the named breakpoints to emulate for layout records; the
// structure tree is captured at the first viewport (or the page default when
// none are given). Individual collection failures are logged and leave the
// corresponding evidence empty.
func (c *Capturer) CapturePage(ctx context.Context, pageURL string, viewports []blueprint.ViewportInfo) (*evidence.Bundle, error) {
	page, err := c.mgr.openTab(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	bundle := &evidence.Bundle{PageURL: pageURL}

	if len(viewports) > 0 {
		if err := setViewport(page, viewports[0]); err != nil {
			c.logger.Warn("capture: set initial viewport", "error", err)
		}
	}

	bundle.PageHTML = c.captureHTML(ctx, page)
	bundle.Structure = c.captureStructure(ctx, page)
	bundle.Sections = c.captureSections(ctx, page)
	bundle.Viewports = c.captureViewports(ctx, page, viewports)

	if bundle.Structure == nil && bundle.PageHTML != "" {
		// Structure walk failed but we still have markup.
		bundle.Structure = structureFromHTML(bundle.PageHTML, c.logger)
	}

	return bundle, nil
}

func (c *Capturer) captureHTML(ctx context.Context, page *rod.Page) string {
	res, err := page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		c.logger.Warn("capture: page html", "error", err)
		return ""
	}
	return res.Value.Str()
}

func (c *Capturer) captureStructure(ctx context.Context, page *rod.Page) *evidence.Element {
	res, err := page.Context(ctx).Eval(structureScript, c.maxDepth)
	if err != nil {
		c.logger.Warn("capture: structure walk", "error", err)
		return nil
	}
	var root evidence.Element
	if err := json.Unmarshal([]byte(res.Value.Str()), &root); err != nil {
		c.logger.Warn("capture: decode structure", "error", err)
		return nil
	}
	return &root
}

func (c *Capturer) captureSections(ctx context.Context, page *rod.Page) []evidence.SectionHint {
	res, err := page.Context(ctx).Eval(landmarkScript)
	if err != nil {
		c.logger.Warn("capture: landmarks", "error", err)
		return nil
	}
	var hints []evidence.SectionHint
	if err := json.Unmarshal([]byte(res.Value.Str()), &hints); err != nil {
		c.logger.Warn("capture: decode landmarks", "error", err)
		return nil
	}
	return hints
}

func (c *Capturer) captureViewports(ctx context.Context, page *rod.Page, viewports []blueprint.ViewportInfo) map[string]*evidence.ViewportLayout {
	if len(viewports) == 0 {
		return nil
	}
	out := make(map[string]*evidence.ViewportLayout, len(viewports))
	for _, vp := range viewports {
		if err := setViewport(page, vp); err != nil {
			c.logger.Warn("capture: emulate viewport", "name", vp.Name, "error", err)
			continue
		}
		res, err := page.Context(ctx).Eval(layoutScript)
		if err != nil {
			c.logger.Warn("capture: layout records", "name", vp.Name, "error", err)
			continue
		}
		var vl evidence.ViewportLayout
		if err := json.Unmarshal([]byte(res.Value.Str()), &vl); err != nil {
			c.logger.Warn("capture: decode layout records", "name", vp.Name, "error", err)
			continue
		}
		vl.Viewport = vp
		out[vp.Name] = &vl
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func setViewport(page *rod.Page, vp blueprint.ViewportInfo) error {
	height := vp.Height
	if height <= 0 {
		height = 900
	}
	err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            height,
		DeviceScaleFactor: 1,
		Mobile:            vp.Width < 768,
	})
	if err != nil {
		return fmt.Errorf("capture: viewport %dx%d: %w", vp.Width, height, err)
	}
	return nil
}
