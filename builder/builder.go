// Package builder constructs the blueprint IR from raw page evidence.
//
// The pipeline is strictly sequential and single-threaded: one Build call
// performs one complete pass over the supplied evidence, each phase fully
// consuming the previous phase's output:
//
//	tree build → relationship inference → component/section binding → assembly
//
// Budgets (MaxNodes, MaxDepth) are the only back-pressure: exceeding one sets
// a flag on the result rather than raising an error, and a failed evidence
// lookup contributes nothing rather than aborting the build.
package builder

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/calque/blueprint"
	"github.com/hazyhaar/calque/evidence"
)

// Options bounds and tunes one tree build.
type Options struct {
	MaxDepth      int      `yaml:"max_depth" json:"max_depth,omitempty"`
	MaxNodes      int      `yaml:"max_nodes" json:"max_nodes,omitempty"`
	MinWidth      float64  `yaml:"min_width" json:"min_width,omitempty"`
	MinHeight     float64  `yaml:"min_height" json:"min_height,omitempty"`
	SkipTags      []string `yaml:"skip_tags" json:"skip_tags,omitempty"`
	// OmitText and OmitStyles turn off the respective enrichment; both are
	// captured by default.
	OmitText   bool `yaml:"omit_text" json:"omit_text,omitempty"`
	OmitStyles bool `yaml:"omit_styles" json:"omit_styles,omitempty"`
}

// DefaultOptions returns the standard build budget.
func DefaultOptions() Options {
	return Options{
		MaxDepth:  15,
		MaxNodes:  600,
		MinWidth:  8,
		MinHeight: 8,
		SkipTags:  []string{"script", "style", "noscript", "template", "head", "meta", "link"},
	}
}

func (o *Options) defaults() {
	d := DefaultOptions()
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = d.MaxNodes
	}
	if o.MinWidth <= 0 {
		o.MinWidth = d.MinWidth
	}
	if o.MinHeight <= 0 {
		o.MinHeight = d.MinHeight
	}
	if o.SkipTags == nil {
		o.SkipTags = d.SkipTags
	}
}

// Result is the output of one tree build.
type Result struct {
	Tree      *blueprint.Node
	Nodes     []*blueprint.Node // pre-order, acceptance order
	Truncated bool
	// Bindings maps component IDs to the node UIDs bound during the build
	// pass (primary binding). The fallback pass in binder.go extends it.
	Bindings map[string][]int
}

// buildContext threads the per-build counters through the traversal so
// builds are independently reentrant — no module-level state.
type buildContext struct {
	nextUID   int
	accepted  int
	truncated bool
	result    *Result
}

// Builder walks a structure evidence tree and produces IR nodes enriched
// from the evidence indices.
type Builder struct {
	opts   Options
	comps  *evidence.ComponentIndex
	states *evidence.StateIndex
	a11y   *evidence.A11yIndex
	logger *slog.Logger
}

// New creates a Builder. Any index may be nil ("no evidence of that kind").
func New(opts Options, comps *evidence.ComponentIndex, states *evidence.StateIndex, a11y *evidence.A11yIndex, logger *slog.Logger) *Builder {
	opts.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{opts: opts, comps: comps, states: states, a11y: a11y, logger: logger}
}

// Build walks the structure tree pre-order and returns the IR root, or a
// Result with a nil Tree when the root itself is excluded.
func (b *Builder) Build(root *evidence.Element) *Result {
	res := &Result{Bindings: make(map[string][]int)}
	ctx := &buildContext{nextUID: 1, result: res}
	if root != nil {
		res.Tree = b.visit(root, 1, ctx)
	}
	res.Truncated = ctx.truncated
	if ctx.truncated {
		b.logger.Debug("builder: node budget reached", "max_nodes", b.opts.MaxNodes)
	}
	return res
}

// visit applies the exclusion rules, then enriches an accepted element in
// fixed order: identity/selector → element attrs → evidence lookups → icon
// heuristic → style extraction → semantic role/name → children.
func (b *Builder) visit(e *evidence.Element, depth int, ctx *buildContext) *blueprint.Node {
	tag := strings.ToLower(e.Tag)
	if b.skipTag(tag) {
		return nil
	}

	leaf := len(e.Children) == 0
	if b.invisible(e) && leaf {
		return nil
	}
	if (e.Rect.Width < b.opts.MinWidth || e.Rect.Height < b.opts.MinHeight) && leaf {
		return nil
	}

	if ctx.accepted >= b.opts.MaxNodes {
		ctx.truncated = true
		return nil
	}
	ctx.accepted++

	node := &blueprint.Node{
		UID:      ctx.nextUID,
		Tag:      tag,
		Selector: evidence.EffectiveSelector(e),
	}
	ctx.nextUID++
	rect := e.Rect
	node.Rect = &rect

	if !b.opts.OmitText && e.Text != "" {
		node.Text = truncateText(e.Text, maxNodeText)
	}

	node.Attrs = allowedAttrs(tag, e.Attrs)

	if rec := b.comps.Lookup(e, node.Selector); rec != nil {
		node.Component = &blueprint.ComponentRef{
			ID:      rec.ID,
			Type:    rec.Type,
			Variant: rec.Detection.Variant,
		}
		ctx.result.Bindings[rec.ID] = append(ctx.result.Bindings[rec.ID], node.UID)
	}

	if rec := b.states.Lookup(e, node.Selector); rec != nil {
		node.State = &blueprint.StateEvidence{
			Interactive: rec.Interactive(),
			States:      rec.StateNames,
			Summary:     rec.Summary,
			Pseudo:      rec.Pseudo,
		}
	}

	var a11yRec *evidence.A11yRecord
	if rec := b.a11y.Lookup(e, node.Selector); rec != nil {
		a11yRec = rec
	}

	node.Icon = isIcon(e, tag)

	if !b.opts.OmitStyles {
		node.Layout = extractLayout(e.Style)
		node.Constraints = extractConstraints(e.Style)
		node.Typography = extractTypography(e.Style)
		node.Visual = extractVisual(e.Style)
	}

	node.Role, node.Name = deriveSemantics(node, e, a11yRec)

	ctx.result.Nodes = append(ctx.result.Nodes, node)

	if depth < b.opts.MaxDepth {
		for _, c := range e.Children {
			if child := b.visit(c, depth+1, ctx); child != nil {
				node.Children = append(node.Children, child)
			}
		}
	}

	return node
}

func (b *Builder) skipTag(tag string) bool {
	for _, t := range b.opts.SkipTags {
		if tag == t {
			return true
		}
	}
	return false
}

// invisible reports zero-size, display:none, visibility:hidden or opacity<=0.
func (b *Builder) invisible(e *evidence.Element) bool {
	if e.Rect.Width <= 0 || e.Rect.Height <= 0 {
		return true
	}
	st := e.Style
	if st == nil {
		return false
	}
	if st["display"] == "none" || st["visibility"] == "hidden" {
		return true
	}
	if op, ok := st["opacity"]; ok {
		if v, err := parseFloat(op); err == nil && v <= 0 {
			return true
		}
	}
	return false
}

const maxNodeText = 200

// truncateText collapses whitespace and cuts at max bytes on a rune
// boundary, so truncated text stays valid UTF-8.
func truncateText(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// allowedAttrs keeps the narrow per-tag attribute allow-list: anchors,
// images and form controls only.
func allowedAttrs(tag string, attrs map[string]string) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	var keep []string
	switch tag {
	case "a":
		keep = []string{"href", "target"}
	case "img":
		keep = []string{"src", "alt", "loading"}
	case "input":
		keep = []string{"type", "name", "placeholder"}
	case "button":
		keep = []string{"type"}
	case "select", "textarea":
		keep = []string{"name", "placeholder"}
	case "form":
		keep = []string{"action", "method"}
	default:
		return nil
	}
	out := make(map[string]string)
	for _, k := range keep {
		if v, ok := attrs[k]; ok && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// isIcon flags small, text-free elements that are presumably icons.
const maxIconSize = 40

func isIcon(e *evidence.Element, tag string) bool {
	if e.Text != "" {
		return false
	}
	r := e.Rect
	if r.Width <= 0 || r.Height <= 0 || r.Width > maxIconSize || r.Height > maxIconSize {
		return false
	}
	switch tag {
	case "svg", "i", "img":
		return true
	}
	for _, c := range e.Classes {
		if strings.Contains(strings.ToLower(c), "icon") {
			return true
		}
	}
	return false
}
