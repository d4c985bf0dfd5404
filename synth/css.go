// Package synth turns a blueprint back into reconstructable artifacts:
// per-node CSS declarations, responsive @media overrides, a static HTML
// skeleton, and a component-oriented markup/style bundle.
//
// Synthesis never fails: asked to operate on a missing tree it returns an
// explicit placeholder marker instead of an error.
package synth

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hazyhaar/calque/blueprint"
)

// MissingTreeMarker is returned when synthesis has no tree to work from.
const MissingTreeMarker = "/* calque: no tree available */"

// Declaration is one property/value pair in emission order.
type Declaration struct {
	Property string
	Value    string
}

// Centering inference thresholds.
const (
	centerMarginTolerance = 2.0  // |left − right| in px
	centerMarginMin       = 16.0 // both margins at least this
)

// Grid-track normalization gates.
const (
	gridSpreadMax      = 0.04 // max/min relative spread for n ≥ 2 tracks
	gridSingleTrackMin = 320.0
	gridWidthTolerance = 0.12 // container width vs tracks+gaps
)

// GenerateCSS emits one rule per unique node selector, pre-order. Nodes
// whose declaration list is empty contribute nothing.
func GenerateCSS(bp *blueprint.Blueprint) string {
	if bp == nil || bp.Tree == nil {
		return MissingTreeMarker
	}

	var sb strings.Builder
	seen := make(map[string]bool)
	bp.Tree.Walk(func(n *blueprint.Node) {
		if n.Selector == "" || seen[n.Selector] {
			return
		}
		decls := NodeDeclarations(n)
		pseudo := pseudoRules(n)
		if len(decls) == 0 && len(pseudo) == 0 {
			return
		}
		seen[n.Selector] = true
		if len(decls) > 0 {
			writeRule(&sb, n.Selector, decls)
		}
		for _, pr := range pseudo {
			writeRule(&sb, pr.selector, pr.decls)
		}
	})

	if sb.Len() == 0 {
		return MissingTreeMarker
	}
	return sb.String()
}

func writeRule(sb *strings.Builder, selector string, decls []Declaration) {
	sb.WriteString(selector)
	sb.WriteString(" {\n")
	for _, d := range decls {
		fmt.Fprintf(sb, "  %s: %s;\n", d.Property, d.Value)
	}
	sb.WriteString("}\n\n")
}

// NodeDeclarations builds the ordered declaration list for one node:
// layout → constraints → typography → visual. A pair is pushed only when
// the value is non-empty after trimming.
func NodeDeclarations(n *blueprint.Node) []Declaration {
	var decls []Declaration
	push := func(prop, val string) {
		val = strings.TrimSpace(val)
		if val == "" {
			return
		}
		decls = append(decls, Declaration{Property: prop, Value: val})
	}

	if l := n.Layout; l != nil {
		push("display", l.Display)
		push("position", l.Position)
		push("flex-direction", l.FlexDirection)
		push("justify-content", l.JustifyContent)
		push("align-items", l.AlignItems)
		push("flex-wrap", l.FlexWrap)
		push("grid-template-columns", normalizeGridColumns(l.GridColumns, containerWidth(n), gapOf(n)))
		// Pixel-only row tracks rarely generalize; resolved row lists are
		// omitted, declared (non-pixel) values pass through.
		if l.GridRows != "" && !pixelTrackList(l.GridRows) {
			push("grid-template-rows", l.GridRows)
		}
		push("overflow", l.Overflow)
		push("z-index", l.ZIndex)
	}

	if c := n.Constraints; c != nil {
		push("min-width", c.MinWidth)
		push("max-width", c.MaxWidth)
		push("min-height", c.MinHeight)
		push("max-height", c.MaxHeight)
		pushEdges(push, "padding", c.Padding)
		pushMargins(push, c)
		push("gap", c.Gap)
	}

	if t := n.Typography; t != nil {
		push("font-family", t.FontFamily)
		push("font-size", t.FontSize)
		push("font-weight", t.FontWeight)
		push("line-height", t.LineHeight)
		push("letter-spacing", t.LetterSpacing)
		push("text-align", t.TextAlign)
		push("text-transform", t.TextTransform)
	}

	if v := n.Visual; v != nil {
		push("color", v.Color)
		push("background", v.Background)
		push("border", v.Border)
		push("border-radius", v.BorderRadius)
		push("box-shadow", v.BoxShadow)
		push("opacity", v.Opacity)
		push("transform", v.Transform)
		push("transition", v.Transition)
	}

	return decls
}

func pushEdges(push func(prop, val string), prop string, e *blueprint.BoxEdges) {
	if e == nil {
		return
	}
	pushEdge(push, prop+"-top", e.Top)
	pushEdge(push, prop+"-right", e.Right)
	pushEdge(push, prop+"-bottom", e.Bottom)
	pushEdge(push, prop+"-left", e.Left)
}

func pushEdge(push func(prop, val string), prop, val string) {
	if val == "" || val == "0px" || val == "0" {
		return
	}
	push(prop, val)
}

// pushMargins emits margins with centering inference: when the node declares
// an explicit max-width and its left/right margins are within 2px of each
// other and both at least 16px (or literally auto), the horizontal margins
// are rewritten to auto ahead of the literal values.
func pushMargins(push func(prop, val string), c *blueprint.Constraints) {
	m := c.Margin
	if m == nil {
		return
	}
	pushEdge(push, "margin-top", m.Top)
	pushEdge(push, "margin-bottom", m.Bottom)

	if c.MaxWidth != "" && centeredMargins(m.Left, m.Right) {
		push("margin-left", "auto")
		push("margin-right", "auto")
		return
	}
	pushEdge(push, "margin-right", m.Right)
	pushEdge(push, "margin-left", m.Left)
}

func centeredMargins(left, right string) bool {
	if left == "auto" && right == "auto" {
		return true
	}
	l, lerr := parsePx(left)
	r, rerr := parsePx(right)
	if lerr != nil || rerr != nil {
		return false
	}
	return math.Abs(l-r) <= centerMarginTolerance && l >= centerMarginMin && r >= centerMarginMin
}

// normalizeGridColumns rewrites a resolved pixel-only column track list to
// repeat(n, minmax(0, 1fr)) when the tracks are uniform enough and the
// container width corroborates; otherwise the literal list passes through.
func normalizeGridColumns(cols string, width float64, gap string) string {
	cols = strings.TrimSpace(cols)
	if cols == "" {
		return ""
	}
	tracks, ok := parsePxTracks(cols)
	if !ok {
		return cols
	}

	n := len(tracks)
	switch {
	case n >= 2:
		min, max := tracks[0], tracks[0]
		for _, t := range tracks[1:] {
			if t < min {
				min = t
			}
			if t > max {
				max = t
			}
		}
		if min <= 0 || (max-min)/min > gridSpreadMax {
			return cols
		}
	case n == 1:
		if tracks[0] < gridSingleTrackMin {
			return cols
		}
	default:
		return cols
	}

	if width > 0 {
		total := float64(n-1) * columnGap(gap)
		for _, t := range tracks {
			total += t
		}
		if total <= 0 || math.Abs(width-total) > gridWidthTolerance*total {
			return cols
		}
	}

	if n == 1 {
		return "minmax(0, 1fr)"
	}
	return fmt.Sprintf("repeat(%d, minmax(0, 1fr))", n)
}

// parsePxTracks parses "317px 317px" into track widths; any non-pixel token
// (fr, auto, minmax) makes the list non-normalizable.
func parsePxTracks(list string) ([]float64, bool) {
	fields := strings.Fields(list)
	if len(fields) == 0 {
		return nil, false
	}
	tracks := make([]float64, 0, len(fields))
	for _, f := range fields {
		if !strings.HasSuffix(f, "px") {
			return nil, false
		}
		v, err := parsePx(f)
		if err != nil {
			return nil, false
		}
		tracks = append(tracks, v)
	}
	return tracks, true
}

func pixelTrackList(list string) bool {
	_, ok := parsePxTracks(list)
	return ok
}

// columnGap reads the inter-column gap from a resolved gap value:
// "10px" applies to both axes, "10px 24px" is row then column.
func columnGap(gap string) float64 {
	fields := strings.Fields(gap)
	var raw string
	switch len(fields) {
	case 0:
		return 0
	case 1:
		raw = fields[0]
	default:
		raw = fields[1]
	}
	v, err := parsePx(raw)
	if err != nil {
		return 0
	}
	return v
}

func parsePx(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, 64)
}

func containerWidth(n *blueprint.Node) float64 {
	if n.Rect == nil {
		return 0
	}
	return n.Rect.Width
}

func gapOf(n *blueprint.Node) string {
	if n.Constraints == nil {
		return ""
	}
	return n.Constraints.Gap
}

type pseudoRule struct {
	selector string
	decls    []Declaration
}

// pseudoRules emits ::before/::after rules; the evidence index already
// filtered out entries without explicit non-none content, re-checked here
// for blueprints arriving from outside.
func pseudoRules(n *blueprint.Node) []pseudoRule {
	if n.State == nil {
		return nil
	}
	var rules []pseudoRule
	for _, p := range n.State.Pseudo {
		content := strings.TrimSpace(p.Content)
		if content == "" || strings.Trim(content, `"'`) == "none" {
			continue
		}
		decls := []Declaration{{Property: "content", Value: quoteContent(content)}}
		for _, prop := range sortedKeys(p.Style) {
			if v := strings.TrimSpace(p.Style[prop]); v != "" {
				decls = append(decls, Declaration{Property: prop, Value: v})
			}
		}
		rules = append(rules, pseudoRule{
			selector: n.Selector + "::" + p.Pseudo,
			decls:    decls,
		})
	}
	return rules
}

func quoteContent(c string) string {
	if strings.HasPrefix(c, `"`) || strings.HasPrefix(c, "'") {
		return c
	}
	return strconv.Quote(c)
}
