package synth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hazyhaar/calque/evidence"
)

// baselineName is preferred as the diff baseline when stored.
const baselineName = "desktop"

// declPriority is the fixed property emission order inside a media block;
// properties not listed sort alphabetically after them.
var declPriority = map[string]int{
	"display":               1,
	"flex-direction":        2,
	"flex-wrap":             3,
	"justify-content":       4,
	"align-items":           5,
	"grid-template-columns": 6,
	"grid-template-rows":    7,
	"gap":                   8,
	"visibility":            9,
	"opacity":               10,
}

// MediaBlock is one @media (max-width) override block.
type MediaBlock struct {
	Viewport string
	MaxWidth int
	Rules    []Rule
}

// Rule is one selector's overrides within a block.
type Rule struct {
	Selector string
	Decls    []Declaration
}

// Overrides diffs every stored viewport against the baseline and returns one
// block per non-baseline viewport, ordered widest→narrowest so narrower
// rules win by later-wins CSS ordering. Fewer than two snapshots yield nil.
func Overrides(viewports map[string]*evidence.ViewportLayout) []MediaBlock {
	if len(viewports) < 2 {
		return nil
	}

	baseName := pickBaseline(viewports)
	base := newViewportRecords(viewports[baseName])

	names := make([]string, 0, len(viewports))
	for name := range viewports {
		if name != baseName {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return viewports[names[i]].Viewport.Width > viewports[names[j]].Viewport.Width
	})

	var blocks []MediaBlock
	for _, name := range names {
		vp := viewports[name]
		rules := diffViewport(base, newViewportRecords(vp))
		if len(rules) == 0 {
			continue
		}
		blocks = append(blocks, MediaBlock{
			Viewport: name,
			MaxWidth: vp.Viewport.Width,
			Rules:    rules,
		})
	}
	return blocks
}

// ResponsiveCSS renders the override blocks as @media text.
func ResponsiveCSS(viewports map[string]*evidence.ViewportLayout) string {
	blocks := Overrides(viewports)
	if len(blocks) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, b := range blocks {
		fmt.Fprintf(&sb, "@media (max-width: %dpx) {\n", b.MaxWidth)
		for _, r := range b.Rules {
			fmt.Fprintf(&sb, "  %s {\n", r.Selector)
			for _, d := range r.Decls {
				fmt.Fprintf(&sb, "    %s: %s;\n", d.Property, d.Value)
			}
			sb.WriteString("  }\n")
		}
		sb.WriteString("}\n\n")
	}
	return sb.String()
}

// DiffCounts summarizes, per non-baseline viewport, how many selectors carry
// at least one override. Used for the blueprint's responsive summary.
func DiffCounts(viewports map[string]*evidence.ViewportLayout) (baseline string, counts map[string]int) {
	blocks := Overrides(viewports)
	if len(viewports) > 0 {
		baseline = pickBaseline(viewports)
	}
	counts = make(map[string]int, len(blocks))
	for _, b := range blocks {
		counts[b.Viewport] = len(b.Rules)
	}
	return baseline, counts
}

// pickBaseline returns "desktop" when stored, else the widest viewport.
func pickBaseline(viewports map[string]*evidence.ViewportLayout) string {
	if _, ok := viewports[baselineName]; ok {
		return baselineName
	}
	widest, width := "", -1
	for name, vp := range viewports {
		if vp.Viewport.Width > width || (vp.Viewport.Width == width && name < widest) {
			widest, width = name, vp.Viewport.Width
		}
	}
	return widest
}

// viewportRecords indexes one snapshot's records by selector per category.
type viewportRecords struct {
	grid       map[string]evidence.GridRecord
	flex       map[string]evidence.FlexRecord
	visibility map[string]evidence.VisibilityRecord
	containers map[string]evidence.ContainerRecord
}

func newViewportRecords(vp *evidence.ViewportLayout) viewportRecords {
	r := viewportRecords{
		grid:       make(map[string]evidence.GridRecord),
		flex:       make(map[string]evidence.FlexRecord),
		visibility: make(map[string]evidence.VisibilityRecord),
		containers: make(map[string]evidence.ContainerRecord),
	}
	if vp == nil {
		return r
	}
	for _, g := range vp.GridLayouts {
		r.grid[g.Selector] = g
	}
	for _, f := range vp.FlexLayouts {
		r.flex[f.Selector] = f
	}
	for _, v := range vp.VisibilityStates {
		r.visibility[v.Selector] = v
	}
	for _, c := range vp.LayoutContainers {
		r.containers[c.Selector] = c
	}
	return r
}

// diffViewport emits overrides only for properties that differ from the
// baseline record of the same selector. A display:none from the visibility
// record is protected from being clobbered by a flex/grid display within
// the same block.
func diffViewport(base, vp viewportRecords) []Rule {
	perSelector := make(map[string][]Declaration)
	var order []string

	add := func(selector string, decls ...Declaration) {
		if len(decls) == 0 {
			return
		}
		if _, seen := perSelector[selector]; !seen {
			order = append(order, selector)
		}
		perSelector[selector] = append(perSelector[selector], decls...)
	}

	// Visibility first: display:none recorded here must survive.
	for _, sel := range sortedKeys(vp.visibility) {
		rec := vp.visibility[sel]
		baseRec := base.visibility[sel]
		var decls []Declaration
		if rec.Display != "" && rec.Display != baseRec.Display {
			decls = append(decls, Declaration{"display", rec.Display})
		}
		if rec.Visibility != "" && rec.Visibility != baseRec.Visibility {
			decls = append(decls, Declaration{"visibility", rec.Visibility})
		}
		if rec.Opacity != "" && rec.Opacity != baseRec.Opacity {
			decls = append(decls, Declaration{"opacity", rec.Opacity})
		}
		add(sel, decls...)
	}

	for _, sel := range sortedKeys(vp.flex) {
		rec := vp.flex[sel]
		baseRec, hasBase := base.flex[sel]
		var decls []Declaration
		if !hasBase || rec.Direction != baseRec.Direction {
			if rec.Direction != "" {
				decls = append(decls, Declaration{"flex-direction", rec.Direction})
			}
		}
		if rec.Wrap != "" && rec.Wrap != baseRec.Wrap {
			decls = append(decls, Declaration{"flex-wrap", rec.Wrap})
		}
		if rec.Justify != "" && rec.Justify != baseRec.Justify {
			decls = append(decls, Declaration{"justify-content", rec.Justify})
		}
		if rec.Align != "" && rec.Align != baseRec.Align {
			decls = append(decls, Declaration{"align-items", rec.Align})
		}
		if rec.Gap != "" && rec.Gap != baseRec.Gap {
			decls = append(decls, Declaration{"gap", rec.Gap})
		}
		add(sel, decls...)
	}

	for _, sel := range sortedKeys(vp.grid) {
		rec := vp.grid[sel]
		baseRec := base.grid[sel]
		var decls []Declaration
		if rec.Columns != "" && rec.Columns != baseRec.Columns {
			decls = append(decls, Declaration{"grid-template-columns", normalizeGridColumns(rec.Columns, rec.Width, rec.Gap)})
		}
		if rec.Rows != "" && rec.Rows != baseRec.Rows && !pixelTrackList(rec.Rows) {
			decls = append(decls, Declaration{"grid-template-rows", rec.Rows})
		}
		if rec.Gap != "" && rec.Gap != baseRec.Gap {
			decls = append(decls, Declaration{"gap", rec.Gap})
		}
		add(sel, decls...)
	}

	// Container sizing overrides need a baseline record for the selector:
	// no baseline means no override, to avoid guessing.
	for _, sel := range sortedKeys(vp.containers) {
		rec := vp.containers[sel]
		baseRec, ok := base.containers[sel]
		if !ok {
			continue
		}
		var decls []Declaration
		if rec.Width != "" && rec.Width != baseRec.Width {
			decls = append(decls, Declaration{"width", rec.Width})
		}
		if rec.MaxWidth != "" && rec.MaxWidth != baseRec.MaxWidth {
			decls = append(decls, Declaration{"max-width", rec.MaxWidth})
		}
		if rec.Margin != "" && rec.Margin != baseRec.Margin {
			decls = append(decls, Declaration{"margin", rec.Margin})
		}
		if rec.Padding != "" && rec.Padding != baseRec.Padding {
			decls = append(decls, Declaration{"padding", rec.Padding})
		}
		add(sel, decls...)
	}

	rules := make([]Rule, 0, len(order))
	sort.Strings(order)
	for _, sel := range order {
		rules = append(rules, Rule{
			Selector: sel,
			Decls:    orderDecls(dedupeDecls(perSelector[sel])),
		})
	}
	return rules
}

// dedupeDecls keeps the first declaration per property; since visibility
// records are processed first, display:none always wins within one block.
func dedupeDecls(decls []Declaration) []Declaration {
	seen := make(map[string]bool, len(decls))
	out := decls[:0]
	for _, d := range decls {
		if seen[d.Property] {
			continue
		}
		seen[d.Property] = true
		out = append(out, d)
	}
	return out
}

// orderDecls sorts by the fixed property priority, then alphabetically.
func orderDecls(decls []Declaration) []Declaration {
	sort.SliceStable(decls, func(i, j int) bool {
		pi, iok := declPriority[decls[i].Property]
		pj, jok := declPriority[decls[j].Property]
		switch {
		case iok && jok:
			return pi < pj
		case iok:
			return true
		case jok:
			return false
		default:
			return decls[i].Property < decls[j].Property
		}
	})
	return decls
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
