package builder

import (
	"strconv"
	"strings"

	"github.com/hazyhaar/calque/blueprint"
	"github.com/hazyhaar/calque/evidence"
)

// Style extraction prunes CSS initial/auto/zero values: a value is emitted
// only when it differs from the property's default. The tables below cover
// the resolved forms browsers report for unstyled elements.

var styleDefaults = map[string][]string{
	"position":              {"static"},
	"flex-direction":        {"row"},
	"justify-content":       {"normal", "flex-start"},
	"align-items":           {"normal", "stretch"},
	"flex-wrap":             {"nowrap"},
	"grid-template-columns": {"none"},
	"grid-template-rows":    {"none"},
	"overflow":              {"visible"},
	"z-index":               {"auto"},
	"min-width":             {"auto", "0px"},
	"min-height":            {"auto", "0px"},
	"max-width":             {"none"},
	"max-height":            {"none"},
	"gap":                   {"normal", "0px", "normal normal"},
	"font-weight":           {"400", "normal"},
	"line-height":           {"normal"},
	"letter-spacing":        {"normal"},
	"text-align":            {"start", "left"},
	"text-transform":        {"none"},
	"background":            {"none", "transparent", "rgba(0, 0, 0, 0)"},
	"background-color":      {"transparent", "rgba(0, 0, 0, 0)"},
	"border-radius":         {"0px"},
	"box-shadow":            {"none"},
	"opacity":               {"1"},
	"transform":             {"none"},
	"transition":            {"none", "all", "all 0s ease 0s"},
}

// styled returns the value when it is set and non-default, else "".
func styled(style map[string]string, prop string) string {
	v, ok := style[prop]
	if !ok {
		return ""
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	for _, def := range styleDefaults[prop] {
		if v == def {
			return ""
		}
	}
	return v
}

func extractLayout(style map[string]string) *blueprint.Layout {
	if style == nil {
		return nil
	}
	l := &blueprint.Layout{
		Position:       styled(style, "position"),
		JustifyContent: styled(style, "justify-content"),
		AlignItems:     styled(style, "align-items"),
		FlexWrap:       styled(style, "flex-wrap"),
		GridColumns:    styled(style, "grid-template-columns"),
		GridRows:       styled(style, "grid-template-rows"),
		Overflow:       styled(style, "overflow"),
		ZIndex:         styled(style, "z-index"),
	}

	// display defaults depend on the tag; the capture side reports resolved
	// values, so only the flow defaults are pruned here.
	switch d := strings.TrimSpace(style["display"]); d {
	case "", "inline":
	default:
		l.Display = d
	}
	if l.Display == "flex" || l.Display == "inline-flex" {
		l.FlexDirection = styled(style, "flex-direction")
	}

	if *l == (blueprint.Layout{}) {
		return nil
	}
	return l
}

func extractConstraints(style map[string]string) *blueprint.Constraints {
	if style == nil {
		return nil
	}
	c := &blueprint.Constraints{
		MinWidth:  styled(style, "min-width"),
		MaxWidth:  styled(style, "max-width"),
		MinHeight: styled(style, "min-height"),
		MaxHeight: styled(style, "max-height"),
		Gap:       styled(style, "gap"),
		Padding:   extractEdges(style, "padding"),
		Margin:    extractEdges(style, "margin"),
	}
	if c.MinWidth == "" && c.MaxWidth == "" && c.MinHeight == "" && c.MaxHeight == "" &&
		c.Gap == "" && c.Padding == nil && c.Margin == nil {
		return nil
	}
	return c
}

// extractEdges reads per-edge values ("margin-left", ...) falling back to the
// shorthand, pruning all-zero boxes.
func extractEdges(style map[string]string, prop string) *blueprint.BoxEdges {
	edge := func(side string) string {
		if v, ok := style[prop+"-"+side]; ok {
			return strings.TrimSpace(v)
		}
		return ""
	}
	e := &blueprint.BoxEdges{
		Top:    edge("top"),
		Right:  edge("right"),
		Bottom: edge("bottom"),
		Left:   edge("left"),
	}
	if e.Top == "" && e.Right == "" && e.Bottom == "" && e.Left == "" {
		if sh, ok := style[prop]; ok {
			return expandShorthand(strings.TrimSpace(sh))
		}
		return nil
	}
	if zeroEdge(e.Top) && zeroEdge(e.Right) && zeroEdge(e.Bottom) && zeroEdge(e.Left) {
		return nil
	}
	return e
}

// expandShorthand expands a 1–4 value box shorthand per CSS rules.
func expandShorthand(sh string) *blueprint.BoxEdges {
	if sh == "" {
		return nil
	}
	parts := strings.Fields(sh)
	var e blueprint.BoxEdges
	switch len(parts) {
	case 1:
		e = blueprint.BoxEdges{Top: parts[0], Right: parts[0], Bottom: parts[0], Left: parts[0]}
	case 2:
		e = blueprint.BoxEdges{Top: parts[0], Right: parts[1], Bottom: parts[0], Left: parts[1]}
	case 3:
		e = blueprint.BoxEdges{Top: parts[0], Right: parts[1], Bottom: parts[2], Left: parts[1]}
	case 4:
		e = blueprint.BoxEdges{Top: parts[0], Right: parts[1], Bottom: parts[2], Left: parts[3]}
	default:
		return nil
	}
	if zeroEdge(e.Top) && zeroEdge(e.Right) && zeroEdge(e.Bottom) && zeroEdge(e.Left) {
		return nil
	}
	return &e
}

func zeroEdge(v string) bool {
	return v == "" || v == "0" || v == "0px"
}

func extractTypography(style map[string]string) *blueprint.Typography {
	if style == nil {
		return nil
	}
	t := &blueprint.Typography{
		FontFamily:    strings.TrimSpace(style["font-family"]),
		FontSize:      strings.TrimSpace(style["font-size"]),
		FontWeight:    styled(style, "font-weight"),
		LineHeight:    styled(style, "line-height"),
		LetterSpacing: styled(style, "letter-spacing"),
		TextAlign:     styled(style, "text-align"),
		TextTransform: styled(style, "text-transform"),
	}
	if *t == (blueprint.Typography{}) {
		return nil
	}
	return t
}

func extractVisual(style map[string]string) *blueprint.Visual {
	if style == nil {
		return nil
	}
	v := &blueprint.Visual{
		Color:        strings.TrimSpace(style["color"]),
		BorderRadius: styled(style, "border-radius"),
		BoxShadow:    styled(style, "box-shadow"),
		Opacity:      styled(style, "opacity"),
		Transform:    styled(style, "transform"),
		Transition:   styled(style, "transition"),
	}
	if bg := styled(style, "background"); bg != "" {
		v.Background = bg
	} else {
		v.Background = styled(style, "background-color")
	}
	if b := strings.TrimSpace(style["border"]); b != "" && !zeroBorder(b) {
		v.Border = b
	}
	if *v == (blueprint.Visual{}) {
		return nil
	}
	return v
}

// zeroBorder matches the resolved forms of "no border": zero width or style
// none, e.g. "0px none rgb(0, 0, 0)".
func zeroBorder(b string) bool {
	parts := strings.Fields(b)
	for _, p := range parts {
		if p == "none" || p == "hidden" {
			return true
		}
	}
	return len(parts) > 0 && (parts[0] == "0px" || parts[0] == "0")
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	return strconv.ParseFloat(s, 64)
}

// tagRoles maps HTML tags to their implied ARIA roles, used when the
// accessibility evidence has nothing for the node.
var tagRoles = map[string]string{
	"nav":      "navigation",
	"header":   "banner",
	"footer":   "contentinfo",
	"main":     "main",
	"aside":    "complementary",
	"form":     "form",
	"button":   "button",
	"table":    "table",
	"ul":       "list",
	"ol":       "list",
	"li":       "listitem",
	"img":      "img",
	"h1":       "heading",
	"h2":       "heading",
	"h3":       "heading",
	"h4":       "heading",
	"h5":       "heading",
	"h6":       "heading",
	"select":   "combobox",
	"textarea": "textbox",
	"dialog":   "dialog",
}

// deriveSemantics picks role and accessible name: accessibility evidence
// first, then tag-implied role; name falls back to visible text, then to
// alt/placeholder attributes.
func deriveSemantics(node *blueprint.Node, e *evidence.Element, rec *evidence.A11yRecord) (role, name string) {
	if rec != nil {
		role, name = rec.Role, rec.Name
	}
	if role == "" {
		switch node.Tag {
		case "a":
			if node.Attrs["href"] != "" {
				role = "link"
			}
		case "input":
			role = inputRole(node.Attrs["type"])
		default:
			role = tagRoles[node.Tag]
		}
	}
	if name == "" {
		name = truncateText(e.Text, 60)
	}
	if name == "" {
		if alt := node.Attrs["alt"]; alt != "" {
			name = alt
		} else if ph := node.Attrs["placeholder"]; ph != "" {
			name = ph
		}
	}
	return role, name
}

func inputRole(typ string) string {
	switch typ {
	case "checkbox":
		return "checkbox"
	case "radio":
		return "radio"
	case "range":
		return "slider"
	case "submit", "button", "reset":
		return "button"
	case "search":
		return "searchbox"
	default:
		return "textbox"
	}
}
