package synth

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/calque/blueprint"
	"github.com/hazyhaar/calque/evidence"
)

// MissingTreeHTML is returned when HTML synthesis has no tree to work from.
const MissingTreeHTML = "<!-- calque: no tree available -->"

// textPolicy strips every tag from captured text before it is re-emitted:
// evidence text originates from an arbitrary page and must not smuggle
// markup into the skeleton.
var textPolicy = bluemonday.StrictPolicy()

var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "source": true, "track": true,
	"wbr": true,
}

// GenerateHTML renders the static skeleton: one element per node, attributes
// from the allow-listed set, text sanitized, children indented.
func GenerateHTML(bp *blueprint.Blueprint) string {
	if bp == nil || bp.Tree == nil {
		return MissingTreeHTML
	}
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	writeNode(&sb, bp.Tree, 0)
	return sb.String()
}

func writeNode(sb *strings.Builder, n *blueprint.Node, indent int) {
	pad := strings.Repeat("  ", indent)
	sb.WriteString(pad)
	sb.WriteString("<")
	sb.WriteString(n.Tag)
	writeSelectorAttrs(sb, n.Selector, n.Tag)
	for _, k := range sortedKeys(n.Attrs) {
		fmt.Fprintf(sb, " %s=%q", k, n.Attrs[k])
	}

	if voidTags[n.Tag] {
		sb.WriteString(">\n")
		return
	}
	sb.WriteString(">")

	text := textPolicy.Sanitize(n.Text)
	if len(n.Children) == 0 {
		sb.WriteString(text)
		fmt.Fprintf(sb, "</%s>\n", n.Tag)
		return
	}

	sb.WriteString("\n")
	if text != "" {
		sb.WriteString(strings.Repeat("  ", indent+1))
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	for _, c := range n.Children {
		writeNode(sb, c, indent+1)
	}
	sb.WriteString(pad)
	fmt.Fprintf(sb, "</%s>\n", n.Tag)
}

// writeSelectorAttrs reconstructs id/class attributes from the node selector
// so the emitted skeleton matches the synthesized stylesheet.
func writeSelectorAttrs(sb *strings.Builder, selector, tag string) {
	selector = strings.TrimSpace(selector)
	if selector == "" || selector == tag {
		return
	}
	if strings.HasPrefix(selector, "#") {
		fmt.Fprintf(sb, " id=%q", selector[1:])
		return
	}
	if i := strings.Index(selector, "."); i >= 0 {
		classes := strings.ReplaceAll(selector[i+1:], ".", " ")
		if classes != "" {
			fmt.Fprintf(sb, " class=%q", classes)
		}
	}
}

// ComponentFile is the generated bundle entry for one detected component.
type ComponentFile struct {
	Name   string `json:"name"`
	Markup string `json:"markup"`
	Styles string `json:"styles"`
}

// Bundle is the component-oriented output: page markup, the full stylesheet
// (base rules plus responsive overrides), and per-component files.
type Bundle struct {
	Markup     string          `json:"markup"`
	Stylesheet string          `json:"stylesheet"`
	Components []ComponentFile `json:"components,omitempty"`
}

// GenerateBundle assembles the full replication bundle from a blueprint and
// optional stored viewport snapshots (nil means no responsive overrides).
func GenerateBundle(bp *blueprint.Blueprint, viewports map[string]*evidence.ViewportLayout) *Bundle {
	b := &Bundle{
		Markup:     GenerateHTML(bp),
		Stylesheet: GenerateCSS(bp),
	}
	if media := ResponsiveCSS(viewports); media != "" {
		b.Stylesheet += "\n" + media
	}
	if bp == nil || bp.Tree == nil {
		return b
	}

	index := bp.Tree.Index()
	for _, c := range bp.Components {
		if len(c.NodeUIDs) == 0 {
			continue
		}
		root, ok := index[c.NodeUIDs[0]]
		if !ok {
			continue
		}
		var markup strings.Builder
		writeNode(&markup, root, 0)

		var styles strings.Builder
		seen := make(map[string]bool)
		root.Walk(func(n *blueprint.Node) {
			if n.Selector == "" || seen[n.Selector] {
				return
			}
			if decls := NodeDeclarations(n); len(decls) > 0 {
				seen[n.Selector] = true
				writeRule(&styles, n.Selector, decls)
			}
		})

		b.Components = append(b.Components, ComponentFile{
			Name:   componentName(c),
			Markup: markup.String(),
			Styles: styles.String(),
		})
	}
	return b
}

// componentName turns "button-0" into "Button0" for the generated file.
func componentName(c *blueprint.Component) string {
	parts := strings.FieldsFunc(c.ID, func(r rune) bool { return r == '-' || r == '_' })
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	return sb.String()
}
