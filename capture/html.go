package capture

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/calque/evidence"
)

// maxOwnText bounds the own-text kept per element.
const maxOwnText = 400

// skippedAtoms are never represented in the structure tree built from
// raw markup.
var skippedAtoms = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
}

// ParseStructure builds a structure evidence tree from raw HTML. It is the
// degraded path for evidence bundles that carry markup but no live-DOM walk:
// the resulting elements have tags, attributes, and text but no geometry or
// computed styles, so layout inference is skipped downstream.
func ParseStructure(rawHTML string) (*evidence.Element, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("capture: parse html: %w", err)
	}

	body := findBody(doc)
	if body == nil {
		return nil, fmt.Errorf("capture: no body element")
	}
	return elementFromNode(body), nil
}

func structureFromHTML(rawHTML string, logger *slog.Logger) *evidence.Element {
	root, err := ParseStructure(rawHTML)
	if err != nil {
		logger.Warn("capture: structure from html", "error", err)
		return nil
	}
	return root
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

func elementFromNode(n *html.Node) *evidence.Element {
	el := &evidence.Element{Tag: n.Data}

	var classes []string
	attrs := make(map[string]string)
	for _, a := range n.Attr {
		switch a.Key {
		case "id":
			el.ID = a.Val
		case "class":
			classes = strings.Fields(a.Val)
		default:
			attrs[a.Key] = a.Val
		}
	}
	el.Classes = classes
	if len(attrs) > 0 {
		el.Attrs = attrs
	}

	switch {
	case el.ID != "":
		el.Selector = "#" + el.ID
	case len(classes) > 0:
		el.Selector = el.Tag + "." + classes[0]
	default:
		el.Selector = el.Tag
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			text.WriteString(c.Data)
		case html.ElementNode:
			if skippedAtoms[c.DataAtom] {
				continue
			}
			el.Children = append(el.Children, elementFromNode(c))
		}
	}
	el.Text = strings.TrimSpace(text.String())
	if len(el.Text) > maxOwnText {
		// Back up to a rune boundary so the cut never splits UTF-8.
		cut := maxOwnText
		for cut > 0 && !utf8.RuneStart(el.Text[cut]) {
			cut--
		}
		el.Text = el.Text[:cut]
	}
	return el
}
