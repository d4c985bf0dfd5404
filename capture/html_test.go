package capture

import (
	"strings"
	"testing"
	"unicode/utf8"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Sample</title><script>var x = 1;</script></head>
<body>
  <header id="top" class="site-header sticky">
    <nav><a href="/home">Home</a><a href="/about">About</a></nav>
  </header>
  <main>
    <h1>Welcome</h1>
    <p>Intro text here.</p>
  </main>
</body>
</html>`

func TestParseStructure(t *testing.T) {
	root, err := ParseStructure(samplePage)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if root.Tag != "body" {
		t.Fatalf("root tag = %q, want body", root.Tag)
	}
	if len(root.Children) != 2 {
		t.Fatalf("body children = %d, want 2", len(root.Children))
	}

	header := root.Children[0]
	if header.Tag != "header" || header.ID != "top" {
		t.Fatalf("first child = %s#%s", header.Tag, header.ID)
	}
	if header.Selector != "#top" {
		t.Fatalf("header selector = %q", header.Selector)
	}
	if len(header.Classes) != 2 || header.Classes[0] != "site-header" {
		t.Fatalf("header classes = %v", header.Classes)
	}

	nav := header.Children[0]
	if nav.Selector != "nav" {
		t.Fatalf("nav selector = %q", nav.Selector)
	}
	if len(nav.Children) != 2 {
		t.Fatalf("nav links = %d", len(nav.Children))
	}
	if got := nav.Children[0].Attrs["href"]; got != "/home" {
		t.Fatalf("first link href = %q", got)
	}
	if nav.Children[0].Text != "Home" {
		t.Fatalf("first link text = %q", nav.Children[0].Text)
	}
}

func TestParseStructureSkipsScripts(t *testing.T) {
	root, err := ParseStructure(`<body><div class="a"><script>x()</script><p>hi</p></div></body>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	div := root.Children[0]
	if div.Selector != "div.a" {
		t.Fatalf("div selector = %q", div.Selector)
	}
	if len(div.Children) != 1 || div.Children[0].Tag != "p" {
		t.Fatalf("script not skipped: %+v", div.Children)
	}
}

func TestParseStructureNoBody(t *testing.T) {
	// html.Parse synthesises a body for fragments, so even bare text parses.
	root, err := ParseStructure(`hello`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if root.Tag != "body" || root.Text != "hello" {
		t.Fatalf("got %q / %q", root.Tag, root.Text)
	}
}

func TestParseStructureTextCapRuneBoundary(t *testing.T) {
	// 134 three-byte runes = 402 bytes; the 400-byte cap lands mid-rune.
	root, err := ParseStructure("<body><p>" + strings.Repeat("語", 134) + "</p></body>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p := root.Children[0]
	if !utf8.ValidString(p.Text) {
		t.Fatalf("capped text is not valid UTF-8: %q", p.Text)
	}
	if len(p.Text) != 399 {
		t.Fatalf("capped text = %d bytes, want 399 (last full rune before 400)", len(p.Text))
	}
}
