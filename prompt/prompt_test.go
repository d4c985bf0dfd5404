package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hazyhaar/calque/blueprint"
)

func sampleBlueprint() *blueprint.Blueprint {
	return &blueprint.Blueprint{
		PageURL: "https://example.com",
		Summary: blueprint.Summary{Nodes: 42, MaxDepth: 6, Components: 3, Sections: 2, Targets: 5},
		Sections: []*blueprint.Section{
			{Name: "header", Rect: blueprint.Rect{Width: 1440, Height: 80}, Components: []string{"button-0"}},
			{Name: "main", Rect: blueprint.Rect{Y: 80, Width: 1440, Height: 800}},
		},
		Components: []*blueprint.Component{
			{ID: "button-0", Type: "button", Selector: "button.cta", Text: "Sign up", NodeUIDs: []int{3}},
			{ID: "card-0", Type: "card", Selector: ".card", NodeUIDs: []int{}},
		},
		Interaction: &blueprint.Plan{Targets: []*blueprint.Target{
			{Selector: "button.cta", Text: "Sign up",
				Priority: blueprint.Priority{Score: 90, Level: blueprint.PriorityHigh}},
			{Selector: "a.nav",
				Priority: blueprint.Priority{Score: 30, Level: blueprint.PriorityLow}},
		}},
		Responsive: &blueprint.Responsive{
			Baseline: "desktop",
			Viewports: []blueprint.ViewportInfo{
				{Name: "desktop", Width: 1440}, {Name: "mobile", Width: 375},
			},
			ChangedSelectors: map[string]int{"mobile": 4},
		},
		Tokens: &blueprint.TokenSet{Colors: map[string]string{"primary": "#1a73e8"}},
	}
}

func TestRenderSections(t *testing.T) {
	out := Render(sampleBlueprint(), Options{})

	for _, want := range []string{
		"# Page blueprint",
		"URL: https://example.com",
		"Nodes: 42 (depth 6)",
		"## Sections",
		"- header (1440x80 at 0,0) components=1",
		"## Components",
		"- button-0 [button] button.cta \"Sign up\"",
		"- card-0 [card] .card (unbound)",
		"## Interaction targets",
		"- [90 high] button.cta",
		"## Responsive",
		"Baseline: desktop",
		"- mobile (375px) 4 changed selectors",
		"## Design tokens",
		"colors: primary=#1a73e8",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, TruncationMarker) {
		t.Fatal("unexpected truncation under the default budget")
	}
}

func TestRenderNilBlueprint(t *testing.T) {
	if got := Render(nil, Options{}); got != "(no blueprint)" {
		t.Fatalf("nil render = %q", got)
	}
}

func TestRenderBudgetCutsAtSectionBoundary(t *testing.T) {
	bp := sampleBlueprint()
	out := Render(bp, Options{MaxChars: 150})

	if len(out) > 150+len(TruncationMarker) {
		t.Fatalf("len = %d, budget 150 exceeded beyond the marker", len(out))
	}
	if !strings.HasSuffix(out, TruncationMarker) {
		t.Fatalf("missing truncation marker:\n%s", out)
	}
	// The header section always fits first; later sections are whole-or-absent.
	if !strings.Contains(out, "# Page blueprint") {
		t.Fatalf("header section missing:\n%s", out)
	}
	if strings.Contains(out, "## Components") && !strings.Contains(out, "card-0") {
		t.Fatal("section emitted partially")
	}
}

func TestRenderCapsLists(t *testing.T) {
	bp := sampleBlueprint()
	for i := 0; i < 30; i++ {
		bp.Components = append(bp.Components, &blueprint.Component{
			ID: "chip-" + strings.Repeat("x", i%3), Type: "chip", Selector: ".chip", NodeUIDs: []int{}})
	}
	out := Render(bp, Options{MaxChars: 100000, MaxComponents: 5})
	if !strings.Contains(out, "- ... 27 more") {
		t.Fatalf("component overflow line missing:\n%s", out)
	}
}

func TestRenderTruncatedSummaryNote(t *testing.T) {
	bp := sampleBlueprint()
	bp.Summary.Truncated = true
	out := Render(bp, Options{})
	if !strings.Contains(out, "node budget reached") {
		t.Fatalf("missing partial-tree note:\n%s", out)
	}
}

func TestContentDigest(t *testing.T) {
	html := `<html><body><h1>Pricing</h1><p>Simple <strong>fair</strong> plans.</p></body></html>`
	md := ContentDigest(html, 4000)
	if !strings.Contains(md, "# Pricing") {
		t.Fatalf("heading not converted:\n%s", md)
	}
	if !strings.Contains(md, "**fair**") {
		t.Fatalf("emphasis not converted:\n%s", md)
	}
	if strings.Contains(md, "<p>") {
		t.Fatalf("markup leaked:\n%s", md)
	}
}

func TestContentDigestClipping(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<body>")
	for i := 0; i < 200; i++ {
		sb.WriteString("<p>paragraph of filler content</p>")
	}
	sb.WriteString("</body>")

	md := ContentDigest(sb.String(), 300)
	if len(md) > 300+len(TruncationMarker) {
		t.Fatalf("len = %d, want clipped near 300", len(md))
	}
	if !strings.HasSuffix(md, TruncationMarker) {
		t.Fatalf("missing truncation marker:\n%s", md)
	}
	if ContentDigest("", 100) != "" {
		t.Fatal("empty html must yield empty digest")
	}
	if ContentDigest("<p>x</p>", 0) != "" {
		t.Fatal("zero budget must yield empty digest")
	}
}

func TestWithDigestBudget(t *testing.T) {
	rendered := "# Page blueprint\n"
	out := WithDigest(rendered, "<p>hello world</p>", Options{MaxChars: 4000})
	if !strings.Contains(out, "## Content digest") || !strings.Contains(out, "hello world") {
		t.Fatalf("digest not appended:\n%s", out)
	}

	// No remaining budget: the rendered prompt comes back unchanged.
	tight := WithDigest(rendered, "<p>hello</p>", Options{MaxChars: len(rendered) + 5})
	if tight != rendered {
		t.Fatalf("digest appended past the budget:\n%s", tight)
	}
}

func TestClipRuneBoundary(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"café raffiné", 4, "caf…"}, // byte 4 lands inside é
		{"café raffiné", 5, "café…"},
		{"café", 10, "café"},
	}
	for _, tc := range cases {
		got := clip(tc.in, tc.max)
		if got != tc.want {
			t.Fatalf("clip(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("clip(%q, %d) produced invalid UTF-8: %q", tc.in, tc.max, got)
		}
	}
}

func TestContentDigestRuneBoundary(t *testing.T) {
	html := "<p>" + strings.Repeat("é", 80) + "</p>"
	md := ContentDigest(html, 21) // odd budget lands mid two-byte rune
	if !utf8.ValidString(md) {
		t.Fatalf("digest is not valid UTF-8: %q", md)
	}
	if !strings.HasSuffix(md, TruncationMarker) {
		t.Fatalf("missing truncation marker:\n%s", md)
	}
	if len(md) > 21+len(TruncationMarker) {
		t.Fatalf("len = %d, want clipped near 21", len(md))
	}
}
