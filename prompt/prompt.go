// Package prompt renders a blueprint into a condensed, character-bounded
// text form suitable for an LLM context window. Truncation happens at
// top-level section boundaries, never mid-structure, with a trailing marker.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/calque/blueprint"
)

// TruncationMarker is appended when the budget cuts the prompt short.
const TruncationMarker = "\n[truncated]"

// Options bounds the rendered prompt.
type Options struct {
	MaxChars int `yaml:"max_chars" json:"max_chars,omitempty"`
	// MaxTargets caps the interaction targets listed (default 10).
	MaxTargets int `yaml:"max_targets" json:"max_targets,omitempty"`
	// MaxComponents caps the components listed (default 20).
	MaxComponents int `yaml:"max_components" json:"max_components,omitempty"`
}

func (o *Options) defaults() {
	if o.MaxChars <= 0 {
		o.MaxChars = 4000
	}
	if o.MaxTargets <= 0 {
		o.MaxTargets = 10
	}
	if o.MaxComponents <= 0 {
		o.MaxComponents = 20
	}
}

// Render produces the condensed prompt. The result is at most
// opts.MaxChars plus the fixed truncation-marker overhead.
func Render(bp *blueprint.Blueprint, opts Options) string {
	opts.defaults()
	if bp == nil {
		return "(no blueprint)"
	}

	sections := []string{
		headerSection(bp),
		sectionsSection(bp),
		componentsSection(bp, opts.MaxComponents),
		interactionSection(bp, opts.MaxTargets),
		responsiveSection(bp),
		tokensSection(bp),
	}

	var sb strings.Builder
	truncated := false
	for _, s := range sections {
		if s == "" {
			continue
		}
		if sb.Len()+len(s) > opts.MaxChars {
			truncated = true
			break
		}
		sb.WriteString(s)
	}
	out := sb.String()
	if truncated {
		out += TruncationMarker
	}
	return out
}

func headerSection(bp *blueprint.Blueprint) string {
	var sb strings.Builder
	sb.WriteString("# Page blueprint\n")
	if bp.PageURL != "" {
		fmt.Fprintf(&sb, "URL: %s\n", bp.PageURL)
	}
	s := bp.Summary
	fmt.Fprintf(&sb, "Nodes: %d (depth %d)  Components: %d  Sections: %d  Targets: %d\n",
		s.Nodes, s.MaxDepth, s.Components, s.Sections, s.Targets)
	if s.Truncated {
		sb.WriteString("Note: node budget reached, tree is partial\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func sectionsSection(bp *blueprint.Blueprint) string {
	if len(bp.Sections) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Sections\n")
	for _, s := range bp.Sections {
		fmt.Fprintf(&sb, "- %s (%.0fx%.0f at %.0f,%.0f) components=%d\n",
			s.Name, s.Rect.Width, s.Rect.Height, s.Rect.X, s.Rect.Y, len(s.Components))
	}
	sb.WriteString("\n")
	return sb.String()
}

func componentsSection(bp *blueprint.Blueprint, max int) string {
	if len(bp.Components) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Components\n")
	for i, c := range bp.Components {
		if i >= max {
			fmt.Fprintf(&sb, "- ... %d more\n", len(bp.Components)-max)
			break
		}
		line := fmt.Sprintf("- %s [%s] %s", c.ID, c.Type, c.Selector)
		if c.Text != "" {
			line += fmt.Sprintf(" %q", clip(c.Text, 40))
		}
		if len(c.NodeUIDs) == 0 {
			line += " (unbound)"
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func interactionSection(bp *blueprint.Blueprint, max int) string {
	if bp.Interaction == nil || len(bp.Interaction.Targets) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Interaction targets\n")
	for i, t := range bp.Interaction.Targets {
		if i >= max {
			fmt.Fprintf(&sb, "- ... %d more\n", len(bp.Interaction.Targets)-max)
			break
		}
		fmt.Fprintf(&sb, "- [%d %s] %s", t.Priority.Score, t.Priority.Level, t.Selector)
		if t.Text != "" {
			fmt.Fprintf(&sb, " %q", clip(t.Text, 30))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func responsiveSection(bp *blueprint.Blueprint) string {
	r := bp.Responsive
	if r == nil || len(r.Viewports) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Responsive\n")
	fmt.Fprintf(&sb, "Baseline: %s\n", r.Baseline)
	for _, vp := range r.Viewports {
		line := fmt.Sprintf("- %s (%dpx)", vp.Name, vp.Width)
		if n, ok := r.ChangedSelectors[vp.Name]; ok {
			line += fmt.Sprintf(" %d changed selectors", n)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func tokensSection(bp *blueprint.Blueprint) string {
	t := bp.Tokens
	if t == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Design tokens\n")
	writeTokenMap(&sb, "colors", t.Colors)
	writeTokenMap(&sb, "typography", t.Typography)
	writeTokenMap(&sb, "spacing", t.Spacing)
	writeTokenMap(&sb, "shadows", t.Shadows)
	writeTokenMap(&sb, "motion", t.Motion)
	if sb.Len() == len("## Design tokens\n") {
		return ""
	}
	sb.WriteString("\n")
	return sb.String()
}

func writeTokenMap(sb *strings.Builder, name string, m map[string]string) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(sb, "%s:", name)
	for _, k := range keys {
		fmt.Fprintf(sb, " %s=%s", k, m[k])
	}
	sb.WriteString("\n")
}

// clip collapses whitespace and bounds s to max bytes, cutting on a rune
// boundary so the result stays valid UTF-8.
func clip(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "…"
}
