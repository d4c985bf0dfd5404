package interact

import (
	"sort"
	"strings"

	"github.com/hazyhaar/calque/blueprint"
)

// Component-type classes used by both nomination and scoring.
var buttonLikeTypes = map[string]bool{
	"button": true, "cta": true, "submit": true, "toggle": true, "fab": true,
}

var navLikeTypes = map[string]bool{
	"nav": true, "navbar": true, "menu": true, "tab": true, "tabs": true,
	"breadcrumb": true, "pagination": true, "link": true,
}

var navLikeRoles = map[string]bool{
	"navigation": true, "tab": true, "menuitem": true, "menubar": true,
}

// CTA keywords score +20; generic navigation keywords +6.
var ctaKeywords = []string{
	"submit", "buy", "get started", "sign up", "subscribe", "download",
	"try", "start", "order", "checkout", "add to cart", "book now",
	"register", "join", "apply",
}

var navKeywords = []string{
	"home", "about", "contact", "menu", "next", "previous", "back",
	"more", "login", "sign in", "learn",
}

// Area thresholds (px²) for the on-screen size bonus.
const (
	largeArea = 20000
	midArea   = 8000
)

// score computes the capture priority: additive evidence bonuses on a base
// of 10, clamped to [0, 100], mapped to low/medium/high.
func (p *Planner) score(t *blueprint.Target) blueprint.Priority {
	score := 10

	if len(t.AvailableStates) > 0 {
		score += 30 // evidence marks multi-state interactivity
	}
	if len(t.AvailableStates) > 1 {
		score += 10
	}
	if containsSource(t.Sources, SourceState) || containsSource(t.Sources, SourceCommand) {
		score += 20 // explicitly nominated for capture
	}

	switch {
	case buttonLikeTypes[t.ComponentType]:
		score += 30
	case navLikeTypes[t.ComponentType] || navLikeRoles[t.Role]:
		score += 12
	}

	name := strings.ToLower(t.SectionName)
	switch {
	case strings.Contains(name, "hero"):
		score += 18
	case strings.Contains(name, "header") || strings.Contains(name, "banner"):
		score += 8
	case strings.Contains(name, "nav"):
		score += 6
	}

	text := strings.ToLower(t.Text)
	if text != "" {
		if matchesAny(text, ctaKeywords) {
			score += 20
		} else if matchesAny(text, navKeywords) {
			score += 6
		}
	}

	if t.Rect != nil {
		area := t.Rect.Width * t.Rect.Height
		switch {
		case area >= largeArea:
			score += 20
		case area >= midArea:
			score += 10
		}
		if t.Rect.CenterY() <= p.opts.ViewportHeight*0.8 {
			score += 10
		}
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	level := blueprint.PriorityLow
	switch {
	case score >= 70:
		level = blueprint.PriorityHigh
	case score >= 40:
		level = blueprint.PriorityMedium
	}
	return blueprint.Priority{Score: score, Level: level}
}

func containsSource(sources []string, s string) bool {
	for _, have := range sources {
		if have == s {
			return true
		}
	}
	return false
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// group aggregates targets by component id, section id, component type and
// role, each view sorted descending by member count with a bounded sample of
// member selectors.
func (p *Planner) group(targets []*blueprint.Target) blueprint.Groupings {
	return blueprint.Groupings{
		ByComponent: p.groupBy(targets, func(t *blueprint.Target) string { return t.ComponentID }),
		BySection:   p.groupBy(targets, func(t *blueprint.Target) string { return t.SectionID }),
		ByType:      p.groupBy(targets, func(t *blueprint.Target) string { return t.ComponentType }),
		ByRole:      p.groupBy(targets, func(t *blueprint.Target) string { return t.Role }),
	}
}

func (p *Planner) groupBy(targets []*blueprint.Target, keyOf func(*blueprint.Target) string) []blueprint.Group {
	byKey := make(map[string]*blueprint.Group)
	var order []string
	for _, t := range targets {
		key := keyOf(t)
		if key == "" {
			continue
		}
		g, ok := byKey[key]
		if !ok {
			g = &blueprint.Group{Key: key}
			byKey[key] = g
			order = append(order, key)
		}
		g.Count++
		if len(g.Samples) < p.opts.GroupSampleCap && t.Selector != "" {
			g.Samples = append(g.Samples, t.Selector)
		}
	}
	out := make([]blueprint.Group, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
