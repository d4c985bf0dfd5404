package builder

import (
	"fmt"
	"math"
	"strings"

	"github.com/hazyhaar/calque/blueprint"
	"github.com/hazyhaar/calque/evidence"
)

// Rect-proximity tolerances for fallback component binding.
const (
	bindPosTolerance  = 6.0  // |dx|, |dy|
	bindSizeTolerance = 12.0 // |dw|, |dh|
	sectionTolerance  = 2.0  // centroid containment edge tolerance
	minTextMatchLen   = 4
)

// Components materializes the component list from the index, carrying over
// the primary bindings recorded during the tree build.
func Components(idx *evidence.ComponentIndex, bindings map[string][]int) []*blueprint.Component {
	if idx == nil {
		return nil
	}
	out := make([]*blueprint.Component, 0, len(idx.Records))
	for _, rec := range idx.Records {
		c := &blueprint.Component{
			ID:              rec.ID,
			Type:            rec.Type,
			Variant:         rec.Detection.Variant,
			Selector:        rec.Detection.Selector,
			Rect:            rec.Detection.Rect,
			Text:            rec.Detection.Text,
			DetectionMethod: rec.Detection.DetectionMethod,
			NodeUIDs:        []int{},
		}
		if uids := bindings[rec.ID]; len(uids) > 0 {
			c.NodeUIDs = uids
		}
		out = append(out, c)
	}
	return out
}

// BindFallback runs the fallback binding pass for every component without a
// node: same-selector candidates first (preferring unbound nodes), picked by
// rect proximity then text match, else first candidate; when the selector
// yields nothing the whole node list is retried with the rect/text
// heuristics only. A component that still matches nothing stays unbound.
func BindFallback(components []*blueprint.Component, nodes []*blueprint.Node) {
	bound := make(map[int]bool)
	for _, c := range components {
		for _, uid := range c.NodeUIDs {
			bound[uid] = true
		}
	}

	for _, c := range components {
		if len(c.NodeUIDs) > 0 {
			continue
		}

		var candidates []*blueprint.Node
		for _, n := range nodes {
			if n.Selector == c.Selector {
				candidates = append(candidates, n)
			}
		}

		var pick *blueprint.Node
		if len(candidates) > 0 {
			unbound := filterUnbound(candidates, bound)
			if len(unbound) > 0 {
				candidates = unbound
			}
			pick = pickByRect(c, candidates)
			if pick == nil {
				pick = pickByText(c, candidates)
			}
			if pick == nil {
				pick = candidates[0]
			}
		} else {
			pick = pickByRect(c, nodes)
			if pick == nil {
				pick = pickByText(c, nodes)
			}
		}

		if pick == nil {
			continue // stays unbound: node_uids []
		}
		c.NodeUIDs = []int{pick.UID}
		bound[pick.UID] = true
		if pick.Component == nil {
			pick.Component = &blueprint.ComponentRef{ID: c.ID, Type: c.Type, Variant: c.Variant}
		}
	}
}

func filterUnbound(candidates []*blueprint.Node, bound map[int]bool) []*blueprint.Node {
	var out []*blueprint.Node
	for _, n := range candidates {
		if !bound[n.UID] && n.Component == nil {
			out = append(out, n)
		}
	}
	return out
}

// pickByRect returns the candidate within the position/size tolerances with
// the lowest total delta, or nil when none qualifies.
func pickByRect(c *blueprint.Component, candidates []*blueprint.Node) *blueprint.Node {
	var best *blueprint.Node
	bestDelta := math.MaxFloat64
	for _, n := range candidates {
		if n.Rect == nil {
			continue
		}
		dx := math.Abs(n.Rect.X - c.Rect.X)
		dy := math.Abs(n.Rect.Y - c.Rect.Y)
		dw := math.Abs(n.Rect.Width - c.Rect.Width)
		dh := math.Abs(n.Rect.Height - c.Rect.Height)
		if dx > bindPosTolerance || dy > bindPosTolerance || dw > bindSizeTolerance || dh > bindSizeTolerance {
			continue
		}
		if total := dx + dy + dw + dh; total < bestDelta {
			bestDelta = total
			best = n
		}
	}
	return best
}

// pickByText returns the first candidate whose normalized text contains (or
// is contained by) the component's text. Texts shorter than 4 characters
// never match.
func pickByText(c *blueprint.Component, candidates []*blueprint.Node) *blueprint.Node {
	want := normalizeText(c.Text)
	if len(want) < minTextMatchLen {
		return nil
	}
	for _, n := range candidates {
		have := normalizeText(n.Text)
		if len(have) < minTextMatchLen {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return n
		}
	}
	return nil
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Sections materializes sections from capture-side hints and assigns each
// component to the first section whose rectangle contains the component's
// centroid (±2px on all edges). A component inside no section rect has none.
func Sections(hints []evidence.SectionHint, components []*blueprint.Component) []*blueprint.Section {
	if len(hints) == 0 {
		return nil
	}
	sections := make([]*blueprint.Section, len(hints))
	for i, h := range hints {
		sections[i] = &blueprint.Section{
			ID:   fmt.Sprintf("%s-%d", strings.ToLower(h.Name), i),
			Name: h.Name,
			Role: h.Role,
			Rect: h.Rect,
		}
	}

	for _, c := range components {
		cx, cy := c.Rect.CenterX(), c.Rect.CenterY()
		for _, s := range sections {
			if s.Rect.Contains(cx, cy, sectionTolerance) {
				c.SectionID = s.ID
				s.Components = append(s.Components, c.ID)
				break
			}
		}
	}
	return sections
}
