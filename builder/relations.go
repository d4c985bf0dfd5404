package builder

import (
	"math"
	"sort"
	"strings"

	"github.com/hazyhaar/calque/blueprint"
)

// alignTolerance is the 1-D clustering tolerance in px for sibling centers.
const alignTolerance = 6.0

// InferRelationships derives ordering, alignment clusters, flex/grid
// groupings and overlay sets for every parent with at least one geometric
// child. The returned map is keyed by parent uid.
func InferRelationships(root *blueprint.Node) map[int]*blueprint.NodeRelations {
	rels := make(map[int]*blueprint.NodeRelations)
	if root == nil {
		return rels
	}
	root.Walk(func(n *blueprint.Node) {
		if r := inferNode(n); r != nil {
			rels[n.UID] = r
		}
	})
	return rels
}

func inferNode(parent *blueprint.Node) *blueprint.NodeRelations {
	children := geometricChildren(parent)
	if len(children) == 0 {
		return nil
	}

	rel := &blueprint.NodeRelations{}

	axis := flowAxis(parent, children)
	rel.Order = &blueprint.Ordering{Axis: axis, UIDs: orderAlong(children, axis)}

	if parent.Rect != nil {
		rel.Alignments = append(
			clusterAxis(children, "x", parent.Rect.X, parent.Rect.Width),
			clusterAxis(children, "y", parent.Rect.Y, parent.Rect.Height)...,
		)
	}

	uids := make([]int, len(children))
	for i, c := range children {
		uids[i] = c.UID
	}
	if parent.Layout.IsFlex() {
		rel.Flex = &blueprint.FlexGroup{
			Direction: parent.Layout.FlexDirection,
			Justify:   parent.Layout.JustifyContent,
			Align:     parent.Layout.AlignItems,
			Wrap:      parent.Layout.FlexWrap,
			Gap:       gapOf(parent),
			UIDs:      uids,
		}
	}
	if parent.Layout.IsGrid() {
		rel.Grid = &blueprint.GridGroup{
			Columns: parent.Layout.GridColumns,
			Rows:    parent.Layout.GridRows,
			Gap:     gapOf(parent),
			UIDs:    uids,
		}
	}

	for _, c := range children {
		if c.Layout != nil && (c.Layout.Position == "absolute" || c.Layout.Position == "fixed") {
			rel.Overlays = append(rel.Overlays, c.UID)
		}
	}

	return rel
}

func geometricChildren(parent *blueprint.Node) []*blueprint.Node {
	var out []*blueprint.Node
	for _, c := range parent.Children {
		if c.Rect != nil {
			out = append(out, c)
		}
	}
	return out
}

func gapOf(n *blueprint.Node) string {
	if n.Constraints != nil {
		return n.Constraints.Gap
	}
	return ""
}

// flowAxis picks the container's flow direction: declared flex direction
// wins, then grid, else the dominant center-to-center delta between
// consecutive siblings (vertical on tie or with fewer than two children).
func flowAxis(parent *blueprint.Node, children []*blueprint.Node) blueprint.Axis {
	if parent.Layout.IsFlex() {
		if strings.HasPrefix(parent.Layout.FlexDirection, "column") {
			return blueprint.AxisVertical
		}
		return blueprint.AxisHorizontal
	}
	if parent.Layout.IsGrid() {
		return blueprint.AxisGrid
	}
	if len(children) < 2 {
		return blueprint.AxisVertical
	}

	var dx, dy float64
	for i := 1; i < len(children); i++ {
		dx += math.Abs(children[i].Rect.CenterX() - children[i-1].Rect.CenterX())
		dy += math.Abs(children[i].Rect.CenterY() - children[i-1].Rect.CenterY())
	}
	if dx > dy {
		return blueprint.AxisHorizontal
	}
	return blueprint.AxisVertical
}

// orderAlong sorts child uids by position along the flow axis. Grid flow
// orders row-major: top before left.
func orderAlong(children []*blueprint.Node, axis blueprint.Axis) []int {
	sorted := make([]*blueprint.Node, len(children))
	copy(sorted, children)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Rect, sorted[j].Rect
		switch axis {
		case blueprint.AxisHorizontal:
			return a.X < b.X
		case blueprint.AxisGrid:
			if a.Y != b.Y {
				return a.Y < b.Y
			}
			return a.X < b.X
		default:
			return a.Y < b.Y
		}
	})
	uids := make([]int, len(sorted))
	for i, c := range sorted {
		uids[i] = c.UID
	}
	return uids
}

// clusterAxis runs 1-D tolerance clustering over sibling centers on one
// axis: values are sorted, a new group starts whenever a value drifts more
// than the tolerance from the running group mean, otherwise it folds in and
// the mean updates.
func clusterAxis(children []*blueprint.Node, axis string, origin, size float64) []blueprint.AlignmentGroup {
	type member struct {
		uid    int
		center float64
	}
	members := make([]member, len(children))
	for i, c := range children {
		center := c.Rect.CenterX()
		if axis == "y" {
			center = c.Rect.CenterY()
		}
		members[i] = member{uid: c.UID, center: center}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].center < members[j].center })

	var groups []blueprint.AlignmentGroup
	var cur []member
	var mean float64

	flush := func() {
		if len(cur) == 0 {
			return
		}
		uids := make([]int, len(cur))
		for i, m := range cur {
			uids[i] = m.uid
		}
		groups = append(groups, blueprint.AlignmentGroup{
			Axis:     axis,
			Position: axisPosition(axis, mean, origin, size),
			Mean:     mean,
			UIDs:     uids,
		})
		cur = nil
	}

	for _, m := range members {
		if len(cur) > 0 && math.Abs(m.center-mean) > alignTolerance {
			flush()
		}
		cur = append(cur, m)
		// running mean over the current group
		sum := 0.0
		for _, g := range cur {
			sum += g.center
		}
		mean = sum / float64(len(cur))
	}
	flush()

	return groups
}

// axisPosition labels a group by its ratio of (mean − origin)/size against
// the 0.33/0.66 thresholds.
func axisPosition(axis string, mean, origin, size float64) string {
	ratio := 0.0
	if size > 0 {
		ratio = (mean - origin) / size
	}
	if axis == "x" {
		switch {
		case ratio < 0.33:
			return "left"
		case ratio < 0.66:
			return "center"
		default:
			return "right"
		}
	}
	switch {
	case ratio < 0.33:
		return "top"
	case ratio < 0.66:
		return "middle"
	default:
		return "bottom"
	}
}
