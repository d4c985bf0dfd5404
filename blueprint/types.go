// Package blueprint defines the replication IR emitted by the builder.
// These are the public API contract: any consumer (synthesizers, MCP tools,
// custom pipelines) imports this package to receive and process blueprints.
package blueprint

// Rect is element geometry in CSS pixels, viewport-relative.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CenterX returns the horizontal center of the rect.
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }

// CenterY returns the vertical center of the rect.
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// Contains reports whether the point (x, y) lies inside the rect,
// expanded by tol on every edge.
func (r Rect) Contains(x, y, tol float64) bool {
	return x >= r.X-tol && x <= r.X+r.Width+tol &&
		y >= r.Y-tol && y <= r.Y+r.Height+tol
}

// Layout holds resolved display/positioning values for one node.
// A field is set only when it differs from the CSS initial value.
type Layout struct {
	Display        string `json:"display,omitempty"`
	Position       string `json:"position,omitempty"`
	FlexDirection  string `json:"flex_direction,omitempty"`
	JustifyContent string `json:"justify_content,omitempty"`
	AlignItems     string `json:"align_items,omitempty"`
	FlexWrap       string `json:"flex_wrap,omitempty"`
	GridColumns    string `json:"grid_columns,omitempty"`
	GridRows       string `json:"grid_rows,omitempty"`
	Overflow       string `json:"overflow,omitempty"`
	ZIndex         string `json:"z_index,omitempty"`
}

// IsFlex reports whether the node declares a flex container.
func (l *Layout) IsFlex() bool {
	return l != nil && (l.Display == "flex" || l.Display == "inline-flex")
}

// IsGrid reports whether the node declares a grid container.
func (l *Layout) IsGrid() bool {
	return l != nil && (l.Display == "grid" || l.Display == "inline-grid")
}

// BoxEdges holds per-edge resolved values (e.g. margins as "240px" or "auto").
type BoxEdges struct {
	Top    string `json:"top,omitempty"`
	Right  string `json:"right,omitempty"`
	Bottom string `json:"bottom,omitempty"`
	Left   string `json:"left,omitempty"`
}

// Constraints holds size bounds and the padding/margin box.
type Constraints struct {
	MinWidth  string    `json:"min_width,omitempty"`
	MaxWidth  string    `json:"max_width,omitempty"`
	MinHeight string    `json:"min_height,omitempty"`
	MaxHeight string    `json:"max_height,omitempty"`
	Padding   *BoxEdges `json:"padding,omitempty"`
	Margin    *BoxEdges `json:"margin,omitempty"`
	Gap       string    `json:"gap,omitempty"`
}

// Typography holds resolved text styling for one node.
type Typography struct {
	FontFamily    string `json:"font_family,omitempty"`
	FontSize      string `json:"font_size,omitempty"`
	FontWeight    string `json:"font_weight,omitempty"`
	LineHeight    string `json:"line_height,omitempty"`
	LetterSpacing string `json:"letter_spacing,omitempty"`
	TextAlign     string `json:"text_align,omitempty"`
	TextTransform string `json:"text_transform,omitempty"`
}

// Visual holds paint-level styling: color, background, border, effects.
type Visual struct {
	Color        string `json:"color,omitempty"`
	Background   string `json:"background,omitempty"`
	Border       string `json:"border,omitempty"`
	BorderRadius string `json:"border_radius,omitempty"`
	BoxShadow    string `json:"box_shadow,omitempty"`
	Opacity      string `json:"opacity,omitempty"`
	Transform    string `json:"transform,omitempty"`
	Transition   string `json:"transition,omitempty"`
}

// PseudoStyle is the captured style of a ::before/::after pseudo-element.
// Only surfaced when `content` is explicitly present and not "none".
type PseudoStyle struct {
	Pseudo  string            `json:"pseudo"` // "before" or "after"
	Content string            `json:"content"`
	Style   map[string]string `json:"style,omitempty"`
}

// StateEvidence is captured interactive-state evidence bound to a node.
type StateEvidence struct {
	Interactive bool          `json:"interactive,omitempty"`
	States      []string      `json:"states,omitempty"` // e.g. "hover", "focus", "active"
	Summary     string        `json:"summary,omitempty"`
	Pseudo      []PseudoStyle `json:"pseudo,omitempty"`
}

// ComponentRef is the binding from a node to a detected component.
type ComponentRef struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Variant string `json:"variant,omitempty"`
}

// Node is one IR element record. Created once per qualifying element during
// a single build pass and never mutated afterwards, except that the fallback
// binding pass may attach Component post-hoc when none was set.
type Node struct {
	UID      int               `json:"uid"`
	Tag      string            `json:"tag"`
	Selector string            `json:"selector"`
	Text     string            `json:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Icon     bool              `json:"icon,omitempty"`

	Rect        *Rect        `json:"rect,omitempty"`
	Layout      *Layout      `json:"layout,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty"`
	Typography  *Typography  `json:"typography,omitempty"`
	Visual      *Visual      `json:"visual,omitempty"`

	Component *ComponentRef  `json:"component,omitempty"`
	State     *StateEvidence `json:"state,omitempty"`

	Role string `json:"role,omitempty"`
	Name string `json:"name,omitempty"`

	// Children is exclusively owned by this node. Omitted entirely when no
	// child survives pruning; back-edges are never stored, only looked up
	// via indices built per phase.
	Children []*Node `json:"children,omitempty"`
}

// Walk visits n and every descendant in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 0
	n.Walk(func(*Node) { total++ })
	return total
}

// Depth returns the maximum depth of the subtree (root = 1).
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	deepest := 0
	for _, c := range n.Children {
		if d := c.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// Index builds a uid → node lookup table for the subtree rooted at n.
// Indices are built once per phase and passed by reference; nodes themselves
// never carry parent pointers.
func (n *Node) Index() map[int]*Node {
	idx := make(map[int]*Node)
	n.Walk(func(node *Node) { idx[node.UID] = node })
	return idx
}

// Component is a detected UI pattern instance bound to zero or more nodes.
// NodeUIDs[0], when present, is the primary binding.
type Component struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Variant         string `json:"variant,omitempty"`
	Selector        string `json:"selector"`
	Rect            Rect   `json:"rect"`
	Text            string `json:"text,omitempty"`
	DetectionMethod string `json:"detection_method,omitempty"`
	NodeUIDs        []int  `json:"node_uids"`
	SectionID       string `json:"section_id,omitempty"`
}

// Section is a coarse page region (hero, nav, footer, ...).
type Section struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Role       string   `json:"role,omitempty"`
	Rect       Rect     `json:"rect"`
	Components []string `json:"components,omitempty"` // component IDs inside this section
}

// TokenSet holds design tokens passed through from the capture side.
type TokenSet struct {
	Colors     map[string]string `json:"colors,omitempty"`
	Typography map[string]string `json:"typography,omitempty"`
	Spacing    map[string]string `json:"spacing,omitempty"`
	Shadows    map[string]string `json:"shadows,omitempty"`
	Motion     map[string]string `json:"motion,omitempty"`
}

// ViewportInfo describes one named capture viewport.
type ViewportInfo struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height,omitempty"`
}

// Responsive summarizes the per-viewport evidence bound into the blueprint.
type Responsive struct {
	Baseline  string         `json:"baseline,omitempty"`
	Viewports []ViewportInfo `json:"viewports,omitempty"`
	// ChangedSelectors counts, per non-baseline viewport, how many selectors
	// diverge from the baseline records.
	ChangedSelectors map[string]int `json:"changed_selectors,omitempty"`
}

// Summary holds blueprint-level counts and budget flags.
type Summary struct {
	Nodes              int  `json:"nodes"`
	MaxDepth           int  `json:"max_depth"`
	Components         int  `json:"components"`
	Sections           int  `json:"sections"`
	Targets            int  `json:"targets"`
	Truncated          bool `json:"truncated,omitempty"`
	TargetLimitReached bool `json:"target_limit_reached,omitempty"`
}

// Blueprint is the root aggregate for one page snapshot. It exclusively owns
// every sub-structure produced in the same build call and holds no live
// references to the external environment after the call returns.
type Blueprint struct {
	ID         string `json:"id"` // UUIDv7
	PageURL    string `json:"page_url,omitempty"`
	PageID     string `json:"page_id,omitempty"`
	CapturedAt int64  `json:"captured_at,omitempty"` // epoch milliseconds

	Tree          *Node                  `json:"tree"`
	Sections      []*Section             `json:"sections,omitempty"`
	Components    []*Component           `json:"components,omitempty"`
	Relationships map[int]*NodeRelations `json:"relationships,omitempty"`
	Interaction   *Plan                  `json:"interaction,omitempty"`
	Responsive    *Responsive            `json:"responsive,omitempty"`
	Tokens        *TokenSet              `json:"tokens,omitempty"`
	Summary       Summary                `json:"summary"`
}
