// Package evidence defines the externally produced input bundles consumed by
// the blueprint builder, plus the selector/identity indices built over them.
//
// Every bundle is opaque, already-computed data: calque never re-derives
// layout or style, it only binds what the capture side observed. A malformed
// or missing bundle is treated as "no evidence of that kind", never an error.
package evidence

import "github.com/hazyhaar/calque/blueprint"

// Element is one node of the structure evidence: a DOM-like tree already
// reduced to tag/rect/id/attributes plus a resolved computed-style subset.
type Element struct {
	Tag      string            `json:"tag"`
	ID       string            `json:"id,omitempty"`
	Classes  []string          `json:"classes,omitempty"`
	Selector string            `json:"selector,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Rect     blueprint.Rect    `json:"rect"`
	Style    map[string]string `json:"style,omitempty"` // computed values, property → resolved value
	Text     string            `json:"text,omitempty"`  // own text content, trimmed
	Children []*Element        `json:"children,omitempty"`
}

// Walk visits e and every descendant in pre-order.
func (e *Element) Walk(fn func(*Element)) {
	if e == nil {
		return
	}
	fn(e)
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// ComponentDetection is one detected UI pattern instance.
type ComponentDetection struct {
	Selector        string         `json:"selector"`
	Rect            blueprint.Rect `json:"rect"`
	Text            string         `json:"text,omitempty"`
	Variant         string         `json:"variant,omitempty"`
	DetectionMethod string         `json:"detection_method,omitempty"`
}

// ComponentReport groups detections by component type
// (e.g. "button" → [...], "card" → [...]).
type ComponentReport struct {
	Components map[string][]ComponentDetection `json:"components"`
}

// ElementStates is the captured per-state style matrix for one selector.
// State names include "default", "hover", "focus", "active" and the
// pseudo-element keys "::before" / "::after".
type ElementStates struct {
	States map[string]map[string]string `json:"states"`
}

// CapturedStates holds the full state matrix keyed by selector.
type CapturedStates struct {
	States map[string]ElementStates `json:"states"`
}

// MCPCommand is an externally generated interaction command.
type MCPCommand struct {
	Command  string `json:"command"`
	Selector string `json:"selector"`
}

// StateCapture is the captured interaction-state evidence bundle.
type StateCapture struct {
	Summaries   map[string]string `json:"summaries,omitempty"` // selector → summary
	Captured    *CapturedStates   `json:"captured,omitempty"`
	Selectors   []string          `json:"selectors,omitempty"`
	MCPCommands []MCPCommand      `json:"mcp_commands,omitempty"`
}

// A11yNode is one node of the accessibility tree evidence.
type A11yNode struct {
	Selector string      `json:"selector,omitempty"`
	Role     string      `json:"role,omitempty"`
	Name     string      `json:"name,omitempty"`
	States   []string    `json:"states,omitempty"`
	Children []*A11yNode `json:"children,omitempty"`
}

// Walk visits a and every descendant in pre-order.
func (a *A11yNode) Walk(fn func(*A11yNode)) {
	if a == nil {
		return
	}
	fn(a)
	for _, c := range a.Children {
		c.Walk(fn)
	}
}

// GridRecord is one grid container observed at a given viewport.
type GridRecord struct {
	Selector string  `json:"selector"`
	Columns  string  `json:"columns,omitempty"`
	Rows     string  `json:"rows,omitempty"`
	Gap      string  `json:"gap,omitempty"`
	Width    float64 `json:"width,omitempty"` // container content width in px
}

// FlexRecord is one flex container observed at a given viewport.
type FlexRecord struct {
	Selector  string `json:"selector"`
	Direction string `json:"direction,omitempty"`
	Wrap      string `json:"wrap,omitempty"`
	Justify   string `json:"justify,omitempty"`
	Align     string `json:"align,omitempty"`
	Gap       string `json:"gap,omitempty"`
}

// VisibilityRecord is one element's visibility state at a given viewport.
type VisibilityRecord struct {
	Selector   string `json:"selector"`
	Display    string `json:"display,omitempty"`
	Visibility string `json:"visibility,omitempty"`
	Opacity    string `json:"opacity,omitempty"`
}

// ContainerRecord is one layout container's sizing at a given viewport.
type ContainerRecord struct {
	Selector string `json:"selector"`
	Width    string `json:"width,omitempty"`
	MaxWidth string `json:"max_width,omitempty"`
	Margin   string `json:"margin,omitempty"`
	Padding  string `json:"padding,omitempty"`
}

// ViewportLayout is the stored layout snapshot for one named viewport.
type ViewportLayout struct {
	Viewport         blueprint.ViewportInfo `json:"viewport"`
	GridLayouts      []GridRecord           `json:"grid_layouts,omitempty"`
	FlexLayouts      []FlexRecord           `json:"flex_layouts,omitempty"`
	VisibilityStates []VisibilityRecord     `json:"visibility_states,omitempty"`
	LayoutContainers []ContainerRecord      `json:"layout_containers,omitempty"`
}

// Bundle aggregates every evidence kind for one build call. Any field may be
// nil; the builder treats nil as "no evidence of that kind".
type Bundle struct {
	PageURL    string                     `json:"page_url,omitempty"`
	PageID     string                     `json:"page_id,omitempty"`
	PageHTML   string                     `json:"page_html,omitempty"` // raw HTML, used for the prompt content digest
	Structure  *Element                   `json:"structure,omitempty"`
	Components *ComponentReport           `json:"components,omitempty"`
	States     *StateCapture              `json:"states,omitempty"`
	A11y       *A11yNode                  `json:"a11y,omitempty"`
	Viewports  map[string]*ViewportLayout `json:"viewports,omitempty"`
	Sections   []SectionHint              `json:"sections,omitempty"`
	Tokens     *blueprint.TokenSet        `json:"tokens,omitempty"`
}

// SectionHint is a coarse page region detected on the capture side
// (landmark elements, large visual bands).
type SectionHint struct {
	Name string         `json:"name"`
	Role string         `json:"role,omitempty"`
	Rect blueprint.Rect `json:"rect"`
}
