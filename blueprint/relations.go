package blueprint

// Axis is the inferred flow direction of a container's children.
type Axis string

const (
	AxisHorizontal Axis = "horizontal"
	AxisVertical   Axis = "vertical"
	AxisGrid       Axis = "grid"
)

// Ordering is the visual order of a parent's children along the flow axis.
type Ordering struct {
	Axis Axis  `json:"axis"`
	UIDs []int `json:"uids"`
}

// AlignmentGroup is one cluster of siblings sharing an axis position.
type AlignmentGroup struct {
	Axis     string  `json:"axis"`     // "x" or "y"
	Position string  `json:"position"` // left/center/right or top/middle/bottom
	Mean     float64 `json:"mean"`
	UIDs     []int   `json:"uids"`
}

// FlexGroup records a flex container and its member children verbatim.
type FlexGroup struct {
	Direction string `json:"direction,omitempty"`
	Justify   string `json:"justify,omitempty"`
	Align     string `json:"align,omitempty"`
	Wrap      string `json:"wrap,omitempty"`
	Gap       string `json:"gap,omitempty"`
	UIDs      []int  `json:"uids"`
}

// GridGroup records a grid container and its member children verbatim.
type GridGroup struct {
	Columns string `json:"columns,omitempty"`
	Rows    string `json:"rows,omitempty"`
	Gap     string `json:"gap,omitempty"`
	UIDs    []int  `json:"uids"`
}

// NodeRelations holds every structural relationship inferred for one parent.
type NodeRelations struct {
	Order      *Ordering        `json:"order,omitempty"`
	Alignments []AlignmentGroup `json:"alignments,omitempty"`
	Flex       *FlexGroup       `json:"flex,omitempty"`
	Grid       *GridGroup       `json:"grid,omitempty"`
	Overlays   []int            `json:"overlays,omitempty"` // absolute/fixed children
}
