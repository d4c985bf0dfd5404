package blueprint

// Priority levels for interaction targets.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Priority is the computed capture priority of a target.
type Priority struct {
	Score int    `json:"score"` // clamped to [0, 100]
	Level string `json:"level"` // low (<40), medium (<70), high (>=70)
}

// Target is a deduplicated interactive candidate. Exactly one target exists
// per key regardless of how many evidence sources nominate it; later
// observations only enrich, never replace, already-set scalar fields.
type Target struct {
	Key             string   `json:"key"` // node uid when bound, else selector
	NodeUID         int      `json:"node_uid,omitempty"`
	Selector        string   `json:"selector,omitempty"`
	Tag             string   `json:"tag,omitempty"`
	Text            string   `json:"text,omitempty"`
	Role            string   `json:"role,omitempty"`
	ComponentID     string   `json:"component_id,omitempty"`
	ComponentType   string   `json:"component_type,omitempty"`
	SectionID       string   `json:"section_id,omitempty"`
	SectionName     string   `json:"section_name,omitempty"`
	Rect            *Rect    `json:"rect,omitempty"`
	Sources         []string `json:"sources"` // provenance tags
	AvailableStates []string `json:"available_states,omitempty"`
	Priority        Priority `json:"priority"`
}

// Group aggregates targets sharing one key (component, section, type, role).
type Group struct {
	Key     string   `json:"key"`
	Count   int      `json:"count"`
	Samples []string `json:"samples,omitempty"` // bounded sample of member selectors
}

// Groupings holds every aggregation view over the target set.
type Groupings struct {
	ByComponent []Group `json:"by_component,omitempty"`
	BySection   []Group `json:"by_section,omitempty"`
	ByType      []Group `json:"by_type,omitempty"`
	ByRole      []Group `json:"by_role,omitempty"`
}

// StepKind distinguishes externally invoked tools from page-evaluable scripts.
type StepKind string

const (
	StepMCP    StepKind = "mcp"    // external tool invocation
	StepScript StepKind = "script" // page-evaluable function
)

// Step is one action in a capture checklist or workflow batch.
type Step struct {
	Kind     StepKind `json:"kind"`
	Action   string   `json:"action"` // snapshot, scroll_into_view, capture, hover, focus, click, screenshot, diff
	Selector string   `json:"selector,omitempty"`
	State    string   `json:"state,omitempty"` // for capture/diff steps: default, hover, focus, active
}

// Recommendation is one priority-ranked target with its action checklist.
type Recommendation struct {
	Selector string   `json:"selector"`
	NodeUID  int      `json:"node_uid,omitempty"`
	Priority Priority `json:"priority"`
	Reason   string   `json:"reason,omitempty"`
	Actions  []Step   `json:"actions"`
}

// ToolCall is one serialized call for sequential execution by an external agent.
type ToolCall struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// Workflow is the flattened executable form of the top recommendations.
type Workflow struct {
	Batch     []Step     `json:"batch"`
	ToolCalls []ToolCall `json:"tool_calls"`
}

// Plan is the full interaction/testing plan for one blueprint.
type Plan struct {
	Targets            []*Target        `json:"targets"`
	Groups             Groupings        `json:"groups"`
	Recommendations    []Recommendation `json:"recommendations,omitempty"`
	Workflow           *Workflow        `json:"workflow,omitempty"`
	TargetLimitReached bool             `json:"target_limit_reached,omitempty"`
}
