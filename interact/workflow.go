package interact

import (
	"fmt"

	"github.com/hazyhaar/calque/blueprint"
)

// Checklist action names.
const (
	actionSnapshot   = "snapshot"
	actionScrollInto = "scroll_into_view"
	actionCapture    = "capture"
	actionHover      = "hover"
	actionFocus      = "focus"
	actionClick      = "click"
	actionScreenshot = "screenshot"
	actionDiff       = "diff"
)

// recommend takes the globally priority-sorted targets (already sorted by
// the caller), caps them, and attaches the role-conditioned action checklist.
func (p *Planner) recommend(targets []*blueprint.Target) []blueprint.Recommendation {
	limit := p.opts.RecommendationCap
	if len(targets) < limit {
		limit = len(targets)
	}
	recs := make([]blueprint.Recommendation, 0, limit)
	for _, t := range targets[:limit] {
		recs = append(recs, blueprint.Recommendation{
			Selector: t.Selector,
			NodeUID:  t.NodeUID,
			Priority: t.Priority,
			Reason:   reasonFor(t),
			Actions:  checklist(t),
		})
	}
	return recs
}

func reasonFor(t *blueprint.Target) string {
	switch {
	case len(t.AvailableStates) > 0:
		return fmt.Sprintf("captured states: %v", t.AvailableStates)
	case buttonLikeTypes[t.ComponentType]:
		return "button-like component"
	case t.Role != "":
		return "role " + t.Role
	default:
		return "interactive tag <" + t.Tag + ">"
	}
}

// checklist is the fixed capture sequence: snapshot → scroll-into-view →
// capture-default → optional hover/focus/click probes → screenshot. The
// optional probes are conditioned on what the target can plausibly do.
func checklist(t *blueprint.Target) []blueprint.Step {
	sel := t.Selector
	steps := []blueprint.Step{
		{Kind: blueprint.StepMCP, Action: actionSnapshot},
		{Kind: blueprint.StepScript, Action: actionScrollInto, Selector: sel},
		{Kind: blueprint.StepScript, Action: actionCapture, Selector: sel, State: "default"},
	}
	if hoverCapable(t) {
		steps = append(steps,
			blueprint.Step{Kind: blueprint.StepMCP, Action: actionHover, Selector: sel},
			blueprint.Step{Kind: blueprint.StepScript, Action: actionCapture, Selector: sel, State: "hover"},
			blueprint.Step{Kind: blueprint.StepScript, Action: actionDiff, Selector: sel, State: "hover"},
		)
	}
	if focusCapable(t) {
		steps = append(steps,
			blueprint.Step{Kind: blueprint.StepScript, Action: actionFocus, Selector: sel},
			blueprint.Step{Kind: blueprint.StepScript, Action: actionCapture, Selector: sel, State: "focus"},
			blueprint.Step{Kind: blueprint.StepScript, Action: actionDiff, Selector: sel, State: "focus"},
		)
	}
	if clickCapable(t) {
		steps = append(steps,
			blueprint.Step{Kind: blueprint.StepMCP, Action: actionClick, Selector: sel},
			blueprint.Step{Kind: blueprint.StepScript, Action: actionCapture, Selector: sel, State: "active"},
			blueprint.Step{Kind: blueprint.StepScript, Action: actionDiff, Selector: sel, State: "active"},
		)
	}
	steps = append(steps, blueprint.Step{Kind: blueprint.StepMCP, Action: actionScreenshot, Selector: sel})
	return steps
}

func hasState(t *blueprint.Target, state string) bool {
	for _, s := range t.AvailableStates {
		if s == state {
			return true
		}
	}
	return false
}

func hoverCapable(t *blueprint.Target) bool {
	return hasState(t, "hover") ||
		buttonLikeTypes[t.ComponentType] || navLikeTypes[t.ComponentType] ||
		t.Role == "button" || t.Role == "link"
}

var focusableTags = map[string]bool{
	"a": true, "button": true, "input": true, "select": true, "textarea": true,
}

func focusCapable(t *blueprint.Target) bool {
	return hasState(t, "focus") || focusableTags[t.Tag] ||
		t.Role == "textbox" || t.Role == "searchbox" || t.Role == "combobox"
}

func clickCapable(t *blueprint.Target) bool {
	switch t.Role {
	case "button", "link", "tab", "checkbox", "radio", "switch", "menuitem":
		return true
	}
	return t.Tag == "a" || t.Tag == "button" || buttonLikeTypes[t.ComponentType]
}

// workflow flattens the top recommendations into one ordered batch with
// click and screenshot steps stripped (the workflow must not mutate page
// state or burn capture budget), plus the serialized tool-call list for
// sequential execution by an external agent.
func (p *Planner) workflow(recs []blueprint.Recommendation) *blueprint.Workflow {
	if len(recs) == 0 {
		return nil
	}
	top := p.opts.WorkflowTop
	if len(recs) < top {
		top = len(recs)
	}

	wf := &blueprint.Workflow{}
	for _, rec := range recs[:top] {
		for _, step := range rec.Actions {
			if step.Action == actionClick || step.Action == actionScreenshot {
				continue
			}
			wf.Batch = append(wf.Batch, step)
			wf.ToolCalls = append(wf.ToolCalls, toolCall(step))
		}
	}
	return wf
}

// toolCall serializes one step: MCP steps name a browser tool directly,
// script steps wrap a page-evaluable function behind page_evaluate.
func toolCall(step blueprint.Step) blueprint.ToolCall {
	if step.Kind == blueprint.StepMCP {
		args := map[string]any{}
		if step.Selector != "" {
			args["selector"] = step.Selector
		}
		if len(args) == 0 {
			args = nil
		}
		return blueprint.ToolCall{Tool: "browser_" + step.Action, Args: args}
	}
	args := map[string]any{"function": step.Action}
	if step.Selector != "" {
		args["selector"] = step.Selector
	}
	if step.State != "" {
		args["state"] = step.State
	}
	return blueprint.ToolCall{Tool: "page_evaluate", Args: args}
}
