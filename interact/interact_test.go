package interact

import (
	"testing"

	"github.com/hazyhaar/calque/blueprint"
	"github.com/hazyhaar/calque/evidence"
)

func planTree() *blueprint.Node {
	return &blueprint.Node{
		UID: 1, Tag: "body", Rect: &blueprint.Rect{Width: 1440, Height: 900},
		Children: []*blueprint.Node{
			{
				UID: 2, Tag: "button", Selector: "button.cta", Text: "Sign up", Role: "button",
				Rect:      &blueprint.Rect{X: 1200, Y: 20, Width: 120, Height: 40},
				Component: &blueprint.ComponentRef{ID: "button-0", Type: "button"},
				State:     &blueprint.StateEvidence{Interactive: true, States: []string{"focus", "hover"}},
			},
			{
				UID: 3, Tag: "a", Selector: "a.nav", Text: "About", Role: "link",
				Rect: &blueprint.Rect{X: 40, Y: 20, Width: 60, Height: 20},
			},
			{
				UID: 4, Tag: "div", Selector: "div.copy", Text: "Plain paragraph text",
				Rect: &blueprint.Rect{X: 0, Y: 200, Width: 600, Height: 100},
			},
		},
	}
}

func TestPlanNominationAndPriority(t *testing.T) {
	p := NewPlanner(Options{}, nil, nil, nil)
	plan := p.Plan(planTree())

	if len(plan.Targets) != 2 {
		t.Fatalf("targets = %d, want 2 (plain div never nominated)", len(plan.Targets))
	}
	if plan.TargetLimitReached {
		t.Fatal("limit flag set without hitting the limit")
	}

	// The multi-state CTA button must outrank the bare nav link.
	if plan.Targets[0].NodeUID != 2 {
		t.Fatalf("top target uid = %d, want 2", plan.Targets[0].NodeUID)
	}
	if plan.Targets[0].Priority.Level != blueprint.PriorityHigh {
		t.Fatalf("button priority = %+v, want high", plan.Targets[0].Priority)
	}
	if plan.Targets[1].Priority.Score >= plan.Targets[0].Priority.Score {
		t.Fatalf("ranking inverted: %d >= %d",
			plan.Targets[1].Priority.Score, plan.Targets[0].Priority.Score)
	}
}

func TestPlanDedupAndSourceUnion(t *testing.T) {
	states := &evidence.StateIndex{
		BySelector: map[string]*evidence.StateRecord{
			"button.cta": {Selector: "button.cta", StateNames: []string{"active", "hover"}},
		},
		Selectors: []string{"button.cta", "input.search"},
		Commands:  []evidence.MCPCommand{{Command: "hover", Selector: "button.cta"}},
	}
	p := NewPlanner(Options{}, nil, states, nil)
	plan := p.Plan(planTree())

	var cta *blueprint.Target
	for _, tgt := range plan.Targets {
		if tgt.Selector == "button.cta" {
			if cta != nil {
				t.Fatal("duplicate target for button.cta")
			}
			cta = tgt
		}
	}
	if cta == nil {
		t.Fatal("missing button.cta target")
	}
	if cta.NodeUID != 2 {
		t.Fatalf("cta uid = %d, want the node-keyed target enriched", cta.NodeUID)
	}
	want := map[string]bool{SourceTree: true, SourceState: true, SourceCommand: true}
	if len(cta.Sources) != len(want) {
		t.Fatalf("sources = %v", cta.Sources)
	}
	for _, s := range cta.Sources {
		if !want[s] {
			t.Fatalf("unexpected source %q", s)
		}
	}
	// List fields union: tree pass gave focus+hover, state pass adds active.
	if len(cta.AvailableStates) != 3 {
		t.Fatalf("available states = %v, want union of 3", cta.AvailableStates)
	}

	// The selector-only nomination still lands as its own target.
	found := false
	for _, tgt := range plan.Targets {
		if tgt.Selector == "input.search" && tgt.NodeUID == 0 {
			found = true
		}
	}
	if !found {
		t.Fatal("selector-only target input.search missing")
	}
}

func TestStateOnlyNominationScoresMultiState(t *testing.T) {
	states := &evidence.StateIndex{
		BySelector: map[string]*evidence.StateRecord{
			"div.tooltip": {Selector: "div.tooltip", StateNames: []string{"hover"}},
		},
		Selectors: []string{"div.tooltip"},
	}
	p := NewPlanner(Options{}, nil, states, nil)
	plan := p.Plan(nil)

	if len(plan.Targets) != 1 {
		t.Fatalf("targets = %d, want 1", len(plan.Targets))
	}
	tgt := plan.Targets[0]
	// Captured state evidence earns the multi-state bonus even when the
	// element never appears in the tree scan: 10 base + 30 states + 20
	// explicit nomination.
	if tgt.Priority.Score != 60 {
		t.Fatalf("score = %d, want 60", tgt.Priority.Score)
	}
	if tgt.Priority.Level != blueprint.PriorityMedium {
		t.Fatalf("level = %q, want medium", tgt.Priority.Level)
	}
}

func TestPlanTargetLimit(t *testing.T) {
	root := &blueprint.Node{UID: 1, Tag: "body", Rect: &blueprint.Rect{Width: 800, Height: 600}}
	for i := 0; i < 10; i++ {
		root.Children = append(root.Children, &blueprint.Node{
			UID: i + 2, Tag: "button",
			Rect: &blueprint.Rect{Y: float64(i * 50), Width: 100, Height: 40},
		})
	}
	p := NewPlanner(Options{TargetLimit: 4}, nil, nil, nil)
	plan := p.Plan(root)

	if len(plan.Targets) != 4 {
		t.Fatalf("targets = %d, want 4", len(plan.Targets))
	}
	if !plan.TargetLimitReached {
		t.Fatal("expected target limit flag")
	}
}

func TestPlanSectionAttribution(t *testing.T) {
	sections := []*blueprint.Section{
		{ID: "header-0", Name: "header", Rect: blueprint.Rect{Width: 1440, Height: 80}},
	}
	p := NewPlanner(Options{}, sections, nil, nil)
	plan := p.Plan(planTree())

	for _, tgt := range plan.Targets {
		if tgt.NodeUID == 2 && tgt.SectionID != "header-0" {
			t.Fatalf("button section = %q, want header-0", tgt.SectionID)
		}
	}

	var bySection []blueprint.Group
	for _, g := range plan.Groups.BySection {
		bySection = append(bySection, g)
	}
	if len(bySection) != 1 || bySection[0].Key != "header-0" || bySection[0].Count != 2 {
		t.Fatalf("section groups = %+v", bySection)
	}
}

func TestChecklistRoleConditioning(t *testing.T) {
	btn := &blueprint.Target{Selector: "button.cta", Tag: "button", Role: "button",
		ComponentType: "button"}
	steps := checklist(btn)

	actions := make(map[string]int)
	for _, s := range steps {
		actions[s.Action]++
	}
	if actions[actionSnapshot] != 1 || actions[actionScrollInto] != 1 || actions[actionScreenshot] != 1 {
		t.Fatalf("fixed steps = %+v", actions)
	}
	if actions[actionHover] != 1 || actions[actionFocus] != 1 || actions[actionClick] != 1 {
		t.Fatalf("button probes = %+v, want hover+focus+click", actions)
	}
	// default + hover + focus + active captures
	if actions[actionCapture] != 4 {
		t.Fatalf("captures = %d, want 4", actions[actionCapture])
	}

	div := &blueprint.Target{Selector: "div.widget", Tag: "div"}
	actions = make(map[string]int)
	for _, s := range checklist(div) {
		actions[s.Action]++
	}
	if actions[actionHover] != 0 || actions[actionFocus] != 0 || actions[actionClick] != 0 {
		t.Fatalf("bare div probes = %+v, want none", actions)
	}
}

func TestWorkflowStripsClicksAndScreenshots(t *testing.T) {
	p := NewPlanner(Options{}, nil, nil, nil)
	plan := p.Plan(planTree())

	if plan.Workflow == nil || len(plan.Workflow.Batch) == 0 {
		t.Fatal("missing workflow")
	}
	if len(plan.Workflow.Batch) != len(plan.Workflow.ToolCalls) {
		t.Fatalf("batch/toolcalls mismatch: %d vs %d",
			len(plan.Workflow.Batch), len(plan.Workflow.ToolCalls))
	}
	for _, step := range plan.Workflow.Batch {
		if step.Action == actionClick || step.Action == actionScreenshot {
			t.Fatalf("mutating step %q leaked into the workflow", step.Action)
		}
	}
}

func TestToolCallMapping(t *testing.T) {
	tc := toolCall(blueprint.Step{Kind: blueprint.StepMCP, Action: actionHover, Selector: "a.nav"})
	if tc.Tool != "browser_hover" || tc.Args["selector"] != "a.nav" {
		t.Fatalf("mcp tool call = %+v", tc)
	}

	tc = toolCall(blueprint.Step{Kind: blueprint.StepMCP, Action: actionSnapshot})
	if tc.Tool != "browser_snapshot" || tc.Args != nil {
		t.Fatalf("argless mcp call = %+v", tc)
	}

	tc = toolCall(blueprint.Step{Kind: blueprint.StepScript, Action: actionCapture,
		Selector: "a.nav", State: "hover"})
	if tc.Tool != "page_evaluate" {
		t.Fatalf("script tool = %q", tc.Tool)
	}
	if tc.Args["function"] != actionCapture || tc.Args["state"] != "hover" {
		t.Fatalf("script args = %+v", tc.Args)
	}
}

func TestRecommendationCap(t *testing.T) {
	root := &blueprint.Node{UID: 1, Tag: "body", Rect: &blueprint.Rect{Width: 800, Height: 600}}
	for i := 0; i < 6; i++ {
		root.Children = append(root.Children, &blueprint.Node{
			UID: i + 2, Tag: "button",
			Rect: &blueprint.Rect{Y: float64(i * 50), Width: 100, Height: 40},
		})
	}
	p := NewPlanner(Options{RecommendationCap: 3, WorkflowTop: 2}, nil, nil, nil)
	plan := p.Plan(root)

	if len(plan.Recommendations) != 3 {
		t.Fatalf("recommendations = %d, want 3", len(plan.Recommendations))
	}
	for _, rec := range plan.Recommendations {
		if rec.Reason == "" || len(rec.Actions) == 0 {
			t.Fatalf("incomplete recommendation: %+v", rec)
		}
	}
}
