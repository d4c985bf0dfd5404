// Package interact builds the deduplicated, priority-ranked interaction plan
// for a blueprint: which elements are worth driving, in what order, and the
// executable workflow to capture their states.
package interact

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/hazyhaar/calque/blueprint"
	"github.com/hazyhaar/calque/evidence"
)

// Source provenance tags, in nomination precedence order.
const (
	SourceTree    = "tree"          // full-tree interactive scan
	SourceState   = "state-capture" // explicit selector list from captured states
	SourceCommand = "mcp-command"   // external workflow generator
)

// Options tunes the planner.
type Options struct {
	TargetLimit       int     `yaml:"target_limit" json:"target_limit,omitempty"`
	ViewportHeight    float64 `yaml:"viewport_height" json:"viewport_height,omitempty"`
	GroupSampleCap    int     `yaml:"group_sample_cap" json:"group_sample_cap,omitempty"`
	RecommendationCap int     `yaml:"recommendation_cap" json:"recommendation_cap,omitempty"`
	WorkflowTop       int     `yaml:"workflow_top" json:"workflow_top,omitempty"`
}

func (o *Options) defaults() {
	if o.TargetLimit <= 0 {
		o.TargetLimit = 50
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = 900
	}
	if o.GroupSampleCap <= 0 {
		o.GroupSampleCap = 6
	}
	if o.RecommendationCap <= 0 {
		o.RecommendationCap = 8
	}
	if o.WorkflowTop <= 0 {
		o.WorkflowTop = 5
	}
}

// Planner accumulates interaction targets across nomination passes.
type Planner struct {
	opts     Options
	targets  map[string]*blueprint.Target
	order    []string // insertion order, for stable output
	limitHit bool

	sections []*blueprint.Section
	states   *evidence.StateIndex
	logger   *slog.Logger
}

// NewPlanner creates a Planner. sections and states may be nil.
func NewPlanner(opts Options, sections []*blueprint.Section, states *evidence.StateIndex, logger *slog.Logger) *Planner {
	opts.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		opts:     opts,
		targets:  make(map[string]*blueprint.Target),
		sections: sections,
		states:   states,
		logger:   logger,
	}
}

// Plan runs the nomination passes in fixed precedence (tree scan, explicit
// state selectors, external commands), scores and ranks the accumulated
// targets, and packages groups, recommendations and the workflow.
func (p *Planner) Plan(tree *blueprint.Node) *blueprint.Plan {
	p.scanTree(tree)
	p.addStateSelectors()
	p.addCommands()

	targets := make([]*blueprint.Target, 0, len(p.order))
	for _, key := range p.order {
		t := p.targets[key]
		t.Priority = p.score(t)
		targets = append(targets, t)
	}
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].Priority.Score > targets[j].Priority.Score
	})

	plan := &blueprint.Plan{
		Targets:            targets,
		Groups:             p.group(targets),
		TargetLimitReached: p.limitHit,
	}
	plan.Recommendations = p.recommend(targets)
	plan.Workflow = p.workflow(plan.Recommendations)
	return plan
}

// scanTree nominates nodes whose evidence marks them interactive or whose
// role/tag/component type is in the interactive allow-list.
func (p *Planner) scanTree(tree *blueprint.Node) {
	if tree == nil {
		return
	}
	tree.Walk(func(n *blueprint.Node) {
		if !nominable(n) {
			return
		}
		t := &blueprint.Target{
			NodeUID:  n.UID,
			Selector: n.Selector,
			Tag:      n.Tag,
			Text:     n.Text,
			Role:     n.Role,
			Rect:     n.Rect,
		}
		if n.Component != nil {
			t.ComponentID = n.Component.ID
			t.ComponentType = n.Component.Type
		}
		if n.State != nil {
			t.AvailableStates = n.State.States
		}
		if sec := p.sectionOf(n.Rect); sec != nil {
			t.SectionID = sec.ID
			t.SectionName = sec.Name
		}
		p.add(targetKey(n.UID, n.Selector), t, SourceTree)
	})
}

// addStateSelectors nominates the explicit selector list captured with the
// state evidence.
func (p *Planner) addStateSelectors() {
	if p.states == nil {
		return
	}
	for _, sel := range p.states.Selectors {
		if sel == "" {
			continue
		}
		t := &blueprint.Target{Selector: sel}
		if rec := p.states.BySelector[sel]; rec != nil {
			t.AvailableStates = rec.StateNames
		}
		p.add(p.keyForSelector(sel), t, SourceState)
	}
}

// addCommands nominates selectors named by the external command list.
func (p *Planner) addCommands() {
	if p.states == nil {
		return
	}
	for _, cmd := range p.states.Commands {
		if cmd.Selector == "" {
			continue
		}
		p.add(p.keyForSelector(cmd.Selector), &blueprint.Target{Selector: cmd.Selector}, SourceCommand)
	}
}

// keyForSelector reuses an existing node-keyed target when one already
// carries this selector, so later passes enrich instead of duplicating.
func (p *Planner) keyForSelector(sel string) string {
	for _, key := range p.order {
		if p.targets[key].Selector == sel {
			return key
		}
	}
	return sel
}

func targetKey(uid int, selector string) string {
	if uid > 0 {
		return strconv.Itoa(uid)
	}
	return selector
}

// add inserts or enriches a target. Existing scalar fields are never
// overwritten: later observations only fill gaps and union list fields.
func (p *Planner) add(key string, t *blueprint.Target, source string) {
	if key == "" {
		return
	}
	existing, ok := p.targets[key]
	if !ok {
		if len(p.targets) >= p.opts.TargetLimit {
			p.limitHit = true
			return
		}
		t.Key = key
		t.Sources = []string{source}
		p.targets[key] = t
		p.order = append(p.order, key)
		return
	}

	existing.Sources = union(existing.Sources, source)
	existing.AvailableStates = unionAll(existing.AvailableStates, t.AvailableStates)
	if existing.NodeUID == 0 {
		existing.NodeUID = t.NodeUID
	}
	if existing.Selector == "" {
		existing.Selector = t.Selector
	}
	if existing.Tag == "" {
		existing.Tag = t.Tag
	}
	if existing.Text == "" {
		existing.Text = t.Text
	}
	if existing.Role == "" {
		existing.Role = t.Role
	}
	if existing.ComponentID == "" {
		existing.ComponentID = t.ComponentID
	}
	if existing.ComponentType == "" {
		existing.ComponentType = t.ComponentType
	}
	if existing.SectionID == "" {
		existing.SectionID = t.SectionID
		existing.SectionName = t.SectionName
	}
	if existing.Rect == nil {
		existing.Rect = t.Rect
	}
}

func (p *Planner) sectionOf(r *blueprint.Rect) *blueprint.Section {
	if r == nil {
		return nil
	}
	cx, cy := r.CenterX(), r.CenterY()
	for _, s := range p.sections {
		if s.Rect.Contains(cx, cy, 2) {
			return s
		}
	}
	return nil
}

func union(list []string, v string) []string {
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}

func unionAll(list []string, add []string) []string {
	for _, v := range add {
		list = union(list, v)
	}
	return list
}

// interactiveRoles is the fixed role allow-list for tree nomination.
var interactiveRoles = map[string]bool{
	"button": true, "link": true, "textbox": true, "searchbox": true,
	"checkbox": true, "radio": true, "combobox": true, "slider": true,
	"switch": true, "tab": true, "menuitem": true,
}

// interactiveTags is the fixed tag allow-list for tree nomination.
var interactiveTags = map[string]bool{
	"a": true, "button": true, "input": true, "select": true,
	"textarea": true, "summary": true,
}

func nominable(n *blueprint.Node) bool {
	if n.State != nil && (n.State.Interactive || len(n.State.States) > 0) {
		return true
	}
	if interactiveRoles[n.Role] || interactiveTags[n.Tag] {
		return true
	}
	if n.Component != nil && (buttonLikeTypes[n.Component.Type] || navLikeTypes[n.Component.Type]) {
		return true
	}
	return false
}
