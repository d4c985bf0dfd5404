package evidence

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hazyhaar/calque/blueprint"
)

// ComponentRecord is one indexed component detection with its assigned ID.
type ComponentRecord struct {
	ID        string
	Type      string
	Detection ComponentDetection
}

// ComponentIndex maps component evidence by selector and element identity.
// Read-only once built; queried identity-first, selector fallback.
type ComponentIndex struct {
	BySelector map[string][]*ComponentRecord
	ByElement  map[*Element]*ComponentRecord
	Records    []*ComponentRecord // stable order: type name, then detection order
}

// BuildComponentIndex indexes a component report. The element index is
// best-effort: selectors the resolver cannot place are silently skipped
// there but still reachable through the selector index.
func BuildComponentIndex(rep *ComponentReport, res Resolver) *ComponentIndex {
	idx := &ComponentIndex{
		BySelector: make(map[string][]*ComponentRecord),
		ByElement:  make(map[*Element]*ComponentRecord),
	}
	if rep == nil || len(rep.Components) == 0 {
		return idx
	}

	types := make([]string, 0, len(rep.Components))
	for t := range rep.Components {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, typ := range types {
		for i, det := range rep.Components[typ] {
			rec := &ComponentRecord{
				ID:        fmt.Sprintf("%s-%d", typ, i),
				Type:      typ,
				Detection: det,
			}
			idx.Records = append(idx.Records, rec)
			idx.BySelector[det.Selector] = append(idx.BySelector[det.Selector], rec)
			if res != nil {
				if e, ok := res.FindBySelector(det.Selector); ok {
					if _, taken := idx.ByElement[e]; !taken {
						idx.ByElement[e] = rec
					}
				}
			}
		}
	}
	return idx
}

// Lookup returns the component record for an element: identity first,
// selector fallback (first record under that selector).
func (idx *ComponentIndex) Lookup(e *Element, selector string) *ComponentRecord {
	if idx == nil {
		return nil
	}
	if e != nil {
		if rec, ok := idx.ByElement[e]; ok {
			return rec
		}
	}
	if recs := idx.BySelector[selector]; len(recs) > 0 {
		return recs[0]
	}
	return nil
}

// StateRecord is the indexed interaction-state evidence for one selector.
type StateRecord struct {
	Selector   string
	Summary    string
	StateNames []string // captured non-default, non-pseudo state names
	Matrix     map[string]map[string]string
	Pseudo     []blueprint.PseudoStyle
}

// Interactive reports whether the record shows multi-state interactivity.
func (r *StateRecord) Interactive() bool {
	return r != nil && len(r.StateNames) > 0
}

// StateIndex maps captured-state evidence by selector and element identity,
// and carries the explicit nomination lists for the interaction planner.
type StateIndex struct {
	BySelector map[string]*StateRecord
	ByElement  map[*Element]*StateRecord
	Selectors  []string
	Commands   []MCPCommand
}

// BuildStateIndex indexes a state-capture bundle. Pseudo-element evidence is
// surfaced only when the matrix carries an explicit `content` that is not
// "none" for ::before/::after.
func BuildStateIndex(sc *StateCapture, res Resolver) *StateIndex {
	idx := &StateIndex{
		BySelector: make(map[string]*StateRecord),
		ByElement:  make(map[*Element]*StateRecord),
	}
	if sc == nil {
		return idx
	}
	idx.Selectors = sc.Selectors
	idx.Commands = sc.MCPCommands

	record := func(sel string) *StateRecord {
		rec, ok := idx.BySelector[sel]
		if !ok {
			rec = &StateRecord{Selector: sel}
			idx.BySelector[sel] = rec
			if res != nil {
				if e, found := res.FindBySelector(sel); found {
					if _, taken := idx.ByElement[e]; !taken {
						idx.ByElement[e] = rec
					}
				}
			}
		}
		return rec
	}

	for sel, summary := range sc.Summaries {
		record(sel).Summary = summary
	}

	if sc.Captured != nil {
		for sel, es := range sc.Captured.States {
			rec := record(sel)
			rec.Matrix = es.States

			names := make([]string, 0, len(es.States))
			for name, style := range es.States {
				switch name {
				case "default":
					// baseline, not an interactive state
				case "::before", "::after":
					if p := pseudoEvidence(name, style); p != nil {
						rec.Pseudo = append(rec.Pseudo, *p)
					}
				default:
					names = append(names, name)
				}
			}
			sort.Strings(names)
			rec.StateNames = names
			sort.Slice(rec.Pseudo, func(i, j int) bool {
				return rec.Pseudo[i].Pseudo < rec.Pseudo[j].Pseudo
			})
		}
	}

	return idx
}

// pseudoEvidence converts one matrix row into pseudo-element evidence, or
// nil when content is absent or "none".
func pseudoEvidence(state string, style map[string]string) *blueprint.PseudoStyle {
	content, ok := style["content"]
	if !ok {
		return nil
	}
	trimmed := strings.Trim(strings.TrimSpace(content), `"'`)
	if trimmed == "none" || content == "none" {
		return nil
	}
	rest := make(map[string]string, len(style)-1)
	for k, v := range style {
		if k != "content" {
			rest[k] = v
		}
	}
	if len(rest) == 0 {
		rest = nil
	}
	return &blueprint.PseudoStyle{
		Pseudo:  strings.TrimPrefix(state, "::"),
		Content: content,
		Style:   rest,
	}
}

// Lookup returns the state record for an element: identity first, selector
// fallback.
func (idx *StateIndex) Lookup(e *Element, selector string) *StateRecord {
	if idx == nil {
		return nil
	}
	if e != nil {
		if rec, ok := idx.ByElement[e]; ok {
			return rec
		}
	}
	return idx.BySelector[selector]
}

// A11yRecord is the indexed accessibility evidence for one selector.
type A11yRecord struct {
	Selector string
	Role     string
	Name     string
	States   []string
}

// A11yIndex maps accessibility-tree evidence by selector and element identity.
type A11yIndex struct {
	BySelector map[string]*A11yRecord
	ByElement  map[*Element]*A11yRecord
}

// BuildA11yIndex flattens the accessibility tree into selector/identity
// lookups. Nodes without a selector contribute nothing.
func BuildA11yIndex(root *A11yNode, res Resolver) *A11yIndex {
	idx := &A11yIndex{
		BySelector: make(map[string]*A11yRecord),
		ByElement:  make(map[*Element]*A11yRecord),
	}
	if root == nil {
		return idx
	}
	root.Walk(func(n *A11yNode) {
		if n.Selector == "" {
			return
		}
		if _, taken := idx.BySelector[n.Selector]; taken {
			return
		}
		rec := &A11yRecord{
			Selector: n.Selector,
			Role:     n.Role,
			Name:     n.Name,
			States:   n.States,
		}
		idx.BySelector[n.Selector] = rec
		if res != nil {
			if e, ok := res.FindBySelector(n.Selector); ok {
				if _, taken := idx.ByElement[e]; !taken {
					idx.ByElement[e] = rec
				}
			}
		}
	})
	return idx
}

// Lookup returns the accessibility record for an element: identity first,
// selector fallback.
func (idx *A11yIndex) Lookup(e *Element, selector string) *A11yRecord {
	if idx == nil {
		return nil
	}
	if e != nil {
		if rec, ok := idx.ByElement[e]; ok {
			return rec
		}
	}
	return idx.BySelector[selector]
}
