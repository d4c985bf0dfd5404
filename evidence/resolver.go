package evidence

import (
	"fmt"
	"strings"
)

// Resolver resolves a CSS selector to a structure element. It is a
// capability injected into index building and the tree builder, so the core
// is testable with a fake and lookup failures are explicit misses rather
// than caught exceptions.
type Resolver interface {
	FindBySelector(selector string) (*Element, bool)
}

// TreeResolver resolves selectors against a structure evidence tree.
// It supports the selector grammar the capture side emits: "#id", "tag",
// ".class", "tag.class" and elements' own precomputed selectors. Anything
// else is a miss, never an error.
type TreeResolver struct {
	byID       map[string]*Element
	bySelector map[string]*Element
	preorder   []*Element
}

// NewTreeResolver indexes the tree once. Later queries are O(1) for ID and
// effective-selector lookups, O(n) for class/tag scans.
func NewTreeResolver(root *Element) *TreeResolver {
	r := &TreeResolver{
		byID:       make(map[string]*Element),
		bySelector: make(map[string]*Element),
	}
	root.Walk(func(e *Element) {
		r.preorder = append(r.preorder, e)
		if e.ID != "" {
			if _, taken := r.byID[e.ID]; !taken {
				r.byID[e.ID] = e
			}
		}
		sel := EffectiveSelector(e)
		if sel != "" {
			if _, taken := r.bySelector[sel]; !taken {
				r.bySelector[sel] = e
			}
		}
	})
	return r
}

// FindBySelector implements Resolver.
func (r *TreeResolver) FindBySelector(selector string) (*Element, bool) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, false
	}

	if e, ok := r.bySelector[selector]; ok {
		return e, true
	}
	if strings.HasPrefix(selector, "#") && !strings.ContainsAny(selector, " .>") {
		e, ok := r.byID[selector[1:]]
		return e, ok
	}

	// Simple "tag.class1.class2", ".class" or "tag" scan; compound and
	// descendant selectors beyond that grammar are silent misses.
	if strings.ContainsAny(selector, " >[:") {
		return nil, false
	}
	parts := strings.Split(selector, ".")
	tag := parts[0]
	classes := parts[1:]
	for _, e := range r.preorder {
		if tag != "" && !strings.EqualFold(e.Tag, tag) {
			continue
		}
		if !hasClasses(e, classes) {
			continue
		}
		return e, true
	}
	return nil, false
}

func hasClasses(e *Element, classes []string) bool {
	for _, want := range classes {
		found := false
		for _, have := range e.Classes {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// EffectiveSelector returns the element's selector: the precomputed one when
// present, else "#id", else "tag.firstclass", else the bare tag.
func EffectiveSelector(e *Element) string {
	if e.Selector != "" {
		return e.Selector
	}
	if e.ID != "" {
		return "#" + e.ID
	}
	if len(e.Classes) > 0 {
		return fmt.Sprintf("%s.%s", strings.ToLower(e.Tag), e.Classes[0])
	}
	return strings.ToLower(e.Tag)
}
