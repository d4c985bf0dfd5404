package builder

import (
	"time"

	"github.com/hazyhaar/calque/blueprint"
	"github.com/hazyhaar/calque/idgen"
)

// AssembleParams carries the phase outputs into the final composition.
type AssembleParams struct {
	PageURL   string
	PageID    string
	Tree      *blueprint.Node
	Truncated bool

	Sections      []*blueprint.Section
	Components    []*blueprint.Component
	Relationships map[int]*blueprint.NodeRelations
	Plan          *blueprint.Plan
	Responsive    *blueprint.Responsive
	Tokens        *blueprint.TokenSet
}

// Assemble composes the phase outputs into one Blueprint. The blueprint
// exclusively owns every sub-structure; nothing here keeps a handle on the
// evidence or the capture environment.
func Assemble(p AssembleParams) *blueprint.Blueprint {
	bp := &blueprint.Blueprint{
		ID:            idgen.New(),
		PageURL:       p.PageURL,
		PageID:        p.PageID,
		CapturedAt:    time.Now().UnixMilli(),
		Tree:          p.Tree,
		Sections:      p.Sections,
		Components:    p.Components,
		Relationships: p.Relationships,
		Interaction:   p.Plan,
		Responsive:    p.Responsive,
		Tokens:        p.Tokens,
	}

	bp.Summary = blueprint.Summary{
		Nodes:      p.Tree.Count(),
		MaxDepth:   p.Tree.Depth(),
		Components: len(p.Components),
		Sections:   len(p.Sections),
		Truncated:  p.Truncated,
	}
	if p.Plan != nil {
		bp.Summary.Targets = len(p.Plan.Targets)
		bp.Summary.TargetLimitReached = p.Plan.TargetLimitReached
	}
	return bp
}
