package blueprint

import (
	"strings"
	"testing"
)

func sampleTree() *Node {
	return &Node{
		UID: 1, Tag: "body", Selector: "body",
		Children: []*Node{
			{UID: 2, Tag: "header", Selector: "header",
				Children: []*Node{
					{UID: 3, Tag: "button", Selector: "button.cta", Text: "Go"},
				},
			},
			{UID: 4, Tag: "main", Selector: "main"},
		},
	}
}

func TestNodeWalkPreOrder(t *testing.T) {
	var uids []int
	sampleTree().Walk(func(n *Node) { uids = append(uids, n.UID) })

	want := []int{1, 2, 3, 4}
	if len(uids) != len(want) {
		t.Fatalf("visited %v", uids)
	}
	for i, u := range want {
		if uids[i] != u {
			t.Fatalf("visit order %v, want %v", uids, want)
		}
	}
}

func TestNodeCountDepth(t *testing.T) {
	tree := sampleTree()
	if got := tree.Count(); got != 4 {
		t.Fatalf("count = %d, want 4", got)
	}
	if got := tree.Depth(); got != 3 {
		t.Fatalf("depth = %d, want 3", got)
	}

	var nilNode *Node
	if nilNode.Count() != 0 || nilNode.Depth() != 0 {
		t.Fatal("nil node should count 0 / depth 0")
	}
}

func TestNodeIndex(t *testing.T) {
	idx := sampleTree().Index()
	if len(idx) != 4 {
		t.Fatalf("index size = %d", len(idx))
	}
	if idx[3].Selector != "button.cta" {
		t.Fatalf("uid 3 = %+v", idx[3])
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 100, Height: 50}
	cx, cy := r.CenterX(), r.CenterY()
	if cx != 60 || cy != 35 {
		t.Fatalf("center = %v,%v", cx, cy)
	}
	// Tolerance extends the edges.
	if !r.Contains(8.5, 10, 2) {
		t.Fatal("point within tolerance rejected")
	}
	if r.Contains(7, 10, 2) {
		t.Fatal("point beyond tolerance accepted")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	bp := &Blueprint{
		ID:      "0198e1a2-test",
		PageURL: "https://example.com",
		Tree:    sampleTree(),
		Summary: Summary{Nodes: 4, MaxDepth: 3, Truncated: true},
		Interaction: &Plan{
			Targets: []*Target{
				{NodeUID: 3, Selector: "button.cta", Priority: Priority{Score: 80, Level: PriorityHigh}},
			},
			TargetLimitReached: true,
		},
	}

	data, err := Marshal(bp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != bp.ID || got.Summary.Nodes != 4 || !got.Summary.Truncated {
		t.Fatalf("summary lost: %+v", got.Summary)
	}
	if got.Tree.Children[0].Children[0].Text != "Go" {
		t.Fatal("tree structure lost")
	}
	if !got.Interaction.TargetLimitReached {
		t.Fatal("plan flag lost")
	}
}

func TestMarshalOmitsEmptyFlags(t *testing.T) {
	bp := &Blueprint{ID: "x", Tree: &Node{UID: 1, Tag: "body", Selector: "body"}}
	data, err := Marshal(bp)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if strings.Contains(s, "truncated") || strings.Contains(s, "target_limit_reached") {
		t.Fatalf("clean build must omit budget flags: %s", s)
	}
	if strings.Contains(s, `"children"`) {
		t.Fatalf("leaf node must omit children: %s", s)
	}
}
