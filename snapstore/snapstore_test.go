package snapstore

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/calque/blueprint"
	"github.com/hazyhaar/calque/dbopen"
	"github.com/hazyhaar/calque/evidence"
	"github.com/hazyhaar/calque/idgen"
	_ "modernc.org/sqlite"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	return &Store{DB: db}
}

func TestUpsertPageReusesRow(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id1, err := s.UpsertPage(ctx, "https://example.com", "Example")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	id2, err := s.UpsertPage(ctx, "https://example.com", "Example v2")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("page id changed on re-upsert: %s vs %s", id1, id2)
	}

	p, err := s.GetPage(ctx, id1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Title != "Example v2" {
		t.Fatalf("title = %q, want %q", p.Title, "Example v2")
	}
}

func TestViewportRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	pageID, err := s.UpsertPage(ctx, "https://example.com", "")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	vl := &evidence.ViewportLayout{
		Viewport: blueprint.ViewportInfo{Name: "mobile", Width: 375, Height: 812},
		VisibilityStates: []evidence.VisibilityRecord{
			{Selector: ".menu", Display: "none"},
		},
	}
	if err := s.SaveViewport(ctx, pageID, "mobile", vl); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Overwrite under the same name.
	vl.Viewport.Height = 800
	if err := s.SaveViewport(ctx, pageID, "mobile", vl); err != nil {
		t.Fatalf("resave: %v", err)
	}

	got, err := s.LoadViewports(ctx, pageID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d viewports, want 1", len(got))
	}
	m := got["mobile"]
	if m == nil || m.Viewport.Height != 800 {
		t.Fatalf("viewport not replaced: %+v", m)
	}
	if len(m.VisibilityStates) != 1 || m.VisibilityStates[0].Selector != ".menu" {
		t.Fatalf("visibility states lost: %+v", m.VisibilityStates)
	}

	if err := s.DeleteViewport(ctx, pageID, "mobile"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = s.LoadViewports(ctx, pageID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("viewport survived delete: %+v", got)
	}
}

func TestBlueprintRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	pageID, err := s.UpsertPage(ctx, "https://example.com", "")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	bp := &blueprint.Blueprint{
		ID:      idgen.New(),
		PageURL: "https://example.com",
		Summary: blueprint.Summary{Nodes: 3, MaxDepth: 2},
	}
	if err := s.SaveBlueprint(ctx, pageID, bp); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetBlueprint(ctx, bp.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != bp.ID || got.Summary.Nodes != 3 {
		t.Fatalf("round trip mismatch: %+v", got.Summary)
	}

	latest, err := s.LatestBlueprint(ctx, pageID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != bp.ID {
		t.Fatalf("latest id = %s, want %s", latest.ID, bp.ID)
	}

	metas, err := s.ListBlueprints(ctx, pageID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(metas) != 1 || metas[0].NodeCount != 3 {
		t.Fatalf("metas = %+v", metas)
	}

	if _, err := s.GetBlueprint(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing blueprint err = %v, want ErrNotFound", err)
	}
}
