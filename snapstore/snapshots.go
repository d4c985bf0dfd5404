package snapstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hazyhaar/calque/evidence"
)

// SaveViewport stores one named viewport layout snapshot for a page,
// replacing any previous snapshot under the same name.
func (s *Store) SaveViewport(ctx context.Context, pageID, name string, layout *evidence.ViewportLayout) error {
	payload, err := json.Marshal(layout)
	if err != nil {
		return fmt.Errorf("snapstore: encode layout: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO viewport_snapshots (page_id, name, width, height, layout, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (page_id, name) DO UPDATE SET
			width = excluded.width,
			height = excluded.height,
			layout = excluded.layout,
			created_at = excluded.created_at`,
		pageID, name, layout.Viewport.Width, layout.Viewport.Height, string(payload), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("snapstore: save viewport %q: %w", name, err)
	}
	return nil
}

// LoadViewports loads all viewport snapshots for a page, keyed by name.
func (s *Store) LoadViewports(ctx context.Context, pageID string) (map[string]*evidence.ViewportLayout, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT name, layout FROM viewport_snapshots WHERE page_id = ?`, pageID)
	if err != nil {
		return nil, fmt.Errorf("snapstore: load viewports: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*evidence.ViewportLayout)
	for rows.Next() {
		var name, payload string
		if err := rows.Scan(&name, &payload); err != nil {
			return nil, fmt.Errorf("snapstore: scan viewport: %w", err)
		}
		var vl evidence.ViewportLayout
		if err := json.Unmarshal([]byte(payload), &vl); err != nil {
			return nil, fmt.Errorf("snapstore: decode viewport %q: %w", name, err)
		}
		out[name] = &vl
	}
	return out, rows.Err()
}

// DeleteViewport removes one named snapshot. Missing rows are not an error.
func (s *Store) DeleteViewport(ctx context.Context, pageID, name string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM viewport_snapshots WHERE page_id = ? AND name = ?`, pageID, name)
	if err != nil {
		return fmt.Errorf("snapstore: delete viewport %q: %w", name, err)
	}
	return nil
}
