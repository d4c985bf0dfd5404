package snapstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/calque/blueprint"
)

// BlueprintMeta is the listing row for a stored blueprint.
type BlueprintMeta struct {
	ID        string `json:"id"`
	PageID    string `json:"page_id"`
	NodeCount int    `json:"node_count"`
	CreatedAt int64  `json:"created_at"`
}

// SaveBlueprint stores a built blueprint for a page.
func (s *Store) SaveBlueprint(ctx context.Context, pageID string, bp *blueprint.Blueprint) error {
	payload, err := blueprint.Marshal(bp)
	if err != nil {
		return fmt.Errorf("snapstore: encode blueprint: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO blueprints (id, page_id, payload, node_count, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		bp.ID, pageID, string(payload), bp.Summary.Nodes, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("snapstore: save blueprint: %w", err)
	}
	return nil
}

// GetBlueprint loads one blueprint by id.
func (s *Store) GetBlueprint(ctx context.Context, id string) (*blueprint.Blueprint, error) {
	var payload string
	err := s.DB.QueryRowContext(ctx,
		`SELECT payload FROM blueprints WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("snapstore: get blueprint: %w", err)
	}
	return blueprint.Unmarshal([]byte(payload))
}

// LatestBlueprint loads the most recently built blueprint for a page.
func (s *Store) LatestBlueprint(ctx context.Context, pageID string) (*blueprint.Blueprint, error) {
	var payload string
	err := s.DB.QueryRowContext(ctx, `
		SELECT payload FROM blueprints
		WHERE page_id = ?
		ORDER BY created_at DESC LIMIT 1`, pageID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("snapstore: latest blueprint: %w", err)
	}
	return blueprint.Unmarshal([]byte(payload))
}

// ListBlueprints lists stored blueprints for a page, newest first.
func (s *Store) ListBlueprints(ctx context.Context, pageID string) ([]BlueprintMeta, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, page_id, node_count, created_at FROM blueprints
		WHERE page_id = ?
		ORDER BY created_at DESC`, pageID)
	if err != nil {
		return nil, fmt.Errorf("snapstore: list blueprints: %w", err)
	}
	defer rows.Close()

	var metas []BlueprintMeta
	for rows.Next() {
		var m BlueprintMeta
		if err := rows.Scan(&m.ID, &m.PageID, &m.NodeCount, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("snapstore: scan blueprint: %w", err)
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}
