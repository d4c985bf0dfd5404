package snapstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/calque/idgen"
)

// Page is one captured page a blueprint can be built for.
type Page struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("snapstore: not found")

// UpsertPage records a page by URL, reusing the existing row when the
// URL was seen before. Returns the page id.
func (s *Store) UpsertPage(ctx context.Context, url, title string) (string, error) {
	now := time.Now().UnixMilli()

	var id string
	err := s.DB.QueryRowContext(ctx, `SELECT id FROM pages WHERE url = ?`, url).Scan(&id)
	switch {
	case err == nil:
		_, err = s.DB.ExecContext(ctx,
			`UPDATE pages SET title = ?, updated_at = ? WHERE id = ?`, title, now, id)
		if err != nil {
			return "", fmt.Errorf("snapstore: update page: %w", err)
		}
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
		id = idgen.New()
		_, err = s.DB.ExecContext(ctx,
			`INSERT INTO pages (id, url, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			id, url, title, now, now)
		if err != nil {
			return "", fmt.Errorf("snapstore: insert page: %w", err)
		}
		return id, nil
	default:
		return "", fmt.Errorf("snapstore: lookup page: %w", err)
	}
}

// GetPageByURL loads one page by URL without creating it.
func (s *Store) GetPageByURL(ctx context.Context, url string) (*Page, error) {
	var p Page
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, url, title, created_at, updated_at FROM pages WHERE url = ?`, url).
		Scan(&p.ID, &p.URL, &p.Title, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("snapstore: get page by url: %w", err)
	}
	return &p, nil
}

// GetPage loads one page by id.
func (s *Store) GetPage(ctx context.Context, id string) (*Page, error) {
	var p Page
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, url, title, created_at, updated_at FROM pages WHERE id = ?`, id).
		Scan(&p.ID, &p.URL, &p.Title, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("snapstore: get page: %w", err)
	}
	return &p, nil
}

// ListPages returns all known pages, most recently updated first.
func (s *Store) ListPages(ctx context.Context) ([]Page, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, url, title, created_at, updated_at FROM pages ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("snapstore: list pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.ID, &p.URL, &p.Title, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("snapstore: scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
