package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/photo-map/internal/database"
)

// MediaRepository provides PostgreSQL-backed media index storage
type MediaRepository struct {
	pool *Pool
}

// NewMediaRepository creates a new PostgreSQL media repository
func NewMediaRepository(pool *Pool) *MediaRepository {
	return &MediaRepository{pool: pool}
}

// Register stores an entry, replacing the one with the same path
func (r *MediaRepository) Register(ctx context.Context, entry database.MediaEntry) error {
	entry, err := entry.Normalize()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO media (path, display_name, mime_type, date_added)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (path) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			mime_type = EXCLUDED.mime_type,
			date_added = EXCLUDED.date_added,
			updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, entry.Path, entry.DisplayName, entry.MimeType, entry.DateAdded); err != nil {
		return fmt.Errorf("register media %s: %w", entry.Path, err)
	}
	return nil
}

// ListPaths returns all registered paths, newest first
func (r *MediaRepository) ListPaths(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT path FROM media ORDER BY date_added DESC, path ASC`)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan media path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media: %w", err)
	}
	return paths, nil
}

// Get retrieves an entry by path, returns nil if not found
func (r *MediaRepository) Get(ctx context.Context, path string) (*database.MediaEntry, error) {
	query := `
		SELECT path, display_name, mime_type, date_added
		FROM media
		WHERE path = $1
	`

	var e database.MediaEntry
	err := r.pool.QueryRow(ctx, query, path).Scan(&e.Path, &e.DisplayName, &e.MimeType, &e.DateAdded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return &e, nil
}

// Count returns the number of registered entries
func (r *MediaRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM media`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return n, nil
}

// Remove deletes the entry for path
func (r *MediaRepository) Remove(ctx context.Context, path string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM media WHERE path = $1`, path); err != nil {
		return fmt.Errorf("remove media: %w", err)
	}
	return nil
}
