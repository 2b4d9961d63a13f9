package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/photo-map/internal/database"
)

// The primary key is capped at 768 characters to fit InnoDB's index limit
// under utf8mb4.
const createMediaTable = `
	CREATE TABLE IF NOT EXISTS media (
		path         VARCHAR(768) NOT NULL PRIMARY KEY,
		display_name VARCHAR(255) NOT NULL,
		mime_type    VARCHAR(64) NOT NULL DEFAULT 'image/jpeg',
		date_added   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX media_date_added_idx (date_added DESC, path)
	) DEFAULT CHARSET = utf8mb4
`

// Migrate creates the media table if it is missing.
func (p *Pool) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createMediaTable); err != nil {
		return fmt.Errorf("create media table: %w", err)
	}
	p.logger.Debug("media table ready")
	return nil
}

// Register stores an entry, replacing the one with the same path.
func (p *Pool) Register(ctx context.Context, entry database.MediaEntry) error {
	entry, err := entry.Normalize()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO media (path, display_name, mime_type, date_added)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			display_name = VALUES(display_name),
			mime_type = VALUES(mime_type),
			date_added = VALUES(date_added)
	`
	if _, err := p.db.ExecContext(ctx, query, entry.Path, entry.DisplayName, entry.MimeType, entry.DateAdded); err != nil {
		return fmt.Errorf("register media %s: %w", entry.Path, err)
	}
	return nil
}

// ListPaths returns all registered paths, newest first.
func (p *Pool) ListPaths(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT path FROM media ORDER BY date_added DESC, path ASC`)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return paths, nil
}

// Get retrieves an entry by path, returns nil if not found.
func (p *Pool) Get(ctx context.Context, path string) (*database.MediaEntry, error) {
	var e database.MediaEntry
	err := p.db.QueryRowContext(ctx,
		`SELECT path, display_name, mime_type, date_added FROM media WHERE path = ?`, path,
	).Scan(&e.Path, &e.DisplayName, &e.MimeType, &e.DateAdded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return &e, nil
}

// Count returns the number of registered entries.
func (p *Pool) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return n, nil
}

// Remove deletes the entry for path.
func (p *Pool) Remove(ctx context.Context, path string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM media WHERE path = ?`, path); err != nil {
		return fmt.Errorf("remove media: %w", err)
	}
	return nil
}
