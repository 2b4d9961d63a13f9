package gallery

import (
	"context"
	"fmt"
	"os"

	"github.com/kozaktomas/photo-map/internal/database"
	"go.uber.org/zap"
)

// IndexStore lists images from the media index. Entries whose file no longer
// exists are left out of the listing.
type IndexStore struct {
	index  database.MediaReader
	logger *zap.Logger
}

// NewIndexStore creates an IndexStore over index.
func NewIndexStore(index database.MediaReader, logger *zap.Logger) *IndexStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexStore{index: index, logger: logger}
}

// ListImagePaths returns the indexed paths that still exist, in index order.
func (s *IndexStore) ListImagePaths(ctx context.Context) ([]string, error) {
	all, err := s.index.ListPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing media index: %w", err)
	}

	paths := make([]string, 0, len(all))
	for _, p := range all {
		if !fileExists(p) {
			s.logger.Warn("indexed file missing", zap.String("path", p))
			continue
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// SyncStats reports what Sync changed.
type SyncStats struct {
	Added   int
	Removed int
	Kept    int
}

// Sync makes index match the images under dir: new files are registered with
// their modification time as date added, entries whose file is gone are
// removed.
func Sync(ctx context.Context, dir *DirStore, index database.MediaWriter) (SyncStats, error) {
	var stats SyncStats

	onDisk, err := dir.ListImagePaths(ctx)
	if err != nil {
		return stats, fmt.Errorf("listing gallery: %w", err)
	}
	indexed, err := index.ListPaths(ctx)
	if err != nil {
		return stats, fmt.Errorf("listing media index: %w", err)
	}

	known := make(map[string]struct{}, len(indexed))
	for _, p := range indexed {
		known[p] = struct{}{}
	}

	for _, p := range onDisk {
		if _, ok := known[p]; ok {
			stats.Kept++
			delete(known, p)
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if err := index.Register(ctx, database.MediaEntry{Path: p, DateAdded: info.ModTime()}); err != nil {
			return stats, err
		}
		stats.Added++
	}

	// Whatever is left is indexed but not in the directory. Files indexed
	// from outside the gallery are kept while they exist.
	for p := range known {
		if fileExists(p) {
			stats.Kept++
			continue
		}
		if err := index.Remove(ctx, p); err != nil {
			return stats, err
		}
		stats.Removed++
	}

	dir.logger.Info("media index synced",
		zap.Int("added", stats.Added),
		zap.Int("removed", stats.Removed),
		zap.Int("kept", stats.Kept))
	return stats, nil
}
