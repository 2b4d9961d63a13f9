package database

import (
	"context"
)

// MediaReader provides read-only access to the media index
type MediaReader interface {
	// ListPaths returns every registered path, newest first. Entries added in
	// the same second are ordered by path.
	ListPaths(ctx context.Context) ([]string, error)
	// Get retrieves an entry by path, returns nil if not found
	Get(ctx context.Context, path string) (*MediaEntry, error)
	// Count returns the number of registered entries
	Count(ctx context.Context) (int, error)
}

// MediaWriter provides write access to the media index
type MediaWriter interface {
	MediaReader

	// Register inserts the entry or updates the existing one with the same path
	Register(ctx context.Context, entry MediaEntry) error
	// Remove deletes the entry for path. Removing an unknown path is not an error.
	Remove(ctx context.Context, path string) error
}
