// Package gallery enumerates the photos a scan runs over.
package gallery

import (
	"cmp"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Store lists image paths in scan order, newest first.
type Store interface {
	ListImagePaths(ctx context.Context) ([]string, error)
}

// imageExts are the extensions a gallery directory is filtered on.
var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".heic": {},
	".heif": {},
	".tif":  {},
	".tiff": {},
	".bmp":  {},
}

// IsImage reports whether path has a recognised image extension.
func IsImage(path string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// DirStore lists the images under a directory tree.
type DirStore struct {
	root   string
	logger *zap.Logger
}

// NewDirStore creates a DirStore rooted at dir.
func NewDirStore(dir string, logger *zap.Logger) *DirStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirStore{root: dir, logger: logger}
}

// Root returns the absolute gallery directory.
func (s *DirStore) Root() string {
	if abs, err := filepath.Abs(s.root); err == nil {
		return abs
	}
	return s.root
}

type dirEntry struct {
	path    string
	modTime time.Time
}

// ListImagePaths walks the directory and returns absolute image paths ordered
// by modification time, newest first, ties broken by path. Hidden files and
// directories are skipped. A gallery directory that does not exist yet is
// empty.
func (s *DirStore) ListImagePaths(ctx context.Context) ([]string, error) {
	root := s.Root()
	var entries []dirEntry

	err := filepath.WalkDir(root, func(fpath string, d fs.DirEntry, err error) error {
		if err != nil {
			if fpath == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if fpath != root && strings.HasPrefix(d.Name(), ".") {
			// skip hidden files; they are cruft
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsImage(fpath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// removed between listing and stat
			s.logger.Debug("skipping vanished file", zap.String("path", fpath), zap.Error(err))
			return nil
		}
		entries = append(entries, dirEntry{path: fpath, modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(entries, func(a, b dirEntry) int {
		if c := b.modTime.Compare(a.modTime); c != 0 {
			return c
		}
		return cmp.Compare(a.path, b.path)
	})

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.path
	}
	s.logger.Debug("listed gallery", zap.String("root", root), zap.Int("images", len(paths)))
	return paths, nil
}

// Contains reports whether path lies inside the gallery directory, after
// resolving it to an absolute path. Symlinks are followed, so a link inside
// the gallery that points outside it is not contained. The returned path is
// the absolute, unresolved one.
func (s *DirStore) Contains(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(resolveSymlinks(s.Root()), resolveSymlinks(abs))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return abs, true
}

// resolveSymlinks evaluates the symlinks of the longest existing prefix of
// path and appends the rest unchanged.
func resolveSymlinks(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path
	}
	return filepath.Join(resolveSymlinks(parent), filepath.Base(path))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
