// Package capture turns a camera shot into a tagged photo in the gallery.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kozaktomas/photo-map/internal/geo"
)

// Shot is what a camera hands over: an image file that is fully written to
// disk and the location fix at capture time, nil when none was available.
type Shot struct {
	Path    string
	Fix     *geo.Point
	TakenAt time.Time
	// Staged is true when Path is a temporary copy owned by the pipeline.
	Staged bool
}

// Camera produces one shot per call.
type Camera interface {
	Capture(ctx context.Context) (Shot, error)
}

// ErrNoImage is returned when a camera has nothing to hand over.
var ErrNoImage = errors.New("camera produced no image")

// FileCamera replays an existing image file as a capture. The file is staged
// so the original is never modified.
type FileCamera struct {
	Source     string
	Fix        *geo.Point
	StagingDir string // defaults to os.TempDir()
	Clock      func() time.Time
}

// Capture stages a copy of Source.
func (c *FileCamera) Capture(ctx context.Context) (Shot, error) {
	f, err := os.Open(c.Source)
	if err != nil {
		return Shot{}, fmt.Errorf("%w: %w", ErrNoImage, err)
	}
	defer f.Close()

	return (&ReaderCamera{
		Reader:     f,
		Ext:        filepath.Ext(c.Source),
		Fix:        c.Fix,
		StagingDir: c.StagingDir,
		Clock:      c.Clock,
	}).Capture(ctx)
}

// ReaderCamera captures from a byte stream such as an HTTP upload.
type ReaderCamera struct {
	Reader     io.Reader
	Ext        string // file extension including the dot, defaults to ".jpg"
	Fix        *geo.Point
	StagingDir string
	Clock      func() time.Time
}

// Capture writes the stream to a staging file and syncs it before returning,
// so the tagging stage only ever sees a complete file.
func (c *ReaderCamera) Capture(ctx context.Context) (Shot, error) {
	if c.Reader == nil {
		return Shot{}, ErrNoImage
	}
	if err := ctx.Err(); err != nil {
		return Shot{}, err
	}

	clock := c.Clock
	if clock == nil {
		clock = time.Now
	}

	path, err := stage(c.StagingDir, normalizeExt(c.Ext), c.Reader)
	if err != nil {
		return Shot{}, err
	}
	return Shot{Path: path, Fix: c.Fix, TakenAt: clock(), Staged: true}, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	switch ext {
	case "", ".":
		return ".jpg"
	case ".jpeg":
		return ".jpg"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// stage copies r into a new file under dir and fsyncs it.
func stage(dir, ext string, r io.Reader) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating staging dir: %w", err)
	}

	f, err := os.CreateTemp(dir, "capture-*"+ext)
	if err != nil {
		return "", fmt.Errorf("creating staging file: %w", err)
	}
	path := f.Name()

	n, err := io.Copy(f, r)
	if err == nil && n == 0 {
		err = ErrNoImage
	}
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("staging capture: %w", err)
	}
	return path, nil
}
