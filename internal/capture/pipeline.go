package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/photo-map/internal/constants"
	"github.com/kozaktomas/photo-map/internal/database"
	"github.com/kozaktomas/photo-map/internal/geo"
	"go.uber.org/zap"
)

// Tagger writes a fix into an image. A nil fix is skipped and reported as
// not tagged.
type Tagger interface {
	TagCapture(ctx context.Context, path string, fix *geo.Point) (bool, error)
}

// Result describes a stored capture.
type Result struct {
	Path     string     // final location inside the gallery, empty if nothing was stored
	Tagged   bool       // location attributes were written
	Fix      *geo.Point // fix the camera reported
	TakenAt  time.Time
	Indexed  bool // registered in the media index
	TagError error
}

// Options configures a Pipeline.
type Options struct {
	GalleryDir string
	Index      database.MediaWriter // optional
	Logger     *zap.Logger
}

// Pipeline runs capture, then tagging, then saving into the gallery. Each
// stage starts only after the previous one finished.
type Pipeline struct {
	tagger     Tagger
	galleryDir string
	index      database.MediaWriter
	logger     *zap.Logger
}

// NewPipeline creates a Pipeline storing photos under opts.GalleryDir.
func NewPipeline(tagger Tagger, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := opts.GalleryDir
	if dir == "" {
		dir = constants.DefaultGalleryDir
	}
	return &Pipeline{tagger: tagger, galleryDir: dir, index: opts.Index, logger: logger}
}

// Job is a capture in flight.
type Job struct {
	done   chan struct{}
	result Result
	err    error
}

// Done is closed once the job has finished.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx is done. Waiting does not cancel
// the job; cancel the context passed to Start for that.
func (j *Job) Wait(ctx context.Context) (Result, error) {
	select {
	case <-j.done:
		return j.result, j.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Start runs the pipeline for one shot of cam in the background.
func (p *Pipeline) Start(ctx context.Context, cam Camera) *Job {
	job := &Job{done: make(chan struct{})}
	go func() {
		defer close(job.done)
		job.result, job.err = p.run(ctx, cam)
	}()
	return job
}

// Run is Start followed by Wait.
func (p *Pipeline) Run(ctx context.Context, cam Camera) (Result, error) {
	return p.Start(ctx, cam).Wait(ctx)
}

// run tags the shot and saves it. A tagging failure does not lose the photo:
// it is still saved untagged and the failure is returned alongside the
// result.
func (p *Pipeline) run(ctx context.Context, cam Camera) (Result, error) {
	shot, err := cam.Capture(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("capture: %w", err)
	}
	if shot.Staged {
		defer os.Remove(shot.Path)
	}

	logger := p.logger.With(zap.String("shot", shot.Path))
	res := Result{Fix: shot.Fix, TakenAt: shot.TakenAt}

	tagged, tagErr := p.tagger.TagCapture(ctx, shot.Path, shot.Fix)
	if tagErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		logger.Warn("geotagging failed, saving untagged", zap.Error(tagErr))
	}
	res.Tagged = tagged
	res.TagError = tagErr

	dest, err := p.save(shot)
	if err != nil {
		return Result{}, fmt.Errorf("saving to gallery: %w", err)
	}
	res.Path = dest

	if p.index != nil {
		entry := database.MediaEntry{Path: dest, DateAdded: shot.TakenAt}
		if err := p.index.Register(ctx, entry); err != nil {
			logger.Error("registering capture in media index", zap.String("path", dest), zap.Error(err))
			return res, fmt.Errorf("registering %s: %w", dest, err)
		}
		res.Indexed = true
	}

	logger.Info("capture stored",
		zap.String("path", dest),
		zap.Bool("tagged", res.Tagged),
		zap.Bool("indexed", res.Indexed))

	return res, tagErr
}

// save copies the shot into the gallery as IMG_<timestamp><ext>. When that
// name is taken a short random suffix is added.
func (p *Pipeline) save(shot Shot) (string, error) {
	dir, err := filepath.Abs(p.galleryDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating gallery dir: %w", err)
	}

	taken := shot.TakenAt
	if taken.IsZero() {
		taken = time.Now()
	}
	ext := normalizeExt(filepath.Ext(shot.Path))
	base := "IMG_" + taken.Format(constants.CaptureNameLayout)

	dest := filepath.Join(dir, base+ext)
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		dest = filepath.Join(dir, base+"_"+uuid.NewString()[:8]+ext)
		out, err = os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", err
	}

	if err := copyInto(out, shot.Path); err != nil {
		out.Close()
		os.Remove(dest)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}

func copyInto(out *os.File, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
