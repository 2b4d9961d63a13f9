package cluster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/photo-map/internal/constants"
	"github.com/kozaktomas/photo-map/internal/geo"
	"go.uber.org/zap"
)

// Locator reads the location of one photo. A nil point without error means the
// photo has no location.
type Locator interface {
	ReadLocation(ctx context.Context, path string) (*geo.Point, error)
}

// ProgressInfo is reported after each photo is read.
type ProgressInfo struct {
	Current int
	Total   int
	Path    string
}

// Options configures a Clusterer.
type Options struct {
	Workers     int           // parallel metadata reads, defaults to constants.DefaultScanWorkers
	ReadTimeout time.Duration // per photo, zero disables the limit
	Logger      *zap.Logger
	OnProgress  func(ProgressInfo) // optional, called from worker goroutines
}

// Skip records a photo that did not contribute to any cluster.
type Skip struct {
	Path   string
	Reason string
	Err    error
}

// Result is the outcome of one scan.
type Result struct {
	ScanID   string
	Clusters []Cluster
	Focus    *geo.Point
	Scanned  int
	Located  int
	Skipped  []Skip
	Duration time.Duration
}

// Clusterer scans photo paths and groups them by location. It holds no state
// between scans and is safe for concurrent use.
type Clusterer struct {
	locator Locator
	opts    Options
	logger  *zap.Logger
}

// New creates a Clusterer reading locations through locator.
func New(locator Locator, opts Options) *Clusterer {
	if opts.Workers <= 0 {
		opts.Workers = constants.DefaultScanWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Clusterer{locator: locator, opts: opts, logger: logger}
}

// readResult holds the outcome of reading a single photo
type readResult struct {
	index int
	point *geo.Point
	err   error
}

// Cluster reads every path in parallel and groups the located photos. The
// result depends on input order only: clusters and focus follow scan order,
// never completion order. A photo that fails to read is skipped and logged;
// only cancellation of ctx fails the scan.
func (c *Clusterer) Cluster(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()
	scanID := uuid.NewString()
	logger := c.logger.With(zap.String("scan_id", scanID))

	resultsChan := make(chan readResult, len(paths))
	semaphore := make(chan struct{}, c.opts.Workers)
	var wg sync.WaitGroup
	var processedCount int
	var progressMu sync.Mutex

	reportProgress := func(path string) {
		if c.opts.OnProgress == nil {
			return
		}
		progressMu.Lock()
		processedCount++
		current := processedCount
		progressMu.Unlock()
		c.opts.OnProgress(ProgressInfo{Current: current, Total: len(paths), Path: path})
	}

	for i := range paths {
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				resultsChan <- readResult{index: idx, err: ctx.Err()}
				return
			}

			p, err := c.read(ctx, path)
			resultsChan <- readResult{index: idx, point: p, err: err}
			reportProgress(path)
		}(i, paths[i])
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Index by original position so grouping sees scan order.
	records := make([]PhotoRecord, len(paths))
	errs := make([]error, len(paths))
	for res := range resultsChan {
		records[res.index] = PhotoRecord{Path: paths[res.index], Point: res.point}
		errs[res.index] = res.err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan %s cancelled: %w", scanID, err)
	}

	result := &Result{ScanID: scanID, Scanned: len(paths)}
	for i, rec := range records {
		switch {
		case errs[i] != nil:
			logger.Warn("skipping photo", zap.String("path", rec.Path), zap.Error(errs[i]))
			result.Skipped = append(result.Skipped, Skip{Path: rec.Path, Reason: "unreadable", Err: errs[i]})
		case rec.Point == nil:
			logger.Debug("no location", zap.String("path", rec.Path))
			result.Skipped = append(result.Skipped, Skip{Path: rec.Path, Reason: "no location"})
		default:
			result.Located++
		}
	}

	result.Clusters, result.Focus = Group(records)
	result.Duration = time.Since(start)

	logger.Info("scan finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("located", result.Located),
		zap.Int("clusters", len(result.Clusters)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// read calls the locator, giving up after the configured timeout. A timed out
// read is reported as an error so the photo is skipped; the abandoned call
// finishes in the background.
func (c *Clusterer) read(ctx context.Context, path string) (*geo.Point, error) {
	if c.opts.ReadTimeout <= 0 {
		return c.locator.ReadLocation(ctx, path)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.ReadTimeout)
	defer cancel()

	type outcome struct {
		point *geo.Point
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		p, err := c.locator.ReadLocation(ctx, path)
		done <- outcome{point: p, err: err}
	}()

	select {
	case o := <-done:
		return o.point, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("reading %s: %w", path, ctx.Err())
	}
}
