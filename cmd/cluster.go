package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/kozaktomas/photo-map/internal/cluster"
	"github.com/kozaktomas/photo-map/internal/config"
	"github.com/kozaktomas/photo-map/internal/gallery"
	"github.com/kozaktomas/photo-map/internal/geo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Group gallery photos into map markers",
	Long: `Reads the GPS location of every photo in the gallery and groups photos
taken at exactly the same location into one marker. Photos without a location
or whose metadata cannot be read are skipped.

Markers are listed in gallery order (newest first): the first photo of a marker
is its head, and the map is centred on the location of the newest photo.`,
	Example: `  # Cluster the default gallery
  photo-map cluster

  # Cluster another directory with 16 parallel readers
  photo-map cluster --dir ~/Pictures --workers 16

  # Enumerate photos from the media index instead of the filesystem
  photo-map cluster --index`,
	Args: cobra.NoArgs,
	RunE: runCluster,
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	clusterCmd.Flags().String("dir", "", "Gallery directory (defaults to GALLERY_DIR)")
	clusterCmd.Flags().Int("workers", 0, "Number of parallel metadata reads (defaults to SCAN_WORKERS)")
	clusterCmd.Flags().Duration("timeout", 0, "Per photo read timeout, 0 disables (defaults to SCAN_READ_TIMEOUT)")
	clusterCmd.Flags().Bool("index", false, "Enumerate photos from the media index")
	clusterCmd.Flags().Bool("json", false, "Output as JSON")
}

// clusterOutput is the JSON form of a scan.
type clusterOutput struct {
	ScanID  string          `json:"scan_id"`
	Focus   *geo.Point      `json:"focus"`
	Zoom    float64         `json:"zoom"`
	Markers []markerOutput  `json:"markers"`
	Skipped []skippedOutput `json:"skipped"`
}

type markerOutput struct {
	Point geo.Point          `json:"point"`
	View  cluster.MarkerView `json:"view"`
}

type skippedOutput struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func runCluster(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	applyClusterFlags(cmd, cfg)

	source, cleanup, err := clusterSource(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	paths, err := source.ListImagePaths(ctx)
	if err != nil {
		return fmt.Errorf("failed to list photos: %w", err)
	}
	if len(paths) == 0 {
		if jsonOutput {
			return outputJSON(clusterOutput{Zoom: cfg.Map.Zoom, Markers: []markerOutput{}, Skipped: []skippedOutput{}})
		}
		fmt.Println("No photos found")
		return nil
	}

	bar := newScanProgressBar(len(paths), jsonOutput)
	opts := cluster.Options{
		Workers:     cfg.Scan.Workers,
		ReadTimeout: cfg.Scan.ReadTimeout,
		Logger:      logger.Named("cluster"),
	}
	if bar != nil {
		opts.OnProgress = func(cluster.ProgressInfo) { _ = bar.Add(1) }
	}

	clusterer := cluster.New(newTagger(logger), opts)
	result, err := clusterer.Cluster(ctx, paths)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(newClusterOutput(result, cfg.Map.Zoom))
	}
	return cluster.Render(ctx, &tableRenderer{w: os.Stdout, result: result}, result, cfg.Map.Zoom)
}

// applyClusterFlags overrides the scan settings with the flags that were set.
func applyClusterFlags(cmd *cobra.Command, cfg *config.Config) {
	if dir := mustGetString(cmd, "dir"); dir != "" {
		cfg.Gallery.Dir = dir
	}
	if workers := mustGetInt(cmd, "workers"); workers > 0 {
		cfg.Scan.Workers = workers
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Scan.ReadTimeout = mustGetDuration(cmd, "timeout")
	}
}

// clusterSource picks the photo source: the gallery directory, or the media
// index when --index is set.
func clusterSource(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) (gallery.Store, func(), error) {
	if !mustGetBool(cmd, "index") {
		return gallery.NewDirStore(cfg.Gallery.Dir, logger.Named("gallery")), func() {}, nil
	}

	index, closer, err := openMediaIndex(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { closeIndex(closer, logger) }
	return gallery.NewIndexStore(index, logger.Named("gallery")), cleanup, nil
}

// newScanProgressBar creates a progress bar for the metadata scan, or nil if JSON output.
func newScanProgressBar(count int, jsonOutput bool) *progressbar.ProgressBar {
	if jsonOutput {
		return nil
	}
	return progressbar.NewOptions(count,
		progressbar.OptionSetDescription("Reading locations"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

func newClusterOutput(result *cluster.Result, zoom float64) clusterOutput {
	out := clusterOutput{
		ScanID:  result.ScanID,
		Focus:   result.Focus,
		Zoom:    zoom,
		Markers: make([]markerOutput, 0, len(result.Clusters)),
		Skipped: make([]skippedOutput, 0, len(result.Skipped)),
	}
	for _, c := range result.Clusters {
		out.Markers = append(out.Markers, markerOutput{Point: c.Point, View: c.View()})
	}
	for _, s := range result.Skipped {
		out.Skipped = append(out.Skipped, skippedOutput{Path: s.Path, Reason: s.Reason})
	}
	return out
}

// tableRenderer prints placements as a table, one row per marker.
type tableRenderer struct {
	w      io.Writer
	result *cluster.Result
}

func (r *tableRenderer) Render(_ context.Context, placements []cluster.Placement, focus *geo.Point, zoom float64) error {
	fmt.Fprintf(r.w, "Scanned %d photos in %s: %d located, %d skipped\n\n",
		r.result.Scanned, r.result.Duration.Round(time.Millisecond), r.result.Located, len(r.result.Skipped))

	if len(placements) == 0 {
		fmt.Fprintln(r.w, "No photos with a location")
		return nil
	}

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCATION\tPHOTOS\tHEAD\tSTACK")
	for _, p := range placements {
		stack := "-"
		if p.View.Stack != "" {
			stack = fmt.Sprintf("%s (+%d)", filepath.Base(p.View.Stack), p.View.Overflow)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", p.Point, p.View.Count, filepath.Base(p.View.Head), stack)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	if focus != nil {
		fmt.Fprintf(r.w, "\nFocus: %s at zoom %.0f\n", focus, zoom)
	}
	return nil
}
