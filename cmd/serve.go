package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/photo-map/internal/capture"
	"github.com/kozaktomas/photo-map/internal/cluster"
	"github.com/kozaktomas/photo-map/internal/database"
	"github.com/kozaktomas/photo-map/internal/gallery"
	"github.com/kozaktomas/photo-map/internal/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Photo Map web server.
The web server renders the gallery on a map, one marker per location, and
accepts captures from browser clients.

When DATABASE_URL or MARIADB_DSN is set, photos are listed from the media
index and captures are registered in it. Otherwise the gallery directory is
walked on every map request.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (defaults to WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (defaults to WEB_HOST)")
	serveCmd.Flags().String("dir", "", "Gallery directory (defaults to GALLERY_DIR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	if dir := mustGetString(cmd, "dir"); dir != "" {
		cfg.Gallery.Dir = dir
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := gallery.NewDirStore(cfg.Gallery.Dir, logger.Named("gallery"))
	var source gallery.Store = dir
	var index database.MediaWriter

	if cfg.Database.Enabled() {
		w, closer, err := openMediaIndex(ctx, &cfg.Database, logger)
		if err != nil {
			return err
		}
		defer closeIndex(closer, logger)
		index = w
		source = gallery.NewIndexStore(w, logger.Named("gallery"))
	} else {
		logger.Info("no media index configured, listing gallery directory")
	}

	t := newTagger(logger)
	clusterer := cluster.New(t, cluster.Options{
		Workers:     cfg.Scan.Workers,
		ReadTimeout: cfg.Scan.ReadTimeout,
		Logger:      logger.Named("cluster"),
	})
	pipeline := capture.NewPipeline(t, capture.Options{
		GalleryDir: cfg.Gallery.Dir,
		Index:      index,
		Logger:     logger.Named("capture"),
	})

	server := web.NewServer(cfg, web.Deps{
		Gallery:   dir,
		Source:    source,
		Clusterer: clusterer,
		Locator:   t,
		Capture:   pipeline,
		Backend:   database.Backend,
		Logger:    logger,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during shutdown", zap.Error(err))
		}
	}()

	fmt.Printf("Starting Photo Map on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

func closeIndex(closer io.Closer, logger *zap.Logger) {
	if err := closer.Close(); err != nil {
		logger.Warn("closing media index", zap.Error(err))
	}
}
