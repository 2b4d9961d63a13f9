package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/photo-map/internal/gallery"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Media index commands",
	Long:  "Commands for the database-backed media index used by cluster --index and the web server.",
}

var indexSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Bring the media index in line with the gallery directory",
	Long: `Walks the gallery directory and registers every image not yet in the
media index, using the file modification time as its date added. Index
entries whose file no longer exists are removed.`,
	Args: cobra.NoArgs,
	RunE: runIndexSync,
}

var indexCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Show the number of photos in the media index",
	Args:  cobra.NoArgs,
	RunE:  runIndexCount,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexSyncCmd)
	indexCmd.AddCommand(indexCountCmd)

	indexSyncCmd.Flags().String("dir", "", "Gallery directory (defaults to GALLERY_DIR)")
}

func runIndexSync(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if dir := mustGetString(cmd, "dir"); dir != "" {
		cfg.Gallery.Dir = dir
	}

	ctx := context.Background()
	index, closer, err := openMediaIndex(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeIndex(closer, logger)

	dir := gallery.NewDirStore(cfg.Gallery.Dir, logger.Named("gallery"))
	stats, err := gallery.Sync(ctx, dir, index)
	if err != nil {
		return fmt.Errorf("failed to sync media index: %w", err)
	}

	fmt.Printf("Synced %s\n", dir.Root())
	fmt.Printf("  Added:   %d\n", stats.Added)
	fmt.Printf("  Removed: %d\n", stats.Removed)
	fmt.Printf("  Kept:    %d\n", stats.Kept)
	return nil
}

func runIndexCount(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	index, closer, err := openMediaIndex(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeIndex(closer, logger)

	count, err := index.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count media index: %w", err)
	}
	fmt.Printf("Photos: %d\n", count)
	return nil
}
