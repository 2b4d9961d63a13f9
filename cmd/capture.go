package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/photo-map/internal/capture"
	"github.com/kozaktomas/photo-map/internal/database"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture <source-image>",
	Short: "Store a photo in the gallery, tagged with a location",
	Long: `Takes an existing image as the camera output, writes the location fix
into it and saves it to the gallery as IMG_<yyyyMMdd_HHmmss>.jpg. The source
file is never modified.

Without --lat and --lon the photo is saved untagged. If tagging fails the
photo is still saved and the command reports the error.`,
	Example: `  # Capture with a location fix
  photo-map capture shot.jpg --lat 50.0755 --lon 14.4378

  # Capture and register in the media index
  photo-map capture shot.jpg --lat 50.0755 --lon 14.4378 --index`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	addFixFlags(captureCmd)
	captureCmd.Flags().String("dir", "", "Gallery directory (defaults to GALLERY_DIR)")
	captureCmd.Flags().Bool("index", false, "Register the stored photo in the media index")
}

func runCapture(cmd *cobra.Command, args []string) error {
	fix, err := fixFromFlags(cmd)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if dir := mustGetString(cmd, "dir"); dir != "" {
		cfg.Gallery.Dir = dir
	}

	ctx := context.Background()
	var index database.MediaWriter
	if mustGetBool(cmd, "index") {
		w, closer, err := openMediaIndex(ctx, &cfg.Database, logger)
		if err != nil {
			return err
		}
		defer closeIndex(closer, logger)
		index = w
	}

	pipeline := capture.NewPipeline(newTagger(logger), capture.Options{
		GalleryDir: cfg.Gallery.Dir,
		Index:      index,
		Logger:     logger.Named("capture"),
	})

	res, err := pipeline.Run(ctx, &capture.FileCamera{Source: args[0], Fix: fix})
	if res.Path == "" {
		return fmt.Errorf("capture failed: %w", err)
	}

	fmt.Printf("Saved %s\n", res.Path)
	switch {
	case res.Tagged:
		fmt.Printf("  Location: %s\n", res.Fix)
	case res.TagError != nil:
		fmt.Printf("  Location: not written (%v)\n", res.TagError)
	default:
		fmt.Println("  Location: unavailable")
	}
	if res.Indexed {
		fmt.Println("  Indexed:  yes")
	}

	if err != nil && !errors.Is(err, res.TagError) {
		return err
	}
	if res.TagError != nil {
		return fmt.Errorf("photo saved untagged: %w", res.TagError)
	}
	return nil
}
