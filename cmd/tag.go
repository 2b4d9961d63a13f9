package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/photo-map/internal/geo"
	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag <image>",
	Short: "Write a GPS location into a photo",
	Long: `Writes latitude and longitude into the EXIF GPS tags of a JPEG photo.
All four tags are replaced together; on failure the file is left untouched.`,
	Example: `  # Tag a photo taken in Paris
  photo-map tag IMG_20240101_120000.jpg --lat 48.8566 --lon 2.3522`,
	Args: cobra.ExactArgs(1),
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(tagCmd)
	addFixFlags(tagCmd)
	_ = tagCmd.MarkFlagRequired("lat")
	_ = tagCmd.MarkFlagRequired("lon")
}

func runTag(cmd *cobra.Command, args []string) error {
	fix, err := fixFromFlags(cmd)
	if err != nil {
		return err
	}
	if fix == nil {
		return errors.New("--lat and --lon are required")
	}

	_, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	t := newTagger(logger)
	if err := t.WriteLocation(context.Background(), args[0], *fix); err != nil {
		return fmt.Errorf("failed to tag %s: %w", args[0], err)
	}

	lat, lon := geo.Encode(*fix)
	fmt.Printf("Tagged %s\n", args[0])
	fmt.Printf("  Latitude:  %s %s\n", lat, lat.Ref)
	fmt.Printf("  Longitude: %s %s\n", lon, lon.Ref)
	return nil
}
