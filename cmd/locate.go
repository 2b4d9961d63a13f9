package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/photo-map/internal/geo"
	"github.com/spf13/cobra"
)

var locateCmd = &cobra.Command{
	Use:   "locate <image>...",
	Short: "Print the GPS location stored in photos",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLocate,
}

// locateOutput is the JSON form of one located photo.
type locateOutput struct {
	Path     string     `json:"path"`
	Location *geo.Point `json:"location"`
	Error    string     `json:"error,omitempty"`
}

func init() {
	rootCmd.AddCommand(locateCmd)
	locateCmd.Flags().Bool("json", false, "Output as JSON")
}

func runLocate(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	_, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	t := newTagger(logger)
	ctx := context.Background()

	results := make([]locateOutput, 0, len(args))
	failed := 0
	for _, path := range args {
		out := locateOutput{Path: path}
		p, err := t.ReadLocation(ctx, path)
		if err != nil {
			out.Error = err.Error()
			failed++
		}
		out.Location = p
		results = append(results, out)
	}

	if jsonOutput {
		if err := outputJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printLocation(r)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d photos could not be read", failed, len(args))
	}
	return nil
}

func printLocation(r locateOutput) {
	switch {
	case r.Error != "":
		fmt.Printf("%s: error: %s\n", r.Path, r.Error)
	case r.Location == nil:
		fmt.Printf("%s: no location\n", r.Path)
	default:
		lat, lon := geo.Encode(*r.Location)
		fmt.Printf("%s: %s (%s %s, %s %s)\n", r.Path, r.Location, lat, lat.Ref, lon, lon.Ref)
	}
}
