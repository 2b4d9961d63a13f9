package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/photo-map/internal/geo"
	"github.com/spf13/cobra"
)

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
// This is appropriate for flags defined in init() - errors indicate programming bugs.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetFloat64 gets a float64 flag value or panics if the flag doesn't exist.
func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	val, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetDuration gets a duration flag value or panics if the flag doesn't exist.
func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// addFixFlags registers the --lat and --lon flags of a location fix.
func addFixFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("lat", 0, "Latitude in decimal degrees")
	cmd.Flags().Float64("lon", 0, "Longitude in decimal degrees")
}

// fixFromFlags returns the point given by --lat and --lon, or nil when neither
// was set. Setting only one of them is an error.
func fixFromFlags(cmd *cobra.Command) (*geo.Point, error) {
	latSet := cmd.Flags().Changed("lat")
	lonSet := cmd.Flags().Changed("lon")
	if !latSet && !lonSet {
		return nil, nil
	}
	if latSet != lonSet {
		return nil, errors.New("--lat and --lon must be given together")
	}

	p := geo.Point{Lat: mustGetFloat64(cmd, "lat"), Lon: mustGetFloat64(cmd, "lon")}
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %v out of range", geo.ErrMalformedCoordinate, p)
	}
	return &p, nil
}
