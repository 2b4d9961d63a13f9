// Package geo converts between decimal-degree coordinates and the
// degrees/minutes/seconds rational text form used by EXIF GPS tags.
package geo

import (
	"fmt"
	"math"
)

// Point is a location in decimal degrees. Points compare with exact float
// equality, so two fixes that differ by one ULP are different points.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies inside the latitude and longitude ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lon)
}
