// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Scan constants
const (
	// DefaultScanWorkers is the default number of parallel metadata reads during a scan
	DefaultScanWorkers = 8

	// DefaultReadTimeout bounds a single photo's metadata read during a scan
	DefaultReadTimeout = 5 * time.Second
)

// Map constants
const (
	// DefaultZoom is the zoom level used to frame the focus point on first render
	DefaultZoom = 12.0
)

// Gallery constants
const (
	// DefaultGalleryDir is where captured photos are saved
	DefaultGalleryDir = "DCIM/LocaSnap"

	// CaptureNameLayout formats the file name of a saved capture (IMG_<layout>.jpg)
	CaptureNameLayout = "20060102_150405"
)

// Preview constants
const (
	// DefaultThumbSize is the longest side of a marker preview in pixels
	DefaultThumbSize = 256

	// MaxThumbSize caps the size a client may request
	MaxThumbSize = 1024
)
