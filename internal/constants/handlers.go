// Package constants provides shared constants used across the codebase.
package constants

// File upload constants
const (
	// MaxUploadSize is the maximum file upload size in bytes (100MB)
	MaxUploadSize = 100 << 20
)

// Database constants
const (
	// DefaultMaxOpenConns is the default size of the media index connection pool
	DefaultMaxOpenConns = 10

	// DefaultMaxIdleConns is the default number of idle media index connections
	DefaultMaxIdleConns = 2
)

// Job constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100

	// MaxFinishedScanJobs is how many finished scan jobs are kept for status lookups
	MaxFinishedScanJobs = 20
)
