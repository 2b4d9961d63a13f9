package database

import (
	"context"
	"errors"
	"sync"
)

// ErrNotConfigured is returned when no media index backend was registered.
var ErrNotConfigured = errors.New("media index not configured: DATABASE_URL or MARIADB_DSN is required")

var (
	mediaWriter  func() MediaWriter
	mediaBackend string
	mediaMu      sync.RWMutex
)

// RegisterMediaBackend registers the media index constructor.
// This is called by the backend packages to avoid import cycles.
func RegisterMediaBackend(name string, writer func() MediaWriter) {
	mediaMu.Lock()
	defer mediaMu.Unlock()
	mediaBackend = name
	mediaWriter = writer
}

// ResetMediaBackend clears the registered backend.
func ResetMediaBackend() {
	mediaMu.Lock()
	defer mediaMu.Unlock()
	mediaBackend = ""
	mediaWriter = nil
}

// IsInitialized returns whether a media index backend has been registered.
func IsInitialized() bool {
	mediaMu.RLock()
	defer mediaMu.RUnlock()
	return mediaWriter != nil
}

// Backend returns the name of the registered backend, empty if none.
func Backend() string {
	mediaMu.RLock()
	defer mediaMu.RUnlock()
	return mediaBackend
}

// GetMediaWriter returns a MediaWriter from the registered backend
func GetMediaWriter(ctx context.Context) (MediaWriter, error) {
	mediaMu.RLock()
	defer mediaMu.RUnlock()
	if mediaWriter == nil {
		return nil, ErrNotConfigured
	}
	return mediaWriter(), nil
}

// GetMediaReader returns a MediaReader from the registered backend
func GetMediaReader(ctx context.Context) (MediaReader, error) {
	w, err := GetMediaWriter(ctx)
	if err != nil {
		return nil, err
	}
	return w, nil
}
