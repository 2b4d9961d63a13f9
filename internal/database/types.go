package database

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// MediaEntry is one photo registered in the media index.
type MediaEntry struct {
	Path        string // absolute path of the image file
	DisplayName string // file name shown to users, e.g. IMG_20240312_101502.jpg
	MimeType    string
	DateAdded   time.Time
}

// ErrInvalidEntry is returned when a media entry cannot be stored.
var ErrInvalidEntry = errors.New("invalid media entry")

// Normalize cleans the path and fills DisplayName, MimeType and DateAdded
// when they are empty. It returns
// ErrInvalidEntry when Path is empty or relative.
func (e MediaEntry) Normalize() (MediaEntry, error) {
	if strings.TrimSpace(e.Path) == "" {
		return e, errors.Join(ErrInvalidEntry, errors.New("path is required"))
	}
	if !filepath.IsAbs(e.Path) {
		return e, errors.Join(ErrInvalidEntry, errors.New("path must be absolute"))
	}
	e.Path = filepath.Clean(e.Path)
	if e.DisplayName == "" {
		e.DisplayName = filepath.Base(e.Path)
	}
	if e.MimeType == "" {
		e.MimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(e.Path)))
	}
	if e.MimeType == "" {
		e.MimeType = "application/octet-stream"
	}
	if e.DateAdded.IsZero() {
		e.DateAdded = time.Now()
	}
	e.DateAdded = e.DateAdded.UTC().Truncate(time.Second)
	return e, nil
}
