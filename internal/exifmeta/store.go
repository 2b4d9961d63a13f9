// Package exifmeta reads and writes the GPS location attributes stored in an
// image file's EXIF block.
package exifmeta

import (
	"context"
	"errors"
)

// Key names one of the four GPS location attributes. Values are the EXIF tag names.
type Key string

const (
	KeyLatitude     Key = "GPSLatitude"
	KeyLatitudeRef  Key = "GPSLatitudeRef"
	KeyLongitude    Key = "GPSLongitude"
	KeyLongitudeRef Key = "GPSLongitudeRef"
)

// LocationKeys lists every key the store understands, in write order.
var LocationKeys = []Key{KeyLatitude, KeyLatitudeRef, KeyLongitude, KeyLongitudeRef}

var (
	// ErrUnreadable means the file is missing or is not a decodable image container.
	ErrUnreadable = errors.New("image unreadable")
	// ErrUnsupportedFormat means the image decodes but its metadata cannot be written.
	ErrUnsupportedFormat = errors.New("unsupported image format for metadata write")
	// ErrInvalidValue means an attribute value does not fit its EXIF type.
	ErrInvalidValue = errors.New("invalid attribute value")
)

// Store persists key-value attributes inside an image file.
//
// GetAttributes returns only the requested keys that are present. A readable
// image without any EXIF block yields an empty map and no error.
// SetAttributes replaces the file so that either every given key is updated or
// none is.
type Store interface {
	GetAttributes(ctx context.Context, path string, keys ...Key) (map[Key]string, error)
	SetAttributes(ctx context.Context, path string, attrs map[Key]string) error
}

// GetAttribute reads a single key from s.
func GetAttribute(ctx context.Context, s Store, path string, key Key) (string, bool, error) {
	attrs, err := s.GetAttributes(ctx, path, key)
	if err != nil {
		return "", false, err
	}
	v, ok := attrs[key]
	return v, ok, nil
}

func isRational(k Key) bool {
	return k == KeyLatitude || k == KeyLongitude
}

func knownKey(k Key) bool {
	switch k {
	case KeyLatitude, KeyLatitudeRef, KeyLongitude, KeyLongitudeRef:
		return true
	}
	return false
}
