package exifmeta

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"go.uber.org/zap"
)

var fieldNames = map[Key]exif.FieldName{
	KeyLatitude:     exif.GPSLatitude,
	KeyLatitudeRef:  exif.GPSLatitudeRef,
	KeyLongitude:    exif.GPSLongitude,
	KeyLongitudeRef: exif.GPSLongitudeRef,
}

// GetAttributes opens path, checks that it is an image and returns the
// requested GPS attributes in their text form: rationals as "n/d,n/d,n/d",
// references as plain letters.
func (s *JPEGStore) GetAttributes(ctx context.Context, path string, keys ...Key) (map[Key]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path) //nolint:gosec // path comes from the gallery store
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer f.Close()

	if _, err := probeImage(f); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: rewind after probe: %w", ErrUnreadable, err)
	}

	attrs := make(map[Key]string, len(keys))

	x, err := exif.Decode(f)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		// No usable EXIF block; the image simply has no attributes.
		return attrs, nil
	}

	for _, key := range keys {
		name, ok := fieldNames[key]
		if !ok {
			continue
		}
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		value, err := formatTag(tag)
		if err != nil {
			s.logger.Debug("skipping undecodable EXIF tag",
				zap.String("path", path),
				zap.String("tag", string(key)),
				zap.Error(err))
			continue
		}
		attrs[key] = value
	}

	return attrs, nil
}

// formatTag renders a tag the way image metadata APIs expose it as a string.
func formatTag(tag *tiff.Tag) (string, error) {
	switch tag.Format() {
	case tiff.RatVal:
		parts := make([]string, 0, tag.Count)
		for i := range int(tag.Count) {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%d/%d", num, den))
		}
		return strings.Join(parts, ","), nil
	case tiff.StringVal:
		v, err := tag.StringVal()
		if err != nil {
			return "", err
		}
		return strings.TrimRight(v, "\x00 "), nil
	}
	return "", fmt.Errorf("unexpected tag format %v", tag.Format())
}
