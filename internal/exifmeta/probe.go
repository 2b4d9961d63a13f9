package exifmeta

import (
	"fmt"
	"image"
	"io"

	// Decoders registered for container probing.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// probeImage decodes only the image header and returns the format name
// ("jpeg", "png", "tiff", "webp", "bmp").
func probeImage(r io.Reader) (string, error) {
	_, format, err := image.DecodeConfig(r)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return format, nil
}
