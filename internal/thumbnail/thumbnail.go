// Package thumbnail renders small JPEG previews for map markers.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when the source is not a decodable image.
var ErrDecode = errors.New("failed to decode image")

// Quality is the JPEG quality of rendered previews.
const Quality = 85

// Fit returns the size of a w x h image scaled down to fit in a maxSize
// square, keeping the aspect ratio. Images that already fit keep their size.
func Fit(w, h, maxSize int) (int, int) {
	if w <= maxSize && h <= maxSize {
		return w, h
	}
	if w > h {
		return maxSize, max(1, h*maxSize/w)
	}
	return max(1, w*maxSize/h), maxSize
}

// Render decodes r and writes a JPEG preview no larger than maxSize on
// either side to w.
func Render(w io.Writer, r io.Reader, maxSize int) error {
	if maxSize <= 0 {
		return fmt.Errorf("invalid preview size %d", maxSize)
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	bounds := img.Bounds()
	width, height := Fit(bounds.Dx(), bounds.Dy(), maxSize)

	out := img
	if width != bounds.Dx() || height != bounds.Dy() {
		resized := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		out = resized
	}

	if err := jpeg.Encode(w, out, &jpeg.Options{Quality: Quality}); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}

// File renders a preview of the image at path.
func File(path string, maxSize int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := Render(&buf, f, maxSize); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
