package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/jpeg"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/photo-map/internal/exifmeta"
	"github.com/kozaktomas/photo-map/internal/tagger"
)

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// writeJPEG writes a small JPEG under dir and returns its path.
func writeJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, jpegBytes(t), 0o644); err != nil {
		t.Fatalf("write jpeg: %v", err)
	}
	return path
}

// newTagger returns a tagger over the real EXIF store.
func newTagger() *tagger.Tagger {
	return tagger.New(exifmeta.NewJPEGStore(nil), tagger.Options{})
}

// decodeBody unmarshals a recorder body into v.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", rec.Body.String(), err)
	}
}
