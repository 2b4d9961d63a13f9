package tagger

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kozaktomas/photo-map/internal/exifmeta"
	"github.com/kozaktomas/photo-map/internal/geo"
)

func writeJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write jpeg: %v", err)
	}
	return path
}

// fakeStore is an in-memory exifmeta.Store with error injection.
type fakeStore struct {
	mu       sync.Mutex
	attrs    map[string]map[exifmeta.Key]string
	getErr   error
	setErr   error
	inflight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{attrs: make(map[string]map[exifmeta.Key]string)}
}

func (f *fakeStore) GetAttributes(ctx context.Context, path string, keys ...exifmeta.Key) (map[exifmeta.Key]string, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[exifmeta.Key]string)
	for _, k := range keys {
		if v, ok := f.attrs[path][k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (f *fakeStore) SetAttributes(ctx context.Context, path string, attrs map[exifmeta.Key]string) error {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.attrs[path]
	if m == nil {
		m = make(map[exifmeta.Key]string)
		f.attrs[path] = m
	}
	for k, v := range attrs {
		m[k] = v
	}
	return nil
}

func TestEncodeAttributes_Paris(t *testing.T) {
	attrs := EncodeAttributes(geo.Point{Lat: 48.8566, Lon: 2.3522})

	want := map[exifmeta.Key]string{
		exifmeta.KeyLatitude:     "48/1,51/1,23/1",
		exifmeta.KeyLatitudeRef:  "N",
		exifmeta.KeyLongitude:    "2/1,21/1,7/1",
		exifmeta.KeyLongitudeRef: "E",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("%s: expected '%s', got '%s'", k, v, attrs[k])
		}
	}
}

func TestWriteThenReadLocation_JPEG(t *testing.T) {
	ctx := context.Background()
	tg := New(exifmeta.NewJPEGStore(nil), Options{})
	path := writeJPEG(t, t.TempDir(), "IMG_20250101_120000.jpg")

	want := geo.Point{Lat: -33.8688, Lon: 151.2093}
	if err := tg.WriteLocation(ctx, path, want); err != nil {
		t.Fatalf("WriteLocation: %v", err)
	}

	got, err := tg.ReadLocation(ctx, path)
	if err != nil {
		t.Fatalf("ReadLocation: %v", err)
	}
	if got == nil {
		t.Fatal("expected a location, got nil")
	}
	if math.Abs(got.Lat-want.Lat) >= 1.0/3600 || math.Abs(got.Lon-want.Lon) >= 1.0/3600 {
		t.Errorf("expected ~%v, got %v", want, *got)
	}
	if got.Lat >= 0 {
		t.Errorf("expected southern latitude, got %f", got.Lat)
	}
}

func TestReadLocation_PartialAttributesAreAbsent(t *testing.T) {
	ctx := context.Background()
	store := exifmeta.NewJPEGStore(nil)
	path := writeJPEG(t, t.TempDir(), "partial.jpg")

	if err := store.SetAttributes(ctx, path, map[exifmeta.Key]string{
		exifmeta.KeyLatitude:    "48/1,51/1,23/1",
		exifmeta.KeyLatitudeRef: "N",
	}); err != nil {
		t.Fatalf("SetAttributes: %v", err)
	}

	var diags []Diagnostic
	tg := New(store, Options{OnDiagnostic: func(d Diagnostic) { diags = append(diags, d) }})

	got, err := tg.ReadLocation(ctx, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil location, got %v", *got)
	}
	if len(diags) != 1 || diags[0].Kind != DiagnosticPartial {
		t.Errorf("expected one partial diagnostic, got %+v", diags)
	}
}

func TestReadLocation_NoMetadata(t *testing.T) {
	var diags []Diagnostic
	tg := New(exifmeta.NewJPEGStore(nil), Options{OnDiagnostic: func(d Diagnostic) { diags = append(diags, d) }})
	path := writeJPEG(t, t.TempDir(), "plain.jpg")

	got, err := tg.ReadLocation(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", *got)
	}
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics for an untagged photo, got %+v", diags)
	}
}

func TestReadLocation_MalformedDegradesToAbsent(t *testing.T) {
	store := newFakeStore()
	store.attrs["bad.jpg"] = map[exifmeta.Key]string{
		exifmeta.KeyLatitude:     "48/1,51/1,23/1",
		exifmeta.KeyLatitudeRef:  "Q",
		exifmeta.KeyLongitude:    "2/1,21/1,7/1",
		exifmeta.KeyLongitudeRef: "E",
	}

	var diags []Diagnostic
	tg := New(store, Options{OnDiagnostic: func(d Diagnostic) { diags = append(diags, d) }})

	got, err := tg.ReadLocation(context.Background(), "bad.jpg")
	if err != nil {
		t.Fatalf("expected malformed data to be swallowed, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", *got)
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	if diags[0].Kind != DiagnosticMalformed {
		t.Errorf("expected kind %s, got %s", DiagnosticMalformed, diags[0].Kind)
	}
	if !errors.Is(diags[0].Err, geo.ErrMalformedCoordinate) {
		t.Errorf("expected diagnostic to wrap ErrMalformedCoordinate, got %v", diags[0].Err)
	}
}

func TestReadLocation_UnreadableImage(t *testing.T) {
	tg := New(exifmeta.NewJPEGStore(nil), Options{})
	path := filepath.Join(t.TempDir(), "corrupt.jpg")
	if err := os.WriteFile(path, []byte{0xFF, 0xD8, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := tg.ReadLocation(context.Background(), path)
	if !errors.Is(err, ErrImageUnreadable) {
		t.Errorf("expected ErrImageUnreadable, got %v", err)
	}
}

func TestWriteLocation_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unreadable", func(t *testing.T) {
		tg := New(exifmeta.NewJPEGStore(nil), Options{})
		err := tg.WriteLocation(ctx, filepath.Join(t.TempDir(), "missing.jpg"), geo.Point{Lat: 1, Lon: 1})
		if !errors.Is(err, ErrImageUnreadable) {
			t.Errorf("expected ErrImageUnreadable, got %v", err)
		}
	})

	t.Run("store rejects", func(t *testing.T) {
		cause := errors.New("disk full")
		store := newFakeStore()
		store.setErr = cause
		tg := New(store, Options{})

		err := tg.WriteLocation(ctx, "a.jpg", geo.Point{Lat: 1, Lon: 1})
		if !errors.Is(err, ErrMetadataWriteFailed) {
			t.Errorf("expected ErrMetadataWriteFailed, got %v", err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("expected underlying cause to be preserved, got %v", err)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		store := newFakeStore()
		store.setErr = exifmeta.ErrUnsupportedFormat
		tg := New(store, Options{})

		err := tg.WriteLocation(ctx, "a.png", geo.Point{Lat: 1, Lon: 1})
		if !errors.Is(err, ErrMetadataWriteFailed) {
			t.Errorf("expected ErrMetadataWriteFailed, got %v", err)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		store := newFakeStore()
		tg := New(store, Options{})

		err := tg.WriteLocation(ctx, "a.jpg", geo.Point{Lat: 91, Lon: 0})
		if !errors.Is(err, geo.ErrMalformedCoordinate) {
			t.Errorf("expected ErrMalformedCoordinate, got %v", err)
		}
		if len(store.attrs) != 0 {
			t.Error("expected nothing written for an invalid point")
		}
	})
}

func TestTagCapture(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	tg := New(store, Options{})

	tagged, err := tg.TagCapture(ctx, "nofix.jpg", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tagged {
		t.Error("expected untagged photo without a fix")
	}
	if _, ok := store.attrs["nofix.jpg"]; ok {
		t.Error("expected no attributes written without a fix")
	}

	fix := geo.Point{Lat: 50.0755, Lon: 14.4378}
	tagged, err = tg.TagCapture(ctx, "fix.jpg", &fix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tagged {
		t.Error("expected photo to be tagged")
	}
	if store.attrs["fix.jpg"][exifmeta.KeyLatitudeRef] != "N" {
		t.Errorf("expected latitude ref N, got %v", store.attrs["fix.jpg"])
	}
}

func TestWriteLocation_SerializedPerPath(t *testing.T) {
	store := newFakeStore()
	store.delay = 5 * time.Millisecond
	tg := New(store, Options{})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = tg.WriteLocation(context.Background(), "same.jpg", geo.Point{Lat: float64(i), Lon: 1})
		}(i)
	}
	wg.Wait()

	if got := store.maxSeen.Load(); got != 1 {
		t.Errorf("expected writes to one path to be serialized, saw %d concurrent", got)
	}
	if n := tg.locks.size(); n != 0 {
		t.Errorf("expected lock table to be empty after writes, got %d entries", n)
	}
}

func TestWriteLocation_ParallelAcrossPaths(t *testing.T) {
	store := newFakeStore()
	store.delay = 20 * time.Millisecond
	tg := New(store, Options{})

	var wg sync.WaitGroup
	for _, p := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"} {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			_ = tg.WriteLocation(context.Background(), p, geo.Point{Lat: 1, Lon: 1})
		}(p)
	}
	wg.Wait()

	if got := store.maxSeen.Load(); got < 2 {
		t.Errorf("expected writes to different paths to overlap, max concurrency was %d", got)
	}
}

func TestLockKey_NormalizesUnicode(t *testing.T) {
	composed := lockKey("/photos/Ji\u0159\u00ed.jpg")
	decomposed := lockKey("/photos/Jir\u030ci\u0301.jpg")
	if composed != decomposed {
		t.Errorf("expected NFC and NFD names to share a lock key, got %q and %q", composed, decomposed)
	}
}
