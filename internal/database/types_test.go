package database

import (
	"errors"
	"testing"
	"time"
)

func TestMediaEntryNormalize(t *testing.T) {
	added := time.Date(2024, 3, 12, 10, 15, 2, 500, time.FixedZone("CET", 3600))

	got, err := MediaEntry{Path: "/gallery/./IMG_1.jpg", DateAdded: added}.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Path != "/gallery/IMG_1.jpg" {
		t.Errorf("expected cleaned path, got %q", got.Path)
	}
	if got.DisplayName != "IMG_1.jpg" {
		t.Errorf("expected display name from path, got %q", got.DisplayName)
	}
	if got.DateAdded.Location() != time.UTC || got.DateAdded.Nanosecond() != 0 {
		t.Errorf("expected UTC second precision, got %v", got.DateAdded)
	}
}

func TestMediaEntryNormalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"relative", "DCIM/IMG_1.jpg"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MediaEntry{Path: tc.path}.Normalize()
			if !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("expected ErrInvalidEntry, got %v", err)
			}
		})
	}
}

func TestMediaEntryNormalize_KeepsDisplayName(t *testing.T) {
	got, err := MediaEntry{Path: "/g/a.jpg", DisplayName: "Holiday"}.Normalize()
	if err != nil {
		t.Fatal(err)
	}
	if got.DisplayName != "Holiday" {
		t.Errorf("expected display name kept, got %q", got.DisplayName)
	}
	if got.DateAdded.IsZero() {
		t.Error("expected DateAdded defaulted")
	}
}
