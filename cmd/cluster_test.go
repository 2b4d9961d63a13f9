package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kozaktomas/photo-map/internal/cluster"
	"github.com/kozaktomas/photo-map/internal/geo"
)

func TestTableRenderer(t *testing.T) {
	paris := geo.Point{Lat: 48.8566, Lon: 2.3522}
	result := &cluster.Result{
		Scanned: 4,
		Located: 3,
		Skipped: []cluster.Skip{{Path: "/g/d.jpg", Reason: "no location"}},
		Clusters: []cluster.Cluster{
			{Point: paris, Photos: []string{"/g/a.jpg", "/g/b.jpg", "/g/c.jpg"}},
		},
		Focus: &paris,
	}

	var buf bytes.Buffer
	if err := cluster.Render(context.Background(), &tableRenderer{w: &buf, result: result}, result, 12); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Scanned 4 photos",
		"3 located, 1 skipped",
		"a.jpg",
		"b.jpg (+2)",
		"Focus: 48.856600, 2.352200 at zoom 12",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTableRenderer_NoLocations(t *testing.T) {
	result := &cluster.Result{Scanned: 2, Skipped: make([]cluster.Skip, 2)}

	var buf bytes.Buffer
	if err := cluster.Render(context.Background(), &tableRenderer{w: &buf, result: result}, result, 12); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No photos with a location") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if strings.Contains(buf.String(), "Focus") {
		t.Error("expected no focus line without locations")
	}
}

func TestNewClusterOutput(t *testing.T) {
	p := geo.Point{Lat: 1, Lon: 2}
	result := &cluster.Result{
		ScanID:   "scan",
		Clusters: []cluster.Cluster{{Point: p, Photos: []string{"a", "b"}}},
		Focus:    &p,
		Skipped:  []cluster.Skip{{Path: "c", Reason: "unreadable"}},
	}

	out := newClusterOutput(result, 12)
	if out.ScanID != "scan" || out.Zoom != 12 || out.Focus == nil {
		t.Errorf("unexpected header %+v", out)
	}
	if len(out.Markers) != 1 || out.Markers[0].View.Head != "a" || out.Markers[0].View.Overflow != 1 {
		t.Errorf("unexpected markers %+v", out.Markers)
	}
	if len(out.Skipped) != 1 || out.Skipped[0].Reason != "unreadable" {
		t.Errorf("unexpected skipped %+v", out.Skipped)
	}
}
