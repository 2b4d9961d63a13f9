package cluster

import (
	"context"

	"github.com/kozaktomas/photo-map/internal/geo"
)

// MarkerView is what a map marker shows for one cluster: the head photo as
// preview, the second photo as a stacked card and an overflow badge.
type MarkerView struct {
	Head     string `json:"head"`
	Stack    string `json:"stack,omitempty"`
	Overflow int    `json:"overflow"`
	Count    int    `json:"count"`
}

// View derives the marker view of c. Overflow is Count-1 when the cluster holds
// more than one photo and zero otherwise.
func (c Cluster) View() MarkerView {
	v := MarkerView{Count: len(c.Photos)}
	if len(c.Photos) > 0 {
		v.Head = c.Photos[0]
	}
	if len(c.Photos) > 1 {
		v.Stack = c.Photos[1]
		v.Overflow = len(c.Photos) - 1
	}
	return v
}

// Placement is one marker ready for a map renderer.
type Placement struct {
	Point  geo.Point
	View   MarkerView
	Photos []string
}

// Renderer draws placements and frames the map around focus at zoom. focus is
// nil when no photo had a location.
type Renderer interface {
	Render(ctx context.Context, placements []Placement, focus *geo.Point, zoom float64) error
}

// Placements returns one placement per cluster, in cluster order.
func (r *Result) Placements() []Placement {
	out := make([]Placement, 0, len(r.Clusters))
	for _, c := range r.Clusters {
		out = append(out, Placement{Point: c.Point, View: c.View(), Photos: c.Photos})
	}
	return out
}

// Render hands the placements and focus of res to r.
func Render(ctx context.Context, r Renderer, res *Result, zoom float64) error {
	return r.Render(ctx, res.Placements(), res.Focus, zoom)
}
