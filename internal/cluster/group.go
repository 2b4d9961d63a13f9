// Package cluster groups photos that share an exact decoded location into
// map markers.
package cluster

import "github.com/kozaktomas/photo-map/internal/geo"

// PhotoRecord is a photo path with the location read from its metadata, if any.
type PhotoRecord struct {
	Path  string
	Point *geo.Point
}

// Cluster is every photo whose decoded location equals Point exactly, in scan
// order. Photos[0] is the cluster head.
type Cluster struct {
	Point  geo.Point `json:"point"`
	Photos []string  `json:"photos"`
}

// Group buckets records by exact point equality. Clusters come out in the order
// their first photo was seen, and focus is the location of the first record
// that has one (nil when none do).
func Group(records []PhotoRecord) (clusters []Cluster, focus *geo.Point) {
	index := make(map[geo.Point]int)

	for _, rec := range records {
		if rec.Point == nil {
			continue
		}
		p := *rec.Point
		if focus == nil {
			focus = &p
		}
		i, ok := index[p]
		if !ok {
			i = len(clusters)
			index[p] = i
			clusters = append(clusters, Cluster{Point: p})
		}
		clusters[i].Photos = append(clusters[i].Photos, rec.Path)
	}

	return clusters, focus
}
