package network

import (
	"fmt"

	"github.com/dpup/trailcover/internal/lib/geo"
)

// TrailType classifies the OSM highway tag of a way. The engine carries it
// through untouched; filtering by type is the data source's concern.
type TrailType string

const (
	TrailPath    TrailType = "path"
	TrailTrack   TrailType = "track"
	TrailFootway TrailType = "footway"
	TrailOther   TrailType = "other"
)

// ParseTrailType maps an OSM highway tag value to a TrailType
func ParseTrailType(tag string) TrailType {
	switch tag {
	case "path":
		return TrailPath
	case "track":
		return TrailTrack
	case "footway":
		return TrailFootway
	default:
		return TrailOther
	}
}

// Way represents one trail element as delivered by the network source,
// before intersection-based splitting
type Way struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name,omitempty"`
	Type   TrailType   `json:"type"`
	Points []geo.Point `json:"points"`
}

// Segment is an atomic, intersection-free portion of a Way. Shared nodes
// only ever appear at segment endpoints. Segments are the unit of coverage
// classification and rendering.
type Segment struct {
	ID      string      `json:"id"`
	WayID   int64       `json:"way_id"`
	Ordinal int         `json:"ordinal"`
	Name    string      `json:"name,omitempty"`
	Type    TrailType   `json:"type"`
	Points  []geo.Point `json:"points"`
}

// SegmentID derives the stable identifier for the nth segment of a way.
// Stability across runs is what lets cached classification results be
// reused when the network is unchanged.
func SegmentID(wayID int64, ordinal int) string {
	return fmt.Sprintf("%d:%d", wayID, ordinal)
}

// Result holds the outcome of splitting a set of ways
type Result struct {
	Segments    []Segment `json:"segments"`
	SkippedWays int       `json:"skipped_ways"`
}

// Segmenter interface defines intersection-based way splitting
type Segmenter interface {
	// Split decomposes ways into atomic segments at shared or repeated nodes
	Split(ways []Way) (Result, error)
}

// NewSegmenter is implemented in segmenter.go
