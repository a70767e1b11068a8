package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/trailcover/internal/lib/coverage"
	"github.com/dpup/trailcover/internal/lib/geo"
	"github.com/dpup/trailcover/internal/lib/gridmap"
	"github.com/dpup/trailcover/internal/lib/network"
)

var testBounds = geo.Bounds{South: 44.64, West: 5.09, North: 44.66, East: 5.12}

func fixtures() ([]network.Segment, coverage.Result, gridmap.Result) {
	segments := []network.Segment{
		{
			ID: "1:0", Name: "Sentier des Trois Becs", Type: network.TrailPath,
			Points: []geo.Point{
				{Latitude: 44.650, Longitude: 5.100},
				{Latitude: 44.650, Longitude: 5.105},
			},
		},
		{
			ID: "2:0", Type: network.TrailTrack,
			Points: []geo.Point{
				{Latitude: 44.655, Longitude: 5.100},
				{Latitude: 44.656, Longitude: 5.101},
			},
		},
	}
	result := coverage.Result{Segments: map[string]coverage.SegmentCoverage{
		"1:0": {SegmentID: "1:0", Classification: coverage.Covered, MatchedFraction: 0.92, LengthM: 396.4},
		"2:0": {SegmentID: "2:0", Classification: coverage.Uncovered, MatchedFraction: 0.04, LengthM: 137.2},
	}}
	grid := gridmap.Compute(segments, result, testBounds, 200.0)
	return segments, result, grid
}

func TestBuildData(t *testing.T) {
	segments, result, grid := fixtures()
	data := BuildData(segments, result, grid, testBounds)

	assert.Equal(t, [4]float64{5.09, 44.64, 5.12, 44.66}, data.BBox)
	assert.Equal(t, 200.0, data.Grid.CellSizeM)
	assert.Equal(t, [2]float64{5.09, 44.64}, data.Grid.Origin)

	require.Len(t, data.Segments.Features, 2)
	first := data.Segments.Features[0]
	assert.Equal(t, "LineString", first.Geometry.Type)
	assert.Equal(t, "1:0", first.Properties["id"])
	assert.Equal(t, true, first.Properties["covered"])
	assert.Equal(t, 396.4, first.Properties["length_m"])
	assert.Equal(t, 0.92, first.Properties["coverage_pct"])
	assert.NotEmpty(t, first.Properties["polyline"], "encoded polyline present")
	assert.NotEmpty(t, first.Properties["cells"])

	second := data.Segments.Features[1]
	assert.Equal(t, false, second.Properties["covered"])

	// GeoJSON coordinates are lon,lat ordered
	coords := first.Geometry.Coordinates.([][]float64)
	assert.Equal(t, []float64{5.100, 44.650}, coords[0])

	assert.NotEmpty(t, data.Cells.Features)
	for _, cell := range data.Cells.Features {
		assert.Equal(t, "Polygon", cell.Geometry.Type)
		assert.Equal(t, true, cell.Properties["has_trail"])
	}
}

func TestWriteJSON_RoundTrips(t *testing.T) {
	segments, result, grid := fixtures()
	data := BuildData(segments, result, grid, testBounds)

	path := filepath.Join(t.TempDir(), "web", "data.json")
	require.NoError(t, WriteJSON(data, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "bbox")
	assert.Contains(t, decoded, "segments")
	assert.Contains(t, decoded, "cells")
}

func TestBuildKML(t *testing.T) {
	segments, result, _ := fixtures()

	var buf bytes.Buffer
	require.NoError(t, writeKMLTo(&buf, segments, result, "Saou Trail Coverage"))
	out := buf.String()

	assert.Contains(t, out, "Saou Trail Coverage")
	assert.Contains(t, out, "<LineString>")
	assert.Contains(t, out, "Sentier des Trois Becs")
	// The unnamed segment falls back to its id
	assert.Contains(t, out, "2:0")
	assert.Contains(t, out, "#covered")
	assert.Contains(t, out, "#uncovered")
	// Coordinates are lon,lat
	assert.Contains(t, out, "5.1,44.65")
}

func TestWriteKML(t *testing.T) {
	segments, result, _ := fixtures()
	path := filepath.Join(t.TempDir(), "out", "coverage.kml")
	require.NoError(t, WriteKML(segments, result, "Coverage", path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<kml")
}
