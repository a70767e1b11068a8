package gridmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/trailcover/internal/lib/coverage"
	"github.com/dpup/trailcover/internal/lib/geo"
	"github.com/dpup/trailcover/internal/lib/network"
)

func pt(lat, lon float64) geo.Point {
	return geo.Point{Latitude: lat, Longitude: lon}
}

func TestCompute_DistributesLengthAcrossCells(t *testing.T) {
	bounds := geo.Bounds{South: 44.64, West: 5.09, North: 44.66, East: 5.12}

	// ~790m of trail running east, long enough to cross several 200m cells
	seg := network.Segment{
		ID:     "1:0",
		Points: []geo.Point{pt(44.650, 5.100), pt(44.650, 5.110)},
	}
	result := coverage.Result{Segments: map[string]coverage.SegmentCoverage{
		"1:0": {SegmentID: "1:0", Classification: coverage.Covered, MatchedFraction: 0.9, LengthM: 790},
	}}

	grid := Compute([]network.Segment{seg}, result, bounds, 200.0)

	cellIDs := grid.SegmentCells["1:0"]
	require.NotEmpty(t, cellIDs)
	assert.GreaterOrEqual(t, len(cellIDs), 3, "a 790m segment should cross several 200m cells")

	// Length is split evenly across the segment's cells
	var totalKm, coveredKm float64
	for _, c := range grid.TrailCells() {
		assert.True(t, c.HasTrail)
		assert.True(t, c.Visited, "cells of a covered segment are visited")
		assert.Contains(t, c.SegmentIDs, "1:0")
		totalKm += c.TrailKm
		coveredKm += c.CoveredKm
	}
	assert.InDelta(t, 0.79, totalKm, 1e-9)
	assert.InDelta(t, 0.79, coveredKm, 1e-9)

	assert.Len(t, grid.TrailCells(), len(cellIDs))
}

func TestCompute_UncoveredSegment(t *testing.T) {
	bounds := geo.Bounds{South: 44.64, West: 5.09, North: 44.66, East: 5.12}
	seg := network.Segment{
		ID:     "2:0",
		Points: []geo.Point{pt(44.651, 5.101), pt(44.652, 5.102)},
	}
	result := coverage.Result{Segments: map[string]coverage.SegmentCoverage{
		"2:0": {SegmentID: "2:0", Classification: coverage.Uncovered, LengthM: 140},
	}}

	grid := Compute([]network.Segment{seg}, result, bounds, 200.0)

	for _, c := range grid.TrailCells() {
		assert.False(t, c.Visited)
		assert.Zero(t, c.CoveredKm)
		assert.Positive(t, c.TrailKm)
	}
}

func TestCompute_SegmentOutsideBounds(t *testing.T) {
	bounds := geo.Bounds{South: 44.64, West: 5.09, North: 44.66, East: 5.12}

	// Entirely north of the region: discretized points all fall outside
	seg := network.Segment{
		ID:     "3:0",
		Points: []geo.Point{pt(44.70, 5.10), pt(44.71, 5.10)},
	}
	result := coverage.Result{Segments: map[string]coverage.SegmentCoverage{
		"3:0": {SegmentID: "3:0", Classification: coverage.Covered, LengthM: 1100},
	}}

	grid := Compute([]network.Segment{seg}, result, bounds, 200.0)
	assert.Empty(t, grid.SegmentCells["3:0"])
	assert.Empty(t, grid.TrailCells())
}

func TestCell_Polygon(t *testing.T) {
	cfg := Config{
		OriginLat: 44.64, OriginLon: 5.09,
		DLat: 0.0018, DLon: 0.0025,
		Cols: 10, Rows: 10,
	}
	ring := Cell{Row: 2, Col: 3}.Polygon(cfg)
	require.Len(t, ring, 5)
	assert.Equal(t, ring[0], ring[4], "ring must be closed")
	assert.InDelta(t, 5.09+3*0.0025, ring[0][0], 1e-12)
	assert.InDelta(t, 44.64+2*0.0018, ring[0][1], 1e-12)
}
