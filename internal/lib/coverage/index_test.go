package coverage

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/trailcover/internal/lib/geo"
)

// randomPoints scatters points across a few km around the Saou forest
func randomPoints(rng *rand.Rand, n int) []geo.Point {
	points := make([]geo.Point, n)
	for i := range points {
		points[i] = geo.Point{
			Latitude:  44.62 + rng.Float64()*0.06,
			Longitude: 5.03 + rng.Float64()*0.18,
		}
	}
	return points
}

func TestPointIndex_BruteForceCrossCheck(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points := randomPoints(rng, 300)
	queries := randomPoints(rng, 100)

	index := BuildIndex(points, 20.0)
	require.Equal(t, 300, index.Size())

	for _, radius := range []float64{5, 10, 25, 50, 200} {
		for _, q := range queries {
			want := false
			wantCount := 0
			for _, p := range points {
				if geo.HaversineM(q, p) <= radius {
					want = true
					wantCount++
				}
			}

			assert.Equal(t, want, index.Contains(q, radius),
				"Contains mismatch at radius %.0fm for %+v", radius, q)
			assert.Equal(t, wantCount, index.Count(q, radius),
				"Count mismatch at radius %.0fm for %+v", radius, q)
		}
	}
}

func TestPointIndex_NeighborhoodBoundary(t *testing.T) {
	// A query sitting right on a cell edge must still see points in the
	// adjacent cell.
	anchor := geo.Point{Latitude: 44.65, Longitude: 5.1}
	index := BuildIndex([]geo.Point{anchor}, 20.0)

	// ~15m east of the anchor: within a 20m radius, likely a different cell
	nearby := geo.Point{Latitude: 44.65, Longitude: 5.10019}
	d := geo.HaversineM(anchor, nearby)
	require.Less(t, d, 20.0)
	require.Greater(t, d, 10.0)

	assert.True(t, index.Contains(nearby, 20.0))
	assert.False(t, index.Contains(nearby, 10.0))
	assert.Equal(t, 1, index.Count(nearby, 20.0))
}

func TestPointIndex_Empty(t *testing.T) {
	index := BuildIndex(nil, 20.0)
	assert.Zero(t, index.Size())
	assert.Zero(t, index.Cells())
	assert.False(t, index.Contains(geo.Point{Latitude: 44.65, Longitude: 5.1}, 1e9))
	assert.Zero(t, index.Count(geo.Point{Latitude: 44.65, Longitude: 5.1}, 1e9))
}

func TestPointIndex_DegenerateBounds(t *testing.T) {
	// All points identical: bounding region has zero size, which must fall
	// back to a usable grid rather than failing.
	p := geo.Point{Latitude: 44.65, Longitude: 5.1}
	points := []geo.Point{p, p, p, p}

	index := BuildIndex(points, 0) // zero cell size also clamped
	assert.Equal(t, 4, index.Size())
	assert.Equal(t, 1, index.Cells())
	assert.True(t, index.Contains(p, 1.0))
	assert.Equal(t, 4, index.Count(p, 1.0))

	// A point 30m away is not matched at 10m radius
	far := geo.Point{Latitude: 44.65027, Longitude: 5.1}
	assert.False(t, index.Contains(far, 10.0))
}

func TestPointIndex_PointsOutsideRegion(t *testing.T) {
	// Queries (and matches) below/left of the index origin use negative
	// cell keys; they must behave identically.
	points := []geo.Point{
		{Latitude: 44.65, Longitude: 5.10},
		{Latitude: 44.66, Longitude: 5.12},
	}
	index := BuildIndex(points, 20.0)

	outside := geo.Point{Latitude: 44.64998, Longitude: 5.09997}
	d := geo.HaversineM(outside, points[0])
	require.Less(t, d, 10.0)
	assert.True(t, index.Contains(outside, 10.0))
}
