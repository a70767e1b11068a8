package coverage

import (
	"math"

	"github.com/dpup/trailcover/internal/lib/geo"
)

// Cell sizes below this floor are clamped; protects against a degenerate
// bounding region (all points identical) producing a zero-size grid.
const minCellSizeM = 1.0

// cellKey addresses one grid cell relative to the region's minimum corner
type cellKey struct {
	row int64
	col int64
}

// PointIndex is a uniform grid over GPS track samples supporting
// radius-bounded proximity queries. It is built once, before
// classification starts, and is read-only afterwards, so concurrent
// queries need no locking.
type PointIndex struct {
	origin    geo.Point
	cellSizeM float64
	dlat      float64 // cell height in degrees
	dlon      float64 // cell width in degrees
	cells     map[cellKey][]geo.Point
	count     int
}

// BuildIndex constructs a grid index over the given sample points. The
// cell size is converted to lat/lon deltas at the centre of the points'
// bounding region.
func BuildIndex(points []geo.Point, cellSizeM float64) *PointIndex {
	if cellSizeM < minCellSizeM {
		cellSizeM = minCellSizeM
	}

	idx := &PointIndex{
		cellSizeM: cellSizeM,
		cells:     make(map[cellKey][]geo.Point),
	}
	if len(points) == 0 {
		idx.dlat = 1
		idx.dlon = 1
		return idx
	}

	g := geo.NewGeoUtils()
	bounds, _ := g.BoundsOf(points)
	idx.origin = geo.Point{Latitude: bounds.South, Longitude: bounds.West}

	centerLat := bounds.Center().Latitude * math.Pi / 180
	// cos(lat) shrinks toward the poles; clamp so dlon stays finite
	cosLat := math.Max(math.Abs(math.Cos(centerLat)), 0.01)

	idx.dlat = cellSizeM / geo.EarthRadiusM * (180 / math.Pi)
	idx.dlon = cellSizeM / (geo.EarthRadiusM * cosLat) * (180 / math.Pi)

	for _, p := range points {
		k := idx.keyFor(p)
		idx.cells[k] = append(idx.cells[k], p)
		idx.count++
	}

	return idx
}

func (idx *PointIndex) keyFor(p geo.Point) cellKey {
	return cellKey{
		row: int64(math.Floor((p.Latitude - idx.origin.Latitude) / idx.dlat)),
		col: int64(math.Floor((p.Longitude - idx.origin.Longitude) / idx.dlon)),
	}
}

// Contains reports whether any indexed point lies within radiusM of p
func (idx *PointIndex) Contains(p geo.Point, radiusM float64) bool {
	found := false
	idx.visitNeighborhood(p, radiusM, func(candidate geo.Point) bool {
		if geo.HaversineM(p, candidate) <= radiusM {
			found = true
			return false
		}
		return true
	})
	return found
}

// Count returns the number of indexed points within radiusM of p
func (idx *PointIndex) Count(p geo.Point, radiusM float64) int {
	n := 0
	idx.visitNeighborhood(p, radiusM, func(candidate geo.Point) bool {
		if geo.HaversineM(p, candidate) <= radiusM {
			n++
		}
		return true
	})
	return n
}

// Size returns the number of indexed points
func (idx *PointIndex) Size() int {
	return idx.count
}

// Cells returns the number of occupied grid cells
func (idx *PointIndex) Cells() int {
	return len(idx.cells)
}

// visitNeighborhood runs fn over every candidate point in the cells that
// could hold a match. With cell size >= radius that is the query cell and
// its 8 neighbours; for larger radii the ring widens accordingly. fn
// returning false stops the scan.
func (idx *PointIndex) visitNeighborhood(p geo.Point, radiusM float64, fn func(geo.Point) bool) {
	if idx.count == 0 {
		return
	}

	reach := int64(math.Ceil(radiusM / idx.cellSizeM))
	if reach < 1 {
		reach = 1
	}

	center := idx.keyFor(p)
	for dr := -reach; dr <= reach; dr++ {
		for dc := -reach; dc <= reach; dc++ {
			k := cellKey{row: center.row + dr, col: center.col + dc}
			for _, candidate := range idx.cells[k] {
				if !fn(candidate) {
					return
				}
			}
		}
	}
}
