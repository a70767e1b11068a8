// Package gridmap aggregates classified trail segments into a coarse cell
// grid for the web UI: per-cell trail presence, visited state, and
// trail/covered distance totals.
package gridmap

import (
	"log"
	"math"
	"sort"

	"github.com/dpup/trailcover/internal/lib/coverage"
	"github.com/dpup/trailcover/internal/lib/geo"
	"github.com/dpup/trailcover/internal/lib/network"
)

// Step used when discretizing segment geometry into cells; fine enough
// that a segment cannot skip over a cell it passes through.
const discretizeStepM = 20.0

// Config describes the grid layout: origin at the region's SW corner,
// cell deltas in degrees, and dimensions.
type Config struct {
	CellSizeM float64 `json:"cell_size_m"`
	OriginLat float64 `json:"origin_lat"`
	OriginLon float64 `json:"origin_lon"`
	DLat      float64 `json:"dlat"`
	DLon      float64 `json:"dlon"`
	Cols      int     `json:"cols"`
	Rows      int     `json:"rows"`
}

// Cell holds per-cell aggregates
type Cell struct {
	ID         int      `json:"id"`
	Row        int      `json:"row"`
	Col        int      `json:"col"`
	HasTrail   bool     `json:"has_trail"`
	Visited    bool     `json:"visited"`
	TrailKm    float64  `json:"trail_km"`
	CoveredKm  float64  `json:"covered_km"`
	SegmentIDs []string `json:"segment_ids"`
}

// Polygon returns the cell's corner ring as (lon, lat) pairs, closed
func (c Cell) Polygon(cfg Config) [][]float64 {
	south := cfg.OriginLat + float64(c.Row)*cfg.DLat
	north := south + cfg.DLat
	west := cfg.OriginLon + float64(c.Col)*cfg.DLon
	east := west + cfg.DLon

	return [][]float64{
		{west, south},
		{east, south},
		{east, north},
		{west, north},
		{west, south},
	}
}

// Result is the computed grid overlay
type Result struct {
	Config Config `json:"config"`
	Cells  []Cell `json:"cells"`
	// SegmentCells maps each segment ID to the sorted cell IDs it crosses
	SegmentCells map[string][]int `json:"segment_cells"`
}

// Compute builds the grid overlay from segments and their coverage. Each
// segment's length is distributed evenly across the cells it crosses;
// a covered segment marks all its cells visited.
func Compute(segments []network.Segment, result coverage.Result, bounds geo.Bounds, cellSizeM float64) Result {
	g := geo.NewGeoUtils()

	centerLat := bounds.Center().Latitude * math.Pi / 180
	dlat := cellSizeM / geo.EarthRadiusM * (180 / math.Pi)
	dlon := cellSizeM / (geo.EarthRadiusM * math.Cos(centerLat)) * (180 / math.Pi)

	cfg := Config{
		CellSizeM: cellSizeM,
		OriginLat: bounds.South,
		OriginLon: bounds.West,
		DLat:      dlat,
		DLon:      dlon,
		Cols:      int(math.Ceil((bounds.East - bounds.West) / dlon)),
		Rows:      int(math.Ceil((bounds.North - bounds.South) / dlat)),
	}

	cells := make([]Cell, cfg.Cols*cfg.Rows)
	for id := range cells {
		cells[id] = Cell{ID: id, Row: id / cfg.Cols, Col: id % cfg.Cols}
	}

	segmentCells := make(map[string][]int, len(segments))

	for _, seg := range segments {
		cov := result.Segments[seg.ID]
		isCovered := cov.Classification == coverage.Covered

		points, err := g.Interpolate(seg.Points, discretizeStepM)
		if err != nil {
			log.Printf("Warning: could not discretize segment %s for grid: %v", seg.ID, err)
			continue
		}

		seen := make(map[int]bool)
		for _, p := range points {
			if id, ok := pointToCell(p, cfg, bounds); ok {
				seen[id] = true
			}
		}

		cellIDs := make([]int, 0, len(seen))
		for id := range seen {
			cellIDs = append(cellIDs, id)
		}
		sort.Ints(cellIDs)
		segmentCells[seg.ID] = cellIDs

		if len(cellIDs) == 0 {
			continue
		}

		kmPerCell := cov.LengthM / 1000 / float64(len(cellIDs))
		for _, id := range cellIDs {
			cell := &cells[id]
			cell.HasTrail = true
			cell.TrailKm += kmPerCell
			if isCovered {
				cell.Visited = true
				cell.CoveredKm += kmPerCell
			}
			cell.SegmentIDs = append(cell.SegmentIDs, seg.ID)
		}
	}

	trailCells, visitedCells := 0, 0
	for _, c := range cells {
		if c.HasTrail {
			trailCells++
			if c.Visited {
				visitedCells++
			}
		}
	}
	log.Printf("Grid: %dx%d cells, %d with trails, %d visited",
		cfg.Cols, cfg.Rows, trailCells, visitedCells)

	return Result{Config: cfg, Cells: cells, SegmentCells: segmentCells}
}

// TrailCells returns only the cells that contain trail geometry
func (r Result) TrailCells() []Cell {
	var out []Cell
	for _, c := range r.Cells {
		if c.HasTrail {
			out = append(out, c)
		}
	}
	return out
}

func pointToCell(p geo.Point, cfg Config, bounds geo.Bounds) (int, bool) {
	if !bounds.Contains(p) {
		return 0, false
	}
	col := int(math.Floor((p.Longitude - cfg.OriginLon) / cfg.DLon))
	row := int(math.Floor((p.Latitude - cfg.OriginLat) / cfg.DLat))
	if col < 0 || col >= cfg.Cols || row < 0 || row >= cfg.Rows {
		return 0, false
	}
	return row*cfg.Cols + col, true
}
