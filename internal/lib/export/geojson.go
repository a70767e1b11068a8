// Package export serializes coverage results for downstream consumers:
// GeoJSON for the web UI and KML for map viewers.
package export

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/twpayne/go-polyline"

	"github.com/dpup/trailcover/internal/lib/coverage"
	"github.com/dpup/trailcover/internal/lib/geo"
	"github.com/dpup/trailcover/internal/lib/gridmap"
	"github.com/dpup/trailcover/internal/lib/network"
)

// Data is the top-level JSON document consumed by the web UI
type Data struct {
	// BBox is [west, south, east, north]
	BBox     [4]float64        `json:"bbox"`
	Grid     GridMeta          `json:"grid"`
	Segments FeatureCollection `json:"segments"`
	Cells    FeatureCollection `json:"cells"`
}

// GridMeta describes the cell grid layout
type GridMeta struct {
	CellSizeM float64    `json:"cell_size_m"`
	Origin    [2]float64 `json:"origin"` // lon, lat
	DLat      float64    `json:"dlat"`
	DLon      float64    `json:"dlon"`
}

// FeatureCollection is a GeoJSON feature collection
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON feature
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON geometry; Coordinates nesting depends on Type
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// BuildData assembles the export document from the pipeline's artifacts
func BuildData(segments []network.Segment, result coverage.Result, grid gridmap.Result, bounds geo.Bounds) Data {
	return Data{
		BBox: [4]float64{bounds.West, bounds.South, bounds.East, bounds.North},
		Grid: GridMeta{
			CellSizeM: grid.Config.CellSizeM,
			Origin:    [2]float64{grid.Config.OriginLon, grid.Config.OriginLat},
			DLat:      grid.Config.DLat,
			DLon:      grid.Config.DLon,
		},
		Segments: segmentFeatures(segments, result, grid),
		Cells:    cellFeatures(grid),
	}
}

// WriteJSON serializes the document to path, creating parent directories
func WriteJSON(data Data, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize export data: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	summary := coverageSummary(data)
	log.Printf("Exported %d segments and %d cells to %s (%s)",
		len(data.Segments.Features), len(data.Cells.Features), path, summary)
	return nil
}

func segmentFeatures(segments []network.Segment, result coverage.Result, grid gridmap.Result) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection"}
	for _, seg := range segments {
		cov := result.Segments[seg.ID]

		coords := make([][]float64, len(seg.Points))
		encodeInput := make([][]float64, len(seg.Points))
		for i, p := range seg.Points {
			coords[i] = []float64{p.Longitude, p.Latitude}
			encodeInput[i] = []float64{p.Latitude, p.Longitude}
		}

		cells := grid.SegmentCells[seg.ID]
		if cells == nil {
			cells = []int{}
		}

		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			Geometry: Geometry{Type: "LineString", Coordinates: coords},
			Properties: map[string]any{
				"id":           seg.ID,
				"name":         seg.Name,
				"type":         string(seg.Type),
				"length_m":     round(cov.LengthM, 1),
				"coverage_pct": round(cov.MatchedFraction, 2),
				"covered":      cov.Classification == coverage.Covered,
				"cells":        cells,
				"polyline":     string(polyline.EncodeCoords(encodeInput)),
			},
		})
	}
	return fc
}

func cellFeatures(grid gridmap.Result) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection"}
	for _, cell := range grid.TrailCells() {
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Polygon",
				Coordinates: [][][]float64{cell.Polygon(grid.Config)},
			},
			Properties: map[string]any{
				"id":          cell.ID,
				"has_trail":   cell.HasTrail,
				"visited":     cell.Visited,
				"trail_km":    round(cell.TrailKm, 3),
				"covered_km":  round(cell.CoveredKm, 3),
				"segment_ids": cell.SegmentIDs,
			},
		})
	}
	return fc
}

func coverageSummary(data Data) string {
	var totalKm, coveredKm float64
	for _, f := range data.Segments.Features {
		lengthM, _ := f.Properties["length_m"].(float64)
		totalKm += lengthM / 1000
		if covered, _ := f.Properties["covered"].(bool); covered {
			coveredKm += lengthM / 1000
		}
	}
	return fmt.Sprintf("%.1f/%.1f km covered", coveredKm, totalKm)
}

// round truncates to the given number of decimal places for stable output
func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
