package overpass

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/dpup/trailcover/internal/lib/geo"
	"github.com/dpup/trailcover/internal/lib/network"
)

// overpassResponse mirrors the `out geom` JSON shape
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags"`
	Geometry []overpassLatLon  `json:"geometry"`
}

type overpassLatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ParseWays converts an Overpass JSON snapshot into ways. Elements that
// are not ways, or ways with fewer than two geometry points, are skipped
// with a diagnostic rather than failing the snapshot.
func ParseWays(data []byte) ([]network.Way, error) {
	var response overpassResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse Overpass JSON: %w", err)
	}

	var ways []network.Way
	skipped := 0
	for _, elem := range response.Elements {
		if elem.Type != "way" {
			continue
		}
		if len(elem.Geometry) < 2 {
			skipped++
			continue
		}

		points := make([]geo.Point, len(elem.Geometry))
		for i, g := range elem.Geometry {
			points[i] = geo.Point{Latitude: g.Lat, Longitude: g.Lon}
		}

		ways = append(ways, network.Way{
			ID:     elem.ID,
			Name:   elem.Tags["name"],
			Type:   network.ParseTrailType(elem.Tags["highway"]),
			Points: points,
		})
	}

	if skipped > 0 {
		log.Printf("Warning: skipped %d degenerate ways in Overpass snapshot", skipped)
	}
	log.Printf("Parsed %d trails from OSM", len(ways))
	return ways, nil
}
