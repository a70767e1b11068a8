package geo

// Point represents a geographic coordinate
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Bounds represents a geographic bounding box
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Contains reports whether a point falls inside the bounding box (inclusive)
func (b Bounds) Contains(p Point) bool {
	return p.Latitude >= b.South && p.Latitude <= b.North &&
		p.Longitude >= b.West && p.Longitude <= b.East
}

// Center returns the midpoint of the bounding box
func (b Bounds) Center() Point {
	return Point{
		Latitude:  (b.South + b.North) / 2,
		Longitude: (b.West + b.East) / 2,
	}
}

// GeoUtils interface defines geographic calculation utilities
type GeoUtils interface {
	// Calculate great-circle distance between two points in meters
	PointToPoint(p1, p2 Point) (float64, error)

	// Calculate total length of a point sequence in meters
	PathLength(path []Point) (float64, error)

	// Resample a path at a fixed arc-length spacing; the first and last
	// original points are always part of the result
	Interpolate(path []Point, spacingM float64) ([]Point, error)

	// Compute the bounding box of a point sequence
	BoundsOf(points []Point) (Bounds, error)
}

// NewGeoUtils is implemented in geo.go
