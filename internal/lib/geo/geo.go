package geo

import (
	"errors"
	"math"
)

// EarthRadiusM is the mean Earth radius used for all distance math.
const EarthRadiusM = 6371000.0

// Path legs shorter than this are treated as zero-length and skipped
// during interpolation; absorbs duplicate trackpoints and float jitter.
const minLegM = 1e-6

// geoUtils implements the GeoUtils interface
type geoUtils struct{}

// NewGeoUtils creates a new GeoUtils implementation
func NewGeoUtils() GeoUtils {
	return &geoUtils{}
}

// PointToPoint calculates great-circle distance between two points using Haversine formula
func (g *geoUtils) PointToPoint(p1, p2 Point) (float64, error) {
	if !isValidCoordinate(p1) || !isValidCoordinate(p2) {
		return 0, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}

	if p1.Latitude == p2.Latitude && p1.Longitude == p2.Longitude {
		return 0, nil
	}

	return haversine(p1.Latitude, p1.Longitude, p2.Latitude, p2.Longitude), nil
}

// PathLength calculates the cumulative great-circle length of a path in meters
func (g *geoUtils) PathLength(path []Point) (float64, error) {
	var total float64
	for i := 0; i < len(path)-1; i++ {
		d, err := g.PointToPoint(path[i], path[i+1])
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

// Interpolate resamples a path at fixed arc-length spacing. A sample is
// emitted at every multiple of spacingM along the cumulative path length,
// linearly interpolated between the bracketing original points. The first
// and last original points are always included, so a path shorter than the
// spacing still yields both endpoints.
func (g *geoUtils) Interpolate(path []Point, spacingM float64) ([]Point, error) {
	if spacingM <= 0 {
		return nil, errors.New("spacing must be positive")
	}
	if len(path) == 0 {
		return nil, nil
	}
	for _, p := range path {
		if !isValidCoordinate(p) {
			return nil, errors.New("invalid coordinates in path")
		}
	}
	if len(path) == 1 {
		return []Point{path[0]}, nil
	}

	samples := []Point{path[0]}

	// Distance already walked past the last emitted sample; carried across
	// legs so spacing stays uniform through vertices.
	remaining := 0.0

	for i := 0; i < len(path)-1; i++ {
		a, b := path[i], path[i+1]
		legLen := haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
		if legLen < minLegM {
			continue
		}

		d := spacingM - remaining
		for d <= legLen {
			frac := d / legLen
			samples = append(samples, Point{
				Latitude:  a.Latitude + (b.Latitude-a.Latitude)*frac,
				Longitude: a.Longitude + (b.Longitude-a.Longitude)*frac,
			})
			d += spacingM
		}
		remaining = legLen - (d - spacingM)
	}

	last := path[len(path)-1]
	if tail := samples[len(samples)-1]; tail != last {
		samples = append(samples, last)
	}

	return samples, nil
}

// BoundsOf computes the bounding box of a point sequence
func (g *geoUtils) BoundsOf(points []Point) (Bounds, error) {
	if len(points) == 0 {
		return Bounds{}, errors.New("cannot compute bounds of empty point set")
	}

	b := Bounds{
		South: points[0].Latitude,
		North: points[0].Latitude,
		West:  points[0].Longitude,
		East:  points[0].Longitude,
	}
	for _, p := range points[1:] {
		b.South = math.Min(b.South, p.Latitude)
		b.North = math.Max(b.North, p.Latitude)
		b.West = math.Min(b.West, p.Longitude)
		b.East = math.Max(b.East, p.Longitude)
	}
	return b, nil
}

// HaversineM computes the great-circle distance in meters between two
// points without coordinate validation. Hot loops (index queries) use this
// directly; everything else should go through PointToPoint.
func HaversineM(p1, p2 Point) float64 {
	return haversine(p1.Latitude, p1.Longitude, p2.Latitude, p2.Longitude)
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlon1 := lon1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlon2 := lon2 * math.Pi / 180

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// isValidCoordinate validates latitude and longitude ranges
func isValidCoordinate(p Point) bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}
