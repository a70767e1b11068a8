package network

import (
	"log"
	"math"

	"github.com/dpup/trailcover/internal/lib/geo"
)

// Node coordinates are quantized to this many degrees before comparison so
// that shared nodes survive floating-point jitter between ways (1e-6 deg is
// roughly 10cm, far below GPS precision).
const nodeQuantum = 1e-6

// nodeKey identifies a quantized node coordinate
type nodeKey struct {
	lat int64
	lon int64
}

func keyFor(p geo.Point) nodeKey {
	return nodeKey{
		lat: int64(math.Round(p.Latitude / nodeQuantum)),
		lon: int64(math.Round(p.Longitude / nodeQuantum)),
	}
}

// segmenter implements the Segmenter interface
type segmenter struct{}

// NewSegmenter creates a new Segmenter implementation
func NewSegmenter() Segmenter {
	return &segmenter{}
}

// Split decomposes ways into atomic segments. A node is a split point when
// it is referenced by two or more distinct ways, or when it occurs more
// than once within a single way (self-intersection). Every split point
// encountered in a way's interior closes the current segment and opens the
// next one, so shared nodes always end up as segment endpoints.
func (s *segmenter) Split(ways []Way) (Result, error) {
	splitPoints := findSplitPoints(ways)

	var result Result
	for _, way := range ways {
		if countDistinctNodes(way.Points) < 2 {
			log.Printf("Warning: skipping degenerate way %d (%d points, <2 distinct)", way.ID, len(way.Points))
			result.SkippedWays++
			continue
		}

		result.Segments = append(result.Segments, splitWay(way, splitPoints)...)
	}

	return result, nil
}

// findSplitPoints maps every node shared between ways or repeated within a
// way to true
func findSplitPoints(ways []Way) map[nodeKey]bool {
	wayCount := make(map[nodeKey]int)
	split := make(map[nodeKey]bool)

	for _, way := range ways {
		seen := make(map[nodeKey]bool, len(way.Points))
		for _, p := range way.Points {
			k := keyFor(p)
			if seen[k] {
				// Interior repeat within a single way
				split[k] = true
				continue
			}
			seen[k] = true
			wayCount[k]++
			if wayCount[k] >= 2 {
				split[k] = true
			}
		}
	}

	return split
}

// splitWay walks one way's coordinates and emits a segment at every
// interior split point. A way with no interior split points yields itself.
func splitWay(way Way, splitPoints map[nodeKey]bool) []Segment {
	var segments []Segment
	ordinal := 0

	emit := func(points []geo.Point) {
		if countDistinctNodes(points) < 2 {
			// Zero-length run between adjacent duplicates; nothing to keep
			return
		}
		segments = append(segments, Segment{
			ID:      SegmentID(way.ID, ordinal),
			WayID:   way.ID,
			Ordinal: ordinal,
			Name:    way.Name,
			Type:    way.Type,
			Points:  points,
		})
		ordinal++
	}

	current := []geo.Point{way.Points[0]}
	for i := 1; i < len(way.Points); i++ {
		p := way.Points[i]
		current = append(current, p)

		// A split point at the way's end closes naturally below; splitting
		// there would leave a spurious zero-length segment.
		if i < len(way.Points)-1 && splitPoints[keyFor(p)] {
			emit(current)
			current = []geo.Point{p}
		}
	}
	emit(current)

	return segments
}

func countDistinctNodes(points []geo.Point) int {
	distinct := make(map[nodeKey]bool, len(points))
	for _, p := range points {
		distinct[keyFor(p)] = true
	}
	return len(distinct)
}
