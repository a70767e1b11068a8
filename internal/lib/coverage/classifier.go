package coverage

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/dpup/trailcover/internal/lib/geo"
	"github.com/dpup/trailcover/internal/lib/network"
)

// Classifier interface defines segment coverage classification against a
// built point index
type Classifier interface {
	// Classify labels every segment from its sample points' proximity to
	// indexed track samples. Pure function of its inputs: the index must be
	// fully built before the call and is only read.
	Classify(ctx context.Context, segments []network.Segment, index *PointIndex, params Params) (Result, error)
}

// classifier implements the Classifier interface
type classifier struct {
	geoUtils geo.GeoUtils
}

// NewClassifier creates a new Classifier implementation
func NewClassifier() Classifier {
	return &classifier{geoUtils: geo.NewGeoUtils()}
}

// Classify fans segments out over a worker pool. Each worker writes to its
// own slots of the results slice, so no locking is needed.
func (c *classifier) Classify(ctx context.Context, segments []network.Segment, index *PointIndex, params Params) (Result, error) {
	if index == nil {
		return Result{}, fmt.Errorf("classification requires a built point index")
	}

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(segments) {
		workers = len(segments)
	}

	results := make([]SegmentCoverage, len(segments))
	errs := make([]error, len(segments))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = c.classifySegment(segments[i], index, params)
			}
		}()
	}

	for i := range segments {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return Result{}, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	result := Result{Segments: make(map[string]SegmentCoverage, len(segments))}
	for i, sc := range results {
		if errs[i] != nil {
			return Result{}, fmt.Errorf("segment %s: %w", segments[i].ID, errs[i])
		}
		result.Segments[sc.SegmentID] = sc
	}
	return result, nil
}

// classifySegment samples one segment and applies the threshold rule
func (c *classifier) classifySegment(seg network.Segment, index *PointIndex, params Params) (SegmentCoverage, error) {
	samples, err := c.geoUtils.Interpolate(seg.Points, params.SegmentSpacingM)
	if err != nil {
		return SegmentCoverage{}, fmt.Errorf("failed to sample segment: %w", err)
	}

	length, err := c.geoUtils.PathLength(seg.Points)
	if err != nil {
		return SegmentCoverage{}, fmt.Errorf("failed to measure segment: %w", err)
	}

	sc := SegmentCoverage{
		SegmentID:      seg.ID,
		Classification: Uncovered,
		LengthM:        length,
		SampleCount:    len(samples),
	}

	// Shouldn't happen given the interpolation endpoint guarantee, but a
	// sample-less segment is simply uncovered.
	if len(samples) == 0 {
		return sc, nil
	}

	for _, sample := range samples {
		if index.Contains(sample, params.MatchRadiusM) {
			sc.MatchedCount++
		}
	}

	sc.MatchedFraction = float64(sc.MatchedCount) / float64(sc.SampleCount)
	if sc.MatchedFraction >= params.CoveredThreshold {
		sc.Classification = Covered
	}
	return sc, nil
}
