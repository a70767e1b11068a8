// Package services wires the coverage pipeline together: trail network in,
// classified segments out, with every derived artifact memoized through
// the injected cache store.
package services

import (
	"context"
	"fmt"
	"log"

	"github.com/dpup/trailcover/internal/cache"
	"github.com/dpup/trailcover/internal/clients/gpxfiles"
	"github.com/dpup/trailcover/internal/clients/overpass"
	"github.com/dpup/trailcover/internal/config"
	"github.com/dpup/trailcover/internal/lib/coverage"
	"github.com/dpup/trailcover/internal/lib/geo"
	"github.com/dpup/trailcover/internal/lib/gridmap"
	"github.com/dpup/trailcover/internal/lib/network"
)

// CoverageService runs the trail coverage pipeline
type CoverageService struct {
	overpassClient *overpass.Client
	loader         *gpxfiles.Loader
	store          cache.Store
	segmenter      network.Segmenter
	classifier     coverage.Classifier
	geoUtils       geo.GeoUtils
	config         *config.Config
}

// NewCoverageService creates a new CoverageService. The cache store is
// injected so tests can substitute an in-memory fake.
func NewCoverageService(overpassClient *overpass.Client, loader *gpxfiles.Loader, store cache.Store, cfg *config.Config) *CoverageService {
	return &CoverageService{
		overpassClient: overpassClient,
		loader:         loader,
		store:          store,
		segmenter:      network.NewSegmenter(),
		classifier:     coverage.NewClassifier(),
		geoUtils:       geo.NewGeoUtils(),
		config:         cfg,
	}
}

// Config returns the configuration the service was built with
func (s *CoverageService) Config() *config.Config {
	return s.config
}

// PipelineResult bundles everything downstream consumers need
type PipelineResult struct {
	Segments      []network.Segment
	Coverage      coverage.Result
	Summary       coverage.Summary
	SkippedWays   int
	SkippedTracks int
	Activities    int
}

// Run executes the full pipeline: fetch/load inputs, segment the network,
// index the track samples, classify every segment.
func (s *CoverageService) Run(ctx context.Context) (*PipelineResult, error) {
	bounds := s.config.Region.Bounds()
	params := s.config.Engine

	snapshot, err := s.networkSnapshot(ctx, bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain trail network: %w", err)
	}
	networkFP := cache.BytesFingerprint(snapshot)

	segResult, err := s.segmentNetwork(ctx, snapshot, networkFP)
	if err != nil {
		return nil, fmt.Errorf("failed to segment trail network: %w", err)
	}
	log.Printf("Network: %d segments (%d ways skipped)", len(segResult.Segments), segResult.SkippedWays)

	activities, files, skippedTracks, err := s.loader.LoadDirectory(s.config.Activities.Dir, bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}

	samples, tracksFP, err := s.trackSamples(ctx, activities, files, bounds, params)
	if err != nil {
		return nil, fmt.Errorf("failed to sample tracks: %w", err)
	}

	index := coverage.BuildIndex(samples, params.IndexCellM)
	log.Printf("Built GPS index: %d cells, %d points", index.Cells(), index.Size())

	result, err := s.classify(ctx, segResult.Segments, index, networkFP, tracksFP, params)
	if err != nil {
		return nil, fmt.Errorf("failed to classify segments: %w", err)
	}

	summary := result.Summarize()
	log.Printf("Coverage: %d/%d segments, %.1f/%.1f km (%.0f%%)",
		summary.CoveredSegments, summary.TotalSegments,
		summary.CoveredKm, summary.TotalKm, summary.CoveredPercent())

	return &PipelineResult{
		Segments:      segResult.Segments,
		Coverage:      result,
		Summary:       summary,
		SkippedWays:   segResult.SkippedWays,
		SkippedTracks: skippedTracks,
		Activities:    len(activities),
	}, nil
}

// Grid computes the cell overlay for a pipeline result
func (s *CoverageService) Grid(result *PipelineResult) gridmap.Result {
	return gridmap.Compute(result.Segments, result.Coverage, s.config.Region.Bounds(), s.config.Export.GridCellM)
}

// ClearCaches drops every cached artifact so the next run recomputes
func (s *CoverageService) ClearCaches(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// networkSnapshot returns the raw Overpass snapshot for the region,
// fetching it only when no cached copy exists. The snapshot is the one
// artifact keyed by request rather than content: its own bytes are the
// content everything downstream is fingerprinted on.
func (s *CoverageService) networkSnapshot(ctx context.Context, bounds geo.Bounds) ([]byte, error) {
	key := cache.Key("osm", cache.NewFingerprint(
		fmt.Sprintf("%g,%g,%g,%g", bounds.South, bounds.West, bounds.North, bounds.East)))

	return cache.GetOrCompute(ctx, s.store, key, func() ([]byte, error) {
		return s.overpassClient.FetchRaw(ctx, bounds)
	})
}

// segmentNetwork parses and splits the network, memoized on the snapshot
func (s *CoverageService) segmentNetwork(ctx context.Context, snapshot []byte, networkFP cache.Fingerprint) (network.Result, error) {
	key := cache.Key("segments", networkFP)
	return cache.GetOrCompute(ctx, s.store, key, func() (network.Result, error) {
		ways, err := overpass.ParseWays(snapshot)
		if err != nil {
			return network.Result{}, err
		}
		return s.segmenter.Split(ways)
	})
}

// trackSamples interpolates every loaded track at track spacing, memoized
// on the activity files' identities, the region bounds that filtered
// them, and the spacing itself
func (s *CoverageService) trackSamples(ctx context.Context, activities []gpxfiles.Activity, files []string, bounds geo.Bounds, params coverage.Params) ([]geo.Point, cache.Fingerprint, error) {
	filesFP, err := cache.FilesFingerprint(files)
	if err != nil {
		return nil, "", err
	}
	tracksFP := cache.NewFingerprint(
		string(filesFP),
		fmt.Sprintf("bounds=%g,%g,%g,%g", bounds.South, bounds.West, bounds.North, bounds.East),
		fmt.Sprintf("spacing=%g", params.TrackSpacingM),
	)

	key := cache.Key("samples", tracksFP)
	samples, err := cache.GetOrCompute(ctx, s.store, key, func() ([]geo.Point, error) {
		var all []geo.Point
		for _, activity := range activities {
			for _, track := range activity.Tracks {
				interpolated, err := s.geoUtils.Interpolate(track.Points, params.TrackSpacingM)
				if err != nil {
					log.Printf("Warning: skipping malformed track in %s: %v", activity.File, err)
					continue
				}
				all = append(all, interpolated...)
			}
		}
		return all, nil
	})
	return samples, tracksFP, err
}

// classify runs the classifier, memoized on network + tracks + tuning
func (s *CoverageService) classify(ctx context.Context, segments []network.Segment, index *coverage.PointIndex, networkFP, tracksFP cache.Fingerprint, params coverage.Params) (coverage.Result, error) {
	key := cache.Key("coverage", cache.NewFingerprint(
		string(networkFP),
		string(tracksFP),
		fmt.Sprintf("radius=%g,segspacing=%g,threshold=%g", params.MatchRadiusM, params.SegmentSpacingM, params.CoveredThreshold),
	))
	return cache.GetOrCompute(ctx, s.store, key, func() (coverage.Result, error) {
		return s.classifier.Classify(ctx, segments, index, params)
	})
}
