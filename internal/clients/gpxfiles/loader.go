// Package gpxfiles loads recorded activities from a directory of GPX
// files and prefilters them to the region of interest.
package gpxfiles

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/twpayne/go-gpx"

	"github.com/dpup/trailcover/internal/lib/geo"
)

// Track is one recorded point sequence with its bounding box, used to
// keep or discard whole tracks cheaply
type Track struct {
	Points []geo.Point `json:"points"`
	Bounds geo.Bounds  `json:"bounds"`
}

// Activity is one GPX file's worth of tracks
type Activity struct {
	Name   string  `json:"name"`
	File   string  `json:"file"`
	Tracks []Track `json:"tracks"`
}

// Loader reads GPX activities from disk
type Loader struct {
	geoUtils geo.GeoUtils
}

// NewLoader creates a new GPX activity loader
func NewLoader() *Loader {
	return &Loader{geoUtils: geo.NewGeoUtils()}
}

// LoadDirectory parses every .gpx file under dir (sorted by name) and
// returns the activities that have at least one track touching bounds,
// the list of files considered (the cache fingerprint input), and the
// number of degenerate tracks dropped for having fewer than two points.
// A file that fails to parse is skipped with a warning; an activity
// entirely outside the region is dropped.
func (l *Loader) LoadDirectory(dir string, bounds geo.Bounds) ([]Activity, []string, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to read activities directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".gpx") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	var activities []Activity
	skippedTracks := 0
	for _, file := range files {
		activity, skipped, err := l.loadFile(file, bounds)
		skippedTracks += skipped
		if skipped > 0 {
			log.Printf("Warning: skipped %d degenerate tracks (<2 points) in %s", skipped, file)
		}
		if err != nil {
			log.Printf("Warning: failed to parse %s: %v", file, err)
			continue
		}
		if activity == nil {
			log.Printf("Skipping %s: no tracks in region", file)
			continue
		}

		pointCount := 0
		for _, track := range activity.Tracks {
			pointCount += len(track.Points)
		}
		log.Printf("Loaded %s: %d tracks, %d points", activity.Name, len(activity.Tracks), pointCount)
		activities = append(activities, *activity)
	}

	log.Printf("Loaded %d activities from %s", len(activities), dir)
	return activities, files, skippedTracks, nil
}

// loadFile parses one GPX file; returns a nil activity when no track
// touches bounds, plus the number of degenerate tracks dropped
func (l *Loader) loadFile(path string, bounds geo.Bounds) (*Activity, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open: %w", err)
	}
	defer f.Close()

	doc, err := gpx.Read(f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse GPX: %w", err)
	}

	name := ""
	if doc.Metadata != nil {
		name = doc.Metadata.Name
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var tracks []Track
	skipped := 0
	for _, trk := range doc.Trk {
		for _, seg := range trk.TrkSeg {
			points := make([]geo.Point, 0, len(seg.TrkPt))
			for _, pt := range seg.TrkPt {
				points = append(points, geo.Point{Latitude: pt.Lat, Longitude: pt.Lon})
			}
			if len(points) < 2 {
				skipped++
				continue
			}

			trackBounds, err := l.geoUtils.BoundsOf(points)
			if err != nil {
				continue
			}
			if !intersects(trackBounds, bounds) {
				continue
			}

			tracks = append(tracks, Track{Points: points, Bounds: trackBounds})
		}
	}

	if len(tracks) == 0 {
		return nil, skipped, nil
	}
	return &Activity{Name: name, File: path, Tracks: tracks}, skipped, nil
}

// intersects reports whether two bounding boxes overlap. Tracks that only
// graze the region still count; precise matching happens downstream.
func intersects(a, b geo.Bounds) bool {
	return a.South <= b.North && a.North >= b.South &&
		a.West <= b.East && a.East >= b.West
}
