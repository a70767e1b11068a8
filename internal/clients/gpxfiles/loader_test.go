package gpxfiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/trailcover/internal/lib/geo"
)

const insideGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <metadata><name>Morning Hike</name></metadata>
  <trk>
    <trkseg>
      <trkpt lat="44.6476" lon="5.0609"></trkpt>
      <trkpt lat="44.6480" lon="5.0630"></trkpt>
      <trkpt lat="44.6491" lon="5.0662"></trkpt>
    </trkseg>
  </trk>
</gpx>`

const outsideGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <trkseg>
      <trkpt lat="48.85" lon="2.35"></trkpt>
      <trkpt lat="48.86" lon="2.36"></trkpt>
    </trkseg>
  </trk>
</gpx>`

const tinyGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <trkseg>
      <trkpt lat="44.65" lon="5.10"></trkpt>
    </trkseg>
  </trk>
</gpx>`

var saouBounds = geo.Bounds{South: 44.6178, West: 5.03539, North: 44.68416, East: 5.21463}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoader_LoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "2026-03-01-hike.gpx", insideGPX)
	writeFile(t, dir, "2026-03-02-paris.gpx", outsideGPX)
	writeFile(t, dir, "notes.txt", "not a gpx file")

	activities, files, skipped, err := NewLoader().LoadDirectory(dir, saouBounds)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)

	// Both .gpx files are fingerprint inputs, sorted; the txt file is not
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "2026-03-01-hike.gpx"), files[0])

	// Only the in-region activity survives
	require.Len(t, activities, 1)
	assert.Equal(t, "Morning Hike", activities[0].Name)
	require.Len(t, activities[0].Tracks, 1)
	assert.Len(t, activities[0].Tracks[0].Points, 3)

	track := activities[0].Tracks[0]
	assert.True(t, saouBounds.Contains(track.Points[0]))
	assert.InDelta(t, 44.6476, track.Bounds.South, 1e-9)
	assert.InDelta(t, 5.0662, track.Bounds.East, 1e-9)
}

func TestLoader_NameFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "evening-run.gpx", outsideGPX)

	activities, _, _, err := NewLoader().LoadDirectory(dir, geo.Bounds{South: 48, West: 2, North: 49, East: 3})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "evening-run", activities[0].Name)
}

func TestLoader_SkipsDegenerateAndMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tiny.gpx", tinyGPX)
	writeFile(t, dir, "broken.gpx", "<gpx><unclosed")
	writeFile(t, dir, "good.gpx", insideGPX)

	activities, files, skipped, err := NewLoader().LoadDirectory(dir, saouBounds)
	require.NoError(t, err)
	assert.Len(t, files, 3)

	// Single-point tracks and unparseable files are skipped, not fatal,
	// and the degenerate track is counted
	require.Len(t, activities, 1)
	assert.Equal(t, "Morning Hike", activities[0].Name)
	assert.Equal(t, 1, skipped)
}

func TestLoader_MissingDirectory(t *testing.T) {
	_, _, _, err := NewLoader().LoadDirectory(filepath.Join(t.TempDir(), "nope"), saouBounds)
	assert.Error(t, err)
}
