package export

import (
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"path/filepath"

	kml "github.com/twpayne/go-kml/v3"

	"github.com/dpup/trailcover/internal/lib/coverage"
	"github.com/dpup/trailcover/internal/lib/network"
)

var (
	coveredColor   = color.RGBA{R: 0xff, G: 0x45, B: 0x00, A: 0xe6} // orange
	uncoveredColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x59} // faint white
)

// BuildKML renders segments as styled line strings, covered and uncovered
// in separate folders
func BuildKML(segments []network.Segment, result coverage.Result, title string) *kml.KMLElement {
	coveredFolder := kml.Folder(kml.Name("Covered"))
	uncoveredFolder := kml.Folder(kml.Name("Uncovered"))

	for _, seg := range segments {
		cov := result.Segments[seg.ID]

		coords := make([]kml.Coordinate, len(seg.Points))
		for i, p := range seg.Points {
			coords[i] = kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude}
		}

		name := seg.Name
		if name == "" {
			name = seg.ID
		}

		placemark := kml.Placemark(
			kml.Name(name),
			kml.Description(fmt.Sprintf("%.0f m, %.0f%% matched", cov.LengthM, cov.MatchedFraction*100)),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(coords...),
			),
		)

		if cov.Classification == coverage.Covered {
			placemark.Add(kml.StyleURL("#covered"))
			coveredFolder.Add(placemark)
		} else {
			placemark.Add(kml.StyleURL("#uncovered"))
			uncoveredFolder.Add(placemark)
		}
	}

	return kml.KML(
		kml.Document(
			kml.Name(title),
			kml.SharedStyle("covered",
				kml.LineStyle(
					kml.Color(coveredColor),
					kml.Width(4),
				),
			),
			kml.SharedStyle("uncovered",
				kml.LineStyle(
					kml.Color(uncoveredColor),
					kml.Width(2),
				),
			),
			coveredFolder,
			uncoveredFolder,
		),
	)
}

// WriteKML renders the KML document to path
func WriteKML(segments []network.Segment, result coverage.Result, title, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := writeKMLTo(f, segments, result, title); err != nil {
		return err
	}
	log.Printf("Wrote KML for %d segments to %s", len(segments), path)
	return nil
}

func writeKMLTo(w io.Writer, segments []network.Segment, result coverage.Result, title string) error {
	doc := BuildKML(segments, result, title)
	if err := doc.WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to write KML: %w", err)
	}
	return nil
}
