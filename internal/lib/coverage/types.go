package coverage

// Classification represents the coverage state of a trail segment
type Classification string

const (
	Unclassified Classification = "unclassified"
	Covered      Classification = "covered"   // matched fraction >= threshold
	Uncovered    Classification = "uncovered" // matched fraction < threshold
)

// SegmentCoverage is the per-segment classification outcome
type SegmentCoverage struct {
	SegmentID       string         `json:"segment_id"`
	Classification  Classification `json:"classification"`
	MatchedFraction float64        `json:"matched_fraction"`
	LengthM         float64        `json:"length_m"`
	SampleCount     int            `json:"sample_count"`
	MatchedCount    int            `json:"matched_count"`
}

// Result maps every segment produced by the segmenter to exactly one
// coverage entry
type Result struct {
	Segments map[string]SegmentCoverage `json:"segments"`
}

// Summary aggregates a Result for reporting
type Summary struct {
	TotalSegments   int     `json:"total_segments"`
	CoveredSegments int     `json:"covered_segments"`
	TotalKm         float64 `json:"total_km"`
	CoveredKm       float64 `json:"covered_km"`
}

// Summarize computes aggregate totals over a coverage result
func (r Result) Summarize() Summary {
	var s Summary
	for _, sc := range r.Segments {
		s.TotalSegments++
		s.TotalKm += sc.LengthM / 1000
		if sc.Classification == Covered {
			s.CoveredSegments++
			s.CoveredKm += sc.LengthM / 1000
		}
	}
	return s
}

// CoveredPercent returns covered distance as a percentage of total
func (s Summary) CoveredPercent() float64 {
	if s.TotalKm == 0 {
		return 0
	}
	return s.CoveredKm / s.TotalKm * 100
}

// Params holds the engine's tunable policy values. They are supplied by
// the caller; the defaults are empirical, not derived from any property
// of the geometry.
type Params struct {
	MatchRadiusM     float64 `yaml:"match_radius_m" json:"match_radius_m"`
	TrackSpacingM    float64 `yaml:"track_spacing_m" json:"track_spacing_m"`
	SegmentSpacingM  float64 `yaml:"segment_spacing_m" json:"segment_spacing_m"`
	CoveredThreshold float64 `yaml:"covered_threshold" json:"covered_threshold"`
	IndexCellM       float64 `yaml:"index_cell_m" json:"index_cell_m"`
	Workers          int     `yaml:"workers" json:"workers"`
}

// DefaultParams returns the standard engine tuning
func DefaultParams() Params {
	return Params{
		MatchRadiusM:     10.0,
		TrackSpacingM:    2.0,
		SegmentSpacingM:  5.0,
		CoveredThreshold: 0.5,
		IndexCellM:       20.0,
		Workers:          0, // 0 means one per CPU
	}
}
