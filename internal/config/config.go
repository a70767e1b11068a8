package config

import (
	"github.com/dpup/trailcover/internal/lib/coverage"
	"github.com/dpup/trailcover/internal/lib/geo"
)

// Config represents the complete tool configuration
type Config struct {
	Region     RegionConfig     `yaml:"region"`
	Overpass   OverpassConfig   `yaml:"overpass"`
	Activities ActivitiesConfig `yaml:"activities"`
	Cache      CacheConfig      `yaml:"cache"`
	Engine     coverage.Params  `yaml:"engine"`
	Export     ExportConfig     `yaml:"export"`
}

// RegionConfig defines the bounding box the tool operates on
type RegionConfig struct {
	Name  string  `yaml:"name"`
	South float64 `yaml:"south"`
	West  float64 `yaml:"west"`
	North float64 `yaml:"north"`
	East  float64 `yaml:"east"`
}

// Bounds converts the region to geo.Bounds
func (r RegionConfig) Bounds() geo.Bounds {
	return geo.Bounds{
		South: r.South,
		West:  r.West,
		North: r.North,
		East:  r.East,
	}
}

// OverpassConfig holds OSM Overpass API settings
type OverpassConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// ActivitiesConfig points at the directory of GPX recordings
type ActivitiesConfig struct {
	Dir string `yaml:"dir"`
}

// CacheConfig holds cache storage settings
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// ExportConfig holds output settings
type ExportConfig struct {
	GridCellM float64 `yaml:"grid_cell_m"`
	DataPath  string  `yaml:"data_path"`
	KMLPath   string  `yaml:"kml_path"`
}

// DefaultConfig returns a default configuration centered on the
// Synclinal de Saou massif
func DefaultConfig() *Config {
	return &Config{
		Region: RegionConfig{
			Name:  "Synclinal de Saou",
			South: 44.6178,
			West:  5.03539,
			North: 44.68416,
			East:  5.21463,
		},
		Overpass: OverpassConfig{
			Endpoint: "https://overpass-api.de/api/interpreter",
		},
		Activities: ActivitiesConfig{
			Dir: "activities",
		},
		Cache: CacheConfig{
			Dir: ".cache",
		},
		Engine: coverage.DefaultParams(),
		Export: ExportConfig{
			GridCellM: 200.0,
			DataPath:  "web/data.json",
			KMLPath:   "web/coverage.kml",
		},
	}
}
