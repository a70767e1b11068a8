package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dpup/prefab"
	"github.com/dpup/prefab/logging"

	"github.com/dpup/trailcover/internal/cache"
	"github.com/dpup/trailcover/internal/clients/gpxfiles"
	"github.com/dpup/trailcover/internal/clients/overpass"
	"github.com/dpup/trailcover/internal/config"
	"github.com/dpup/trailcover/internal/lib/export"
	"github.com/dpup/trailcover/internal/services"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "coverage":
		runCoverage(os.Args[2:])
	case "export":
		runExport(os.Args[2:])
	case "kml":
		runKML(os.Args[2:])
	case "clear-cache":
		runClearCache()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runCoverage(args []string) {
	fs := flag.NewFlagSet("coverage", flag.ExitOnError)
	noCache := fs.Bool("no-cache", false, "Drop cached artifacts and recompute everything")
	activities := fs.String("activities", "", "Override the activities directory")
	fs.Parse(args)

	_, result := runPipeline(*noCache, *activities, 0)

	fmt.Printf("Segments: %d (%d ways skipped)\n", len(result.Segments), result.SkippedWays)
	fmt.Printf("Activities: %d (%d degenerate tracks skipped)\n", result.Activities, result.SkippedTracks)
	fmt.Printf("Covered: %d/%d segments, %.1f/%.1f km (%.0f%%)\n",
		result.Summary.CoveredSegments, result.Summary.TotalSegments,
		result.Summary.CoveredKm, result.Summary.TotalKm,
		result.Summary.CoveredPercent())
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	noCache := fs.Bool("no-cache", false, "Drop cached artifacts and recompute everything")
	out := fs.String("out", "", "Output path (defaults to export.data_path from config)")
	activities := fs.String("activities", "", "Override the activities directory")
	gridCell := fs.Float64("grid", 0, "Override the overlay grid cell size in metres")
	fs.Parse(args)

	svc, result := runPipeline(*noCache, *activities, *gridCell)
	cfg := svc.Config()

	path := cfg.Export.DataPath
	if *out != "" {
		path = *out
	}

	grid := svc.Grid(result)
	data := export.BuildData(result.Segments, result.Coverage, grid, cfg.Region.Bounds())
	if err := export.WriteJSON(data, path); err != nil {
		log.Fatalf("Failed to write data file: %v", err)
	}
	fmt.Printf("Wrote %s\n", path)
}

func runKML(args []string) {
	fs := flag.NewFlagSet("kml", flag.ExitOnError)
	noCache := fs.Bool("no-cache", false, "Drop cached artifacts and recompute everything")
	out := fs.String("out", "", "Output path (defaults to export.kml_path from config)")
	activities := fs.String("activities", "", "Override the activities directory")
	fs.Parse(args)

	svc, result := runPipeline(*noCache, *activities, 0)
	cfg := svc.Config()

	path := cfg.Export.KMLPath
	if *out != "" {
		path = *out
	}

	if err := export.WriteKML(result.Segments, result.Coverage, cfg.Region.Name, path); err != nil {
		log.Fatalf("Failed to write KML file: %v", err)
	}
	fmt.Printf("Wrote %s\n", path)
}

func runClearCache() {
	cfg := loadConfig()
	store, err := cache.NewDiskStore(cfg.Cache.Dir)
	if err != nil {
		log.Fatalf("Failed to open cache: %v", err)
	}
	if err := store.Clear(rootContext()); err != nil {
		log.Fatalf("Failed to clear cache: %v", err)
	}
	fmt.Printf("Cleared cache at %s\n", cfg.Cache.Dir)
}

func runPipeline(noCache bool, activitiesDir string, gridCellM float64) (*services.CoverageService, *services.PipelineResult) {
	cfg := loadConfig()
	if activitiesDir != "" {
		cfg.Activities.Dir = activitiesDir
	}
	if gridCellM > 0 {
		cfg.Export.GridCellM = gridCellM
	}

	store, err := cache.NewDiskStore(cfg.Cache.Dir)
	if err != nil {
		log.Fatalf("Failed to open cache: %v", err)
	}

	svc := services.NewCoverageService(
		overpass.NewClient(cfg.Overpass.Endpoint),
		gpxfiles.NewLoader(),
		store,
		cfg,
	)

	ctx := rootContext()
	if noCache {
		if err := svc.ClearCaches(ctx); err != nil {
			log.Fatalf("Failed to clear caches: %v", err)
		}
	}

	result, err := svc.Run(ctx)
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}
	return svc, result
}

// rootContext builds the process-wide context with a structured logger
// attached, so context-scoped logging works outside a server
func rootContext() context.Context {
	return logging.With(context.Background(), logging.NewProdLogger())
}

// loadConfig loads configuration using Prefab's config system.
// Settings come from prefab.yaml and environment variables with the
// PF__ prefix, layered over the built-in defaults.
func loadConfig() *config.Config {
	appConfig := config.DefaultConfig()

	if err := prefab.Config.Unmarshal("region", &appConfig.Region); err != nil {
		log.Fatalf("Failed to unmarshal region section: %v", err)
	}
	if err := prefab.Config.Unmarshal("overpass", &appConfig.Overpass); err != nil {
		log.Fatalf("Failed to unmarshal overpass section: %v", err)
	}
	if err := prefab.Config.Unmarshal("activities", &appConfig.Activities); err != nil {
		log.Fatalf("Failed to unmarshal activities section: %v", err)
	}
	if err := prefab.Config.Unmarshal("cache", &appConfig.Cache); err != nil {
		log.Fatalf("Failed to unmarshal cache section: %v", err)
	}
	if err := prefab.Config.Unmarshal("engine", &appConfig.Engine); err != nil {
		log.Fatalf("Failed to unmarshal engine section: %v", err)
	}
	if err := prefab.Config.Unmarshal("export", &appConfig.Export); err != nil {
		log.Fatalf("Failed to unmarshal export section: %v", err)
	}

	return appConfig
}

func printUsage() {
	fmt.Println("Usage: trailcover <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  coverage     Run the coverage pipeline and print a summary")
	fmt.Println("  export       Run the pipeline and write the web data file")
	fmt.Println("  kml          Run the pipeline and write a KML overlay")
	fmt.Println("  clear-cache  Delete all cached artifacts")
	fmt.Println("  help         Print this message")
	fmt.Println()
	fmt.Println("Flags (coverage/export/kml):")
	fmt.Println("  -no-cache          Drop cached artifacts and recompute everything")
	fmt.Println("  -activities DIR    Override the activities directory")
	fmt.Println("  -out PATH          Override the output path (export/kml)")
	fmt.Println("  -grid METRES       Override the overlay cell size (export)")
}
