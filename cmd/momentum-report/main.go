package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"npopulse/internal/config"
	"npopulse/internal/exporter"
	"npopulse/internal/filings"
	"npopulse/internal/infrastructure"
	"npopulse/internal/momentum"
	"npopulse/internal/registry"
	"npopulse/internal/scoring"
)

func main() {
	inPath := flag.String("in", "", "flattened filing time series CSV (defaults to the pipeline's table)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogger()

	paths := config.GetPaths(cfg)
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("failed to create directories", "error", err)
		os.Exit(1)
	}

	if *inPath == "" {
		*inPath = paths.TimeseriesCSV
	}

	records, err := filings.LoadTimeseries(*inPath)
	if err != nil {
		logger.Error("failed to load time series", "path", *inPath, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	window := momentum.YearWindow{Start: cfg.Pipeline.WindowStart, End: cfg.Pipeline.WindowEnd}

	builder := momentum.NewBuilder(window, logger)
	rows := builder.Build(ctx, records)
	if err := momentum.SaveTrajectories(rows, window, paths.TrajectoryCSV); err != nil {
		logger.Error("failed to write trajectories", "error", err)
		os.Exit(1)
	}

	classifier := momentum.NewClassifier(logger)
	profiles := classifier.Classify(ctx, records)
	if err := momentum.SaveProfiles(profiles, paths.MomentumCSV); err != nil {
		logger.Error("failed to write momentum profiles", "error", err)
		os.Exit(1)
	}

	// With the classified registry present, carry through to the
	// scored table and cohort grid as well.
	if _, statErr := os.Stat(paths.MappedCSV); statErr == nil {
		if err := scoreAndExport(ctx, paths, logger, records, profiles); err != nil {
			logger.Error("failed to score organizations", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("classified registry not found, skipping scoring",
			"path", paths.MappedCSV)
	}

	counts := make(map[momentum.Class]int)
	for _, p := range profiles {
		counts[p.Class]++
	}
	fmt.Printf("built %d trajectories, classified %d organizations\n", len(rows), len(profiles))
	for _, class := range []momentum.Class{
		momentum.ClassTurbulent,
		momentum.ClassStrongUp,
		momentum.ClassStrongDown,
		momentum.ClassWeakUp,
		momentum.ClassWeakDown,
		momentum.ClassStable,
		momentum.ClassUncategorized,
	} {
		if counts[class] > 0 {
			fmt.Printf("  %-20s %d\n", class, counts[class])
		}
	}
}

func scoreAndExport(ctx context.Context, paths *config.Paths, logger *slog.Logger, records []filings.FilingRecord, profiles []momentum.Profile) error {
	orgs, err := registry.LoadExtract(paths.MappedCSV)
	if err != nil {
		return fmt.Errorf("load classified registry: %w", err)
	}

	merged := scoring.NewMerger(logger).Merge(ctx, orgs, profiles, records)
	if err := scoring.SaveProfiles(merged, paths.ProfilesCSV); err != nil {
		return fmt.Errorf("write merged profiles: %w", err)
	}

	scoring.ScoreAll(merged)
	if err := scoring.SaveScored(merged, paths.ScoredCSV); err != nil {
		return fmt.Errorf("write scored profiles: %w", err)
	}

	cohort := scoring.Summarize(merged)
	if err := scoring.SaveCohort(cohort, paths.CohortCSV); err != nil {
		return fmt.Errorf("write cohort summary: %w", err)
	}

	if err := exporter.NewReportExporter(paths, logger).Export(ctx, merged, cohort); err != nil {
		return fmt.Errorf("export reports: %w", err)
	}

	fmt.Printf("scored %d organizations\n", len(merged))
	return nil
}
