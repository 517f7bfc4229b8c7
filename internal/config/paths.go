package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for file paths used by pipeline stages.
type Paths struct {
	DataDir      string
	RawDir       string // raw registry extracts
	CacheDir     string // per-EIN filing documents from the remote API
	ProcessedDir string // intermediate pipeline tables
	ReportsDir   string // final scored outputs
	LogsDir      string

	// Sector map configuration file
	SectorMapFile string

	// Well-known pipeline tables
	RegistryCSV   string // geo-filtered registry extract
	MappedCSV     string // registry + sector + size bucket
	TimeseriesCSV string // flattened filing history, long format
	TrajectoryCSV string // one row per org, per-year revenue columns
	MomentumCSV   string // momentum classification output
	ProfilesCSV   string // merged org profiles with flags
	ScoredCSV     string // scored org profiles with target flags
	CohortCSV     string // sector x size x momentum summary matrix

	// Reviewer-facing report artifacts live under ReportsDir
	ScoredXLSX    string // scored table as an Excel workbook
}

// NewPaths builds the path layout rooted at the given data directory.
// Directory structure:
//
//	data/
//	  ├── raw/          (registry extracts)
//	  ├── cache/        (per-EIN filing documents)
//	  ├── processed/    (intermediate pipeline tables)
//	  └── reports/      (scored outputs)
func NewPaths(dataDir string) *Paths {
	processedDir := filepath.Join(dataDir, "processed")
	reportsDir := filepath.Join(dataDir, "reports")

	return &Paths{
		DataDir:      dataDir,
		RawDir:       filepath.Join(dataDir, "raw"),
		CacheDir:     filepath.Join(dataDir, "cache"),
		ProcessedDir: processedDir,
		ReportsDir:   reportsDir,
		LogsDir:      "logs",

		SectorMapFile: filepath.Join(dataDir, "sector_map.json"),

		RegistryCSV:   filepath.Join(processedDir, "county_nonprofits.csv"),
		MappedCSV:     filepath.Join(processedDir, "county_mapped.csv"),
		TimeseriesCSV: filepath.Join(processedDir, "financial_timeseries.csv"),
		TrajectoryCSV: filepath.Join(processedDir, "org_trajectories.csv"),
		MomentumCSV:   filepath.Join(processedDir, "momentum_classification.csv"),
		ProfilesCSV:   filepath.Join(processedDir, "org_master_profiles.csv"),
		ScoredCSV:     filepath.Join(processedDir, "org_master_profiles_scored.csv"),
		CohortCSV:     filepath.Join(processedDir, "target_cohort_scores.csv"),
		ScoredXLSX:    filepath.Join(reportsDir, "org_master_profiles_scored.xlsx"),
	}
}

// GetPaths returns the path layout for the given configuration
func GetPaths(cfg *Config) *Paths {
	paths := NewPaths(cfg.Paths.DataDir)
	if cfg.Paths.LogsDir != "" {
		paths.LogsDir = cfg.Paths.LogsDir
	}
	if cfg.Pipeline.SectorMapFile != "" {
		paths.SectorMapFile = cfg.Pipeline.SectorMapFile
	}
	return paths
}

// EnsureDirectories creates all required directories
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.DataDir, p.RawDir, p.CacheDir, p.ProcessedDir, p.ReportsDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CachePath returns the cache file path for a single organization's filings
func (p *Paths) CachePath(ein string) string {
	return filepath.Join(p.CacheDir, ein+".json")
}
