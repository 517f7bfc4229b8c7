package exporter

import (
	"context"
	"log/slog"
	"path/filepath"

	"npopulse/internal/config"
	"npopulse/internal/scoring"
)

// Report file names under the reports directory
const (
	ScoredReportFile = "org_master_profiles_scored.csv"
	CohortReportFile = "target_cohort_scores.csv"
)

var scoredReportHeader = []string{
	"EIN", "NAME", "CITY", "STATE", "ZIP", "SECTOR", "SIZE_BUCKET",
	"MOMENTUM_CLASS", "PCT_CHANGE", "VOLATILITY",
	"REVENUE", "PROGRAM_PCT", "IS_HOLLOW", "IS_TURBULENT",
	"PRIORITY_SCORE", "TARGET_FLAG",
}

var cohortReportHeader = []string{
	"SECTOR", "SIZE_BUCKET", "MOMENTUM_CLASS", "ORG_COUNT",
	"AVG_REVENUE", "AVG_PROGRAM_PCT", "PCT_HOLLOW", "PCT_TURBULENT",
}

// ReportExporter writes the reviewer-facing report artifacts
type ReportExporter struct {
	paths  *config.Paths
	csv    *CSVWriter
	logger *slog.Logger
}

// NewReportExporter creates a report exporter rooted at the configured
// reports directory.
func NewReportExporter(paths *config.Paths, logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExporter{
		paths:  paths,
		csv:    NewCSVWriter(paths),
		logger: logger.With(slog.String("component", "report_exporter")),
	}
}

// Export writes the scored profile and cohort summary report CSVs plus
// the combined Excel workbook.
func (e *ReportExporter) Export(ctx context.Context, profiles []scoring.MasterProfile, cohort []scoring.CohortCell) error {
	if err := e.csv.WriteSimpleCSV(ScoredReportFile, scoredReportHeader, scoredRecords(profiles)); err != nil {
		return err
	}
	if err := e.csv.WriteSimpleCSV(CohortReportFile, cohortReportHeader, cohortRecords(cohort)); err != nil {
		return err
	}

	workbookPath := e.paths.ScoredXLSX
	if workbookPath == "" {
		workbookPath = filepath.Join(e.paths.ReportsDir, "org_master_profiles_scored.xlsx")
	}
	if err := WriteWorkbook(workbookPath, profiles, cohort); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "exported reports",
		slog.Int("scored_orgs", len(profiles)),
		slog.Int("cohort_cells", len(cohort)),
		slog.String("workbook", workbookPath),
	)

	return nil
}

// scoredRecords renders the reviewer view of the scored table: the
// identity, classification and scoring columns without the raw
// momentum intermediates.
func scoredRecords(profiles []scoring.MasterProfile) [][]string {
	records := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		records = append(records, []string{
			p.Org.EIN,
			p.Org.Name,
			p.Org.City,
			p.Org.State,
			p.Org.ZIP,
			p.Org.Sector,
			string(p.Org.SizeBucket),
			string(p.Momentum.Class),
			formatFloat(p.Momentum.PctChange),
			formatFloat(p.Momentum.Volatility),
			formatNullableFloat(p.LatestRevenue),
			formatNullableFloat(p.LatestProgramPct),
			formatBool(p.IsHollow),
			formatBool(p.IsTurbulent),
			formatInt(p.PriorityScore),
			string(p.TargetFlag),
		})
	}
	return records
}

func cohortRecords(cells []scoring.CohortCell) [][]string {
	records := make([][]string, 0, len(cells))
	for _, c := range cells {
		records = append(records, []string{
			c.Sector,
			string(c.SizeBucket),
			string(c.MomentumClass),
			formatInt(c.OrgCount),
			formatNullableFloat(c.AvgRevenue),
			formatNullableFloat(c.AvgProgramPct),
			formatFloat(c.PctHollow),
			formatFloat(c.PctTurbulent),
		})
	}
	return records
}
