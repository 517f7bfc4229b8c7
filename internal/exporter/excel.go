package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"npopulse/internal/scoring"
)

// Workbook sheet names
const (
	scoredSheet = "Scored Organizations"
	cohortSheet = "Cohort Summary"
)

// WriteWorkbook writes the scored table and cohort grid into a single
// Excel workbook, one sheet each, with a frozen styled header row.
func WriteWorkbook(outputPath string, profiles []scoring.MasterProfile, cohort []scoring.CohortCell) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", scoredSheet)
	if _, err := f.NewSheet(cohortSheet); err != nil {
		return fmt.Errorf("create cohort sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeSheet(f, scoredSheet, headerStyle, scoredReportHeader, scoredCells(profiles)); err != nil {
		return err
	}
	if err := writeSheet(f, cohortSheet, headerStyle, cohortReportHeader, cohortCells(cohort)); err != nil {
		return err
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// writeSheet fills one sheet: styled header row, frozen pane, then one
// row per record.
func writeSheet(f *excelize.File, sheet string, headerStyle int, header []string, rows [][]interface{}) error {
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell for %s: %w", sheet, err)
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("write header for %s: %w", sheet, err)
		}
	}

	endHeader, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", endHeader, headerStyle); err != nil {
		return fmt.Errorf("style header for %s: %w", sheet, err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header for %s: %w", sheet, err)
	}

	for i, row := range rows {
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row cell for %s: %w", sheet, err)
		}
		if err := f.SetSheetRow(sheet, start, &row); err != nil {
			return fmt.Errorf("write row %d for %s: %w", i, sheet, err)
		}
	}

	return nil
}

// scoredCells renders profiles as typed cell values so numerics stay
// numeric in the workbook.
func scoredCells(profiles []scoring.MasterProfile) [][]interface{} {
	rows := make([][]interface{}, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, []interface{}{
			p.Org.EIN,
			p.Org.Name,
			p.Org.City,
			p.Org.State,
			p.Org.ZIP,
			p.Org.Sector,
			string(p.Org.SizeBucket),
			string(p.Momentum.Class),
			p.Momentum.PctChange,
			p.Momentum.Volatility,
			nullableCell(p.LatestRevenue),
			nullableCell(p.LatestProgramPct),
			p.IsHollow,
			p.IsTurbulent,
			p.PriorityScore,
			string(p.TargetFlag),
		})
	}
	return rows
}

func cohortCells(cells []scoring.CohortCell) [][]interface{} {
	rows := make([][]interface{}, 0, len(cells))
	for _, c := range cells {
		rows = append(rows, []interface{}{
			c.Sector,
			string(c.SizeBucket),
			string(c.MomentumClass),
			c.OrgCount,
			nullableCell(c.AvgRevenue),
			nullableCell(c.AvgProgramPct),
			c.PctHollow,
			c.PctTurbulent,
		})
	}
	return rows
}

func nullableCell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
