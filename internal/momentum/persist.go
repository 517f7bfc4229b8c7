package momentum

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var profileHeader = []string{
	"EIN", "ORG_NAME", "AVG_RECENT_REVENUE", "AVG_PRIOR_REVENUE",
	"PCT_CHANGE", "MOMENTUM_SCORE", "NORMALIZED_MOMENTUM",
	"VOLATILITY", "MOMENTUM_CLASS",
}

// SaveProfiles writes momentum profiles to a CSV file
func SaveProfiles(profiles []Profile, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(profileHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, p := range profiles {
		row := []string{
			p.EIN,
			p.OrgName,
			formatFloat(p.AvgRecentRevenue),
			formatFloat(p.AvgPriorRevenue),
			formatFloat(p.PctChange),
			formatFloat(p.MomentumScore),
			formatFloat(p.NormalizedMomentum),
			formatFloat(p.Volatility),
			string(p.Class),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write CSV record for %s: %w", p.EIN, err)
		}
	}

	return writer.Error()
}

// LoadProfiles reads momentum profiles from a CSV file
func LoadProfiles(csvPath string) ([]Profile, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open momentum CSV: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read momentum CSV: %w", err)
	}

	if len(rows) < 1 {
		return nil, fmt.Errorf("momentum CSV %s is empty", csvPath)
	}

	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	cell := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	num := func(row []string, name string) float64 {
		v, err := strconv.ParseFloat(cell(row, name), 64)
		if err != nil {
			return 0
		}
		return v
	}

	var profiles []Profile
	for _, row := range rows[1:] {
		ein := cell(row, "EIN")
		if ein == "" {
			continue
		}

		profiles = append(profiles, Profile{
			EIN:                ein,
			OrgName:            cell(row, "ORG_NAME"),
			AvgRecentRevenue:   num(row, "AVG_RECENT_REVENUE"),
			AvgPriorRevenue:    num(row, "AVG_PRIOR_REVENUE"),
			PctChange:          num(row, "PCT_CHANGE"),
			MomentumScore:      num(row, "MOMENTUM_SCORE"),
			NormalizedMomentum: num(row, "NORMALIZED_MOMENTUM"),
			Volatility:         num(row, "VOLATILITY"),
			Class:              Class(cell(row, "MOMENTUM_CLASS")),
		})
	}

	return profiles, nil
}

// SaveTrajectories writes trajectory rows to a CSV file with one
// revenue column per window year.
func SaveTrajectories(rows []TrajectoryRow, window YearWindow, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	years := window.Years()
	header := []string{"EIN", "ORG_NAME"}
	for _, y := range years {
		header = append(header, fmt.Sprintf("REV_%d", y))
	}
	header = append(header, "CAGR", "VOLATILITY", "YEARS_UP", "YEARS_DOWN",
		"PEAK_YEAR", "TROUGH_YEAR", "REBOUND_RATE")

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, row := range rows {
		record := []string{row.EIN, row.OrgName}
		for _, y := range years {
			record = append(record, formatNullableFloat(row.Revenue[y]))
		}
		record = append(record,
			formatNullableFloat(row.CAGR),
			formatNullableFloat(row.Volatility),
			strconv.Itoa(row.YearsUp),
			strconv.Itoa(row.YearsDown),
			formatNullableInt(row.PeakYear),
			formatNullableInt(row.TroughYear),
			formatNullableFloat(row.ReboundRate),
		)
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write CSV record for %s: %w", row.EIN, err)
		}
	}

	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNullableFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatNullableInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
