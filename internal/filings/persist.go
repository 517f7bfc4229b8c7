package filings

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var timeseriesHeader = []string{
	"EIN", "ORG_NAME", "YEAR", "REVENUE", "EXPENSES", "ASSETS",
	"PROGRAM_REVENUE", "CONTRIBUTIONS", "PROGRAM_PCT",
}

// SaveTimeseries writes the flattened time series to a CSV file
func SaveTimeseries(records []FilingRecord, outputPath string) error {
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

	if err := writer.Write(timeseriesHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.EIN,
			r.OrgName,
			strconv.Itoa(r.Year),
			formatNullable(r.Revenue),
			formatNullable(r.Expenses),
			formatNullable(r.Assets),
			formatNullable(r.ProgramRev),
			formatNullable(r.Contributions),
			formatNullable(r.ProgramPct),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write CSV record for %s/%d: %w", r.EIN, r.Year, err)
		}
	}

	return writer.Error()
}

// LoadTimeseries reads a flattened time series CSV. Rows without a
// parseable year are skipped; missing numeric fields are nil.
func LoadTimeseries(csvPath string) ([]FilingRecord, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open timeseries CSV: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read timeseries CSV: %w", err)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("timeseries CSV %s has no data rows", csvPath)
	}

	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"EIN", "YEAR", "REVENUE"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("timeseries CSV missing column %s", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []FilingRecord
	for _, row := range rows[1:] {
		ein := cell(row, "EIN")
		year, err := strconv.Atoi(cell(row, "YEAR"))
		if ein == "" || err != nil {
			continue
		}

		records = append(records, FilingRecord{
			EIN:           ein,
			OrgName:       cell(row, "ORG_NAME"),
			Year:          year,
			Revenue:       parseNullable(cell(row, "REVENUE")),
			Expenses:      parseNullable(cell(row, "EXPENSES")),
			Assets:        parseNullable(cell(row, "ASSETS")),
			ProgramRev:    parseNullable(cell(row, "PROGRAM_REVENUE")),
			Contributions: parseNullable(cell(row, "CONTRIBUTIONS")),
			ProgramPct:    parseNullable(cell(row, "PROGRAM_PCT")),
		})
	}

	return records, nil
}

// parseNullable coerces a CSV field to a float pointer, nil when empty
// or malformed
func parseNullable(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// formatNullable renders a float pointer for CSV output, empty when nil
func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
