package registry

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Registry extract column names (IRS exempt-organization master file layout)
const (
	colEIN     = "EIN"
	colName    = "NAME"
	colCity    = "CITY"
	colState   = "STATE"
	colZIP     = "ZIP"
	colNTEE    = "NTEE_CD"
	colIncome  = "INCOME_AMT"
	colAssets  = "ASSET_AMT"
	colRevenue = "REVENUE_AMT"
	colSector  = "SECTOR"
	colBucket  = "SIZE_BUCKET"
)

// LoadExtract loads a registry extract CSV. Rows with an empty EIN are
// skipped; numeric fields that fail to parse become nil, not zero.
func LoadExtract(csvPath string) ([]Organization, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open registry extract: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read registry extract: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("registry extract %s has no data rows", csvPath)
	}

	idx := headerIndex(records[0])
	for _, required := range []string{colEIN, colName, colCity, colState, colZIP} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("registry extract missing column %s", required)
		}
	}

	var orgs []Organization
	for _, row := range records[1:] {
		ein := strings.TrimSpace(field(row, idx, colEIN))
		if ein == "" {
			continue
		}

		orgs = append(orgs, Organization{
			EIN:        ein,
			Name:       strings.TrimSpace(field(row, idx, colName)),
			City:       strings.TrimSpace(field(row, idx, colCity)),
			State:      strings.TrimSpace(field(row, idx, colState)),
			ZIP:        NormalizeZIP(field(row, idx, colZIP)),
			NTEECode:   strings.TrimSpace(field(row, idx, colNTEE)),
			Income:     parseNullableFloat(field(row, idx, colIncome)),
			Assets:     parseNullableFloat(field(row, idx, colAssets)),
			Revenue:    parseNullableFloat(field(row, idx, colRevenue)),
			Sector:     strings.TrimSpace(field(row, idx, colSector)),
			SizeBucket: SizeBucket(strings.TrimSpace(field(row, idx, colBucket))),
		})
	}

	return orgs, nil
}

// SaveMapped writes classified organizations to a CSV file
func SaveMapped(orgs []Organization, outputPath string) error {
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

	header := []string{colEIN, colName, colCity, colState, colZIP, colNTEE,
		colIncome, colAssets, colRevenue, colSector, colBucket}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, org := range orgs {
		row := []string{
			org.EIN,
			org.Name,
			org.City,
			org.State,
			org.ZIP,
			org.NTEECode,
			formatNullableFloat(org.Income),
			formatNullableFloat(org.Assets),
			formatNullableFloat(org.Revenue),
			org.Sector,
			string(org.SizeBucket),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write CSV record for %s: %w", org.EIN, err)
		}
	}

	return writer.Error()
}

// headerIndex maps upper-cased column names to their positions
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	return idx
}

// field returns the named column from a row, or empty when absent
func field(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseNullableFloat coerces a CSV field to a float pointer, nil when
// empty or malformed
func parseNullableFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// formatNullableFloat renders a float pointer for CSV output, empty when nil
func formatNullableFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
