package scoring

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"npopulse/internal/momentum"
	"npopulse/internal/registry"
)

// Master profile CSV columns. The registry and momentum blocks keep
// their upstream column names so the file is self-describing next to
// the stage outputs it joins.
var profileHeader = []string{
	"EIN", "NAME", "CITY", "STATE", "ZIP", "NTEE_CD",
	"INCOME_AMT", "ASSET_AMT", "REVENUE_AMT", "SECTOR", "SIZE_BUCKET",
	"AVG_RECENT_REVENUE", "AVG_PRIOR_REVENUE", "PCT_CHANGE",
	"MOMENTUM_SCORE", "NORMALIZED_MOMENTUM", "VOLATILITY", "MOMENTUM_CLASS",
	"REVENUE", "PROGRAM_PCT", "IS_HOLLOW", "IS_TURBULENT",
}

var scoredHeader = append(append([]string{}, profileHeader...),
	"PRIORITY_SCORE", "TARGET_FLAG")

// SaveProfiles writes merged (unscored) master profiles to a CSV file
func SaveProfiles(profiles []MasterProfile, outputPath string) error {
	return writeProfiles(profiles, outputPath, false)
}

// SaveScored writes scored master profiles, including the priority
// score and target flag columns.
func SaveScored(profiles []MasterProfile, outputPath string) error {
	return writeProfiles(profiles, outputPath, true)
}

func writeProfiles(profiles []MasterProfile, outputPath string, scored bool) error {
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

	header := profileHeader
	if scored {
		header = scoredHeader
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, p := range profiles {
		row := []string{
			p.Org.EIN,
			p.Org.Name,
			p.Org.City,
			p.Org.State,
			p.Org.ZIP,
			p.Org.NTEECode,
			formatNullableFloat(p.Org.Income),
			formatNullableFloat(p.Org.Assets),
			formatNullableFloat(p.Org.Revenue),
			p.Org.Sector,
			string(p.Org.SizeBucket),
			formatFloat(p.Momentum.AvgRecentRevenue),
			formatFloat(p.Momentum.AvgPriorRevenue),
			formatFloat(p.Momentum.PctChange),
			formatFloat(p.Momentum.MomentumScore),
			formatFloat(p.Momentum.NormalizedMomentum),
			formatFloat(p.Momentum.Volatility),
			string(p.Momentum.Class),
			formatNullableFloat(p.LatestRevenue),
			formatNullableFloat(p.LatestProgramPct),
			strconv.FormatBool(p.IsHollow),
			strconv.FormatBool(p.IsTurbulent),
		}
		if scored {
			row = append(row, strconv.Itoa(p.PriorityScore), string(p.TargetFlag))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write CSV record for %s: %w", p.Org.EIN, err)
		}
	}

	return writer.Error()
}

// LoadScored reads a scored master profile CSV back into memory. Rows
// with an empty EIN are skipped; malformed numerics become nil or zero
// rather than failing the whole file.
func LoadScored(csvPath string) ([]MasterProfile, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open scored profiles: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read scored profiles: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("scored profiles %s is empty", csvPath)
	}

	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	if _, ok := idx["EIN"]; !ok {
		return nil, fmt.Errorf("scored profiles missing column EIN")
	}

	get := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var profiles []MasterProfile
	for _, row := range records[1:] {
		ein := strings.TrimSpace(get(row, "EIN"))
		if ein == "" {
			continue
		}

		p := MasterProfile{
			Org: registry.Organization{
				EIN:        ein,
				Name:       strings.TrimSpace(get(row, "NAME")),
				City:       strings.TrimSpace(get(row, "CITY")),
				State:      strings.TrimSpace(get(row, "STATE")),
				ZIP:        strings.TrimSpace(get(row, "ZIP")),
				NTEECode:   strings.TrimSpace(get(row, "NTEE_CD")),
				Income:     parseNullableFloat(get(row, "INCOME_AMT")),
				Assets:     parseNullableFloat(get(row, "ASSET_AMT")),
				Revenue:    parseNullableFloat(get(row, "REVENUE_AMT")),
				Sector:     strings.TrimSpace(get(row, "SECTOR")),
				SizeBucket: registry.SizeBucket(strings.TrimSpace(get(row, "SIZE_BUCKET"))),
			},
			Momentum: momentum.Profile{
				EIN:                ein,
				OrgName:            strings.TrimSpace(get(row, "NAME")),
				AvgRecentRevenue:   parseFloat(get(row, "AVG_RECENT_REVENUE")),
				AvgPriorRevenue:    parseFloat(get(row, "AVG_PRIOR_REVENUE")),
				PctChange:          parseFloat(get(row, "PCT_CHANGE")),
				MomentumScore:      parseFloat(get(row, "MOMENTUM_SCORE")),
				NormalizedMomentum: parseFloat(get(row, "NORMALIZED_MOMENTUM")),
				Volatility:         parseFloat(get(row, "VOLATILITY")),
				Class:              momentum.Class(strings.TrimSpace(get(row, "MOMENTUM_CLASS"))),
			},
			LatestRevenue:    parseNullableFloat(get(row, "REVENUE")),
			LatestProgramPct: parseNullableFloat(get(row, "PROGRAM_PCT")),
			TargetFlag:       TargetFlag(strings.TrimSpace(get(row, "TARGET_FLAG"))),
		}
		p.IsHollow = parseBool(get(row, "IS_HOLLOW"))
		p.IsTurbulent = parseBool(get(row, "IS_TURBULENT"))
		if score, err := strconv.Atoi(strings.TrimSpace(get(row, "PRIORITY_SCORE"))); err == nil {
			p.PriorityScore = score
		}

		profiles = append(profiles, p)
	}

	return profiles, nil
}

// SaveCohort writes the cohort summary grid to a CSV file
func SaveCohort(cells []CohortCell, outputPath string) error {
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

	header := []string{"SECTOR", "SIZE_BUCKET", "MOMENTUM_CLASS", "ORG_COUNT",
		"AVG_REVENUE", "AVG_PROGRAM_PCT", "PCT_HOLLOW", "PCT_TURBULENT"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, cell := range cells {
		row := []string{
			cell.Sector,
			string(cell.SizeBucket),
			string(cell.MomentumClass),
			strconv.Itoa(cell.OrgCount),
			formatNullableFloat(cell.AvgRevenue),
			formatNullableFloat(cell.AvgProgramPct),
			formatFloat(cell.PctHollow),
			formatFloat(cell.PctTurbulent),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
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

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

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

func parseBool(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && v
}
