package momentum

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"npopulse/internal/filings"
)

func testWindow() YearWindow {
	return YearWindow{Start: 2019, End: 2023}
}

func buildOne(t *testing.T, records []filings.FilingRecord) TrajectoryRow {
	t.Helper()
	builder := NewBuilder(testWindow(), nil)
	rows := builder.Build(context.Background(), records)
	require.Len(t, rows, 1)
	return rows[0]
}

func TestBuild_FullTrajectory(t *testing.T) {
	records := []filings.FilingRecord{
		{EIN: "1", OrgName: "ORG 1", Year: 2019, Revenue: floatP(100)},
		{EIN: "1", OrgName: "ORG 1", Year: 2020, Revenue: floatP(110)},
		{EIN: "1", OrgName: "ORG 1", Year: 2021, Revenue: floatP(105)},
		// 2022 missing entirely
		{EIN: "1", OrgName: "ORG 1", Year: 2023, Revenue: floatP(120)},
		// outside the window, ignored
		{EIN: "1", OrgName: "ORG 1", Year: 2015, Revenue: floatP(999)},
	}

	row := buildOne(t, records)

	require.NotNil(t, row.Revenue[2019])
	assert.Nil(t, row.Revenue[2022])

	require.NotNil(t, row.CAGR)
	assert.InDelta(t, 4.66, *row.CAGR, 1e-9) // (120/100)^(1/4)-1

	require.NotNil(t, row.Volatility)
	assert.InDelta(t, 9, *row.Volatility, 1e-9) // sample std of 100,110,105,120

	assert.Equal(t, 1, row.YearsUp)   // 2019->2020
	assert.Equal(t, 1, row.YearsDown) // 2020->2021; pairs with gaps skipped

	require.NotNil(t, row.PeakYear)
	assert.Equal(t, 2023, *row.PeakYear)
	require.NotNil(t, row.TroughYear)
	assert.Equal(t, 2019, *row.TroughYear)

	require.NotNil(t, row.ReboundRate)
	assert.InDelta(t, 20.0, *row.ReboundRate, 1e-9)
}

func TestBuild_SingleYear(t *testing.T) {
	records := []filings.FilingRecord{
		{EIN: "1", OrgName: "ORG 1", Year: 2021, Revenue: floatP(50)},
	}

	row := buildOne(t, records)

	// Peak and trough are well defined for one point; every ratio
	// metric is null.
	require.NotNil(t, row.PeakYear)
	assert.Equal(t, 2021, *row.PeakYear)
	assert.Equal(t, 2021, *row.TroughYear)
	assert.Nil(t, row.CAGR)
	assert.Nil(t, row.Volatility)
	assert.Nil(t, row.ReboundRate)
	assert.Equal(t, 0, row.YearsUp)
}

func TestBuild_NoUsableRevenue(t *testing.T) {
	records := []filings.FilingRecord{
		{EIN: "1", OrgName: "ORG 1", Year: 2021, Revenue: nil},
	}

	row := buildOne(t, records)
	assert.Nil(t, row.PeakYear)
	assert.Nil(t, row.TroughYear)
	assert.Nil(t, row.CAGR)
	assert.Empty(t, row.Revenue)
}

func TestBuild_PeakTroughTiesResolveEarliest(t *testing.T) {
	records := []filings.FilingRecord{
		{EIN: "1", Year: 2019, Revenue: floatP(100)},
		{EIN: "1", Year: 2020, Revenue: floatP(100)},
	}

	row := buildOne(t, records)
	require.NotNil(t, row.PeakYear)
	assert.Equal(t, 2019, *row.PeakYear)
	assert.Equal(t, 2019, *row.TroughYear)
}

func TestBuild_CAGRUndefined(t *testing.T) {
	tests := []struct {
		name    string
		records []filings.FilingRecord
	}{
		{
			name: "missing first endpoint",
			records: []filings.FilingRecord{
				{EIN: "1", Year: 2020, Revenue: floatP(100)},
				{EIN: "1", Year: 2023, Revenue: floatP(120)},
			},
		},
		{
			name: "missing last endpoint",
			records: []filings.FilingRecord{
				{EIN: "1", Year: 2019, Revenue: floatP(100)},
				{EIN: "1", Year: 2022, Revenue: floatP(120)},
			},
		},
		{
			name: "zero first-year revenue",
			records: []filings.FilingRecord{
				{EIN: "1", Year: 2019, Revenue: floatP(0)},
				{EIN: "1", Year: 2023, Revenue: floatP(120)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := buildOne(t, tt.records)
			assert.Nil(t, row.CAGR)
		})
	}
}

func TestBuild_ReboundUndefinedForNonPositiveTrough(t *testing.T) {
	records := []filings.FilingRecord{
		{EIN: "1", Year: 2019, Revenue: floatP(-50)},
		{EIN: "1", Year: 2023, Revenue: floatP(120)},
	}

	row := buildOne(t, records)
	require.NotNil(t, row.TroughYear)
	assert.Equal(t, 2019, *row.TroughYear)
	assert.Nil(t, row.ReboundRate)
}

func TestSaveTrajectories(t *testing.T) {
	builder := NewBuilder(testWindow(), nil)
	rows := builder.Build(context.Background(), []filings.FilingRecord{
		{EIN: "1", OrgName: "ORG 1", Year: 2019, Revenue: floatP(100)},
		{EIN: "1", OrgName: "ORG 1", Year: 2023, Revenue: floatP(120)},
	})

	path := filepath.Join(t.TempDir(), "org_trajectories.csv")
	require.NoError(t, SaveTrajectories(rows, testWindow(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t,
		"EIN,ORG_NAME,REV_2019,REV_2020,REV_2021,REV_2022,REV_2023,CAGR,VOLATILITY,YEARS_UP,YEARS_DOWN,PEAK_YEAR,TROUGH_YEAR,REBOUND_RATE",
		lines[0])
	// Missing years serialize as empty cells, not zeros
	assert.Equal(t, "1,ORG 1,100,,,,120,4.66,14,0,0,2023,2019,20", lines[1])
}

func floatP(v float64) *float64 { return &v }
