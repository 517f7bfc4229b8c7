package scoring

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"npopulse/internal/filings"
	"npopulse/internal/momentum"
	"npopulse/internal/registry"
)

func fp(v float64) *float64 { return &v }

func TestMerge_InnerJoinOnMomentum(t *testing.T) {
	orgs := []registry.Organization{
		{EIN: "2", Name: "BETA", Sector: "Health", SizeBucket: registry.SizeLarge},
		{EIN: "1", Name: "ALPHA", Sector: "Arts", SizeBucket: registry.SizeSmall},
		{EIN: "3", Name: "GAMMA", Sector: "Education", SizeBucket: registry.SizeMajor},
	}
	profiles := []momentum.Profile{
		{EIN: "1", Class: momentum.ClassStable},
		{EIN: "2", Class: momentum.ClassTurbulent},
	}

	merged := NewMerger(nil).Merge(context.Background(), orgs, profiles, nil)

	// Org 3 has no momentum profile and drops out; output is EIN-ordered
	require.Len(t, merged, 2)
	assert.Equal(t, "1", merged[0].Org.EIN)
	assert.Equal(t, "2", merged[1].Org.EIN)

	assert.False(t, merged[0].IsTurbulent)
	assert.True(t, merged[1].IsTurbulent)

	// No filing rows at all: snapshot stays nil and hollow stays false
	assert.Nil(t, merged[0].LatestRevenue)
	assert.False(t, merged[0].IsHollow)
}

func TestMerge_LatestYearSnapshot(t *testing.T) {
	orgs := []registry.Organization{{EIN: "1", Name: "ALPHA"}}
	profiles := []momentum.Profile{{EIN: "1", Class: momentum.ClassWeakDown}}
	records := []filings.FilingRecord{
		{EIN: "1", Year: 2021, Revenue: fp(80_000), ProgramPct: fp(60)},
		{EIN: "1", Year: 2023, Revenue: fp(120_000), ProgramPct: fp(10)},
		{EIN: "1", Year: 2022, Revenue: fp(90_000), ProgramPct: fp(55)},
	}

	merged := NewMerger(nil).Merge(context.Background(), orgs, profiles, records)

	require.Len(t, merged, 1)
	require.NotNil(t, merged[0].LatestRevenue)
	assert.Equal(t, 120_000.0, *merged[0].LatestRevenue)
	require.NotNil(t, merged[0].LatestProgramPct)
	assert.Equal(t, 10.0, *merged[0].LatestProgramPct)
	assert.True(t, merged[0].IsHollow)
}

func TestHollow(t *testing.T) {
	tests := []struct {
		name     string
		revenue  *float64
		pct      *float64
		expected bool
	}{
		{"high revenue thin program", fp(100_000), fp(5), true},
		{"high revenue missing program pct", fp(100_000), nil, true},
		{"high revenue healthy program", fp(100_000), fp(60), false},
		{"revenue at threshold", fp(50_000), fp(5), false},
		{"program pct at threshold", fp(100_000), fp(20), false},
		{"missing revenue", nil, fp(5), false},
		{"both missing", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, hollow(tt.revenue, tt.pct))
		})
	}
}

func TestSummarize(t *testing.T) {
	mk := func(ein, sector string, size registry.SizeBucket, class momentum.Class, rev, pct *float64, hollow bool) MasterProfile {
		return MasterProfile{
			Org:              registry.Organization{EIN: ein, Sector: sector, SizeBucket: size},
			Momentum:         momentum.Profile{EIN: ein, Class: class},
			LatestRevenue:    rev,
			LatestProgramPct: pct,
			IsHollow:         hollow,
			IsTurbulent:      class == momentum.ClassTurbulent,
		}
	}

	cells := Summarize([]MasterProfile{
		mk("1", "Health", registry.SizeLarge, momentum.ClassStable, fp(100_000), fp(50), false),
		mk("2", "Health", registry.SizeLarge, momentum.ClassStable, fp(200_001), nil, true),
		mk("3", "Health", registry.SizeLarge, momentum.ClassStable, nil, fp(30), false),
		mk("4", "Arts", registry.SizeSmall, momentum.ClassTurbulent, nil, nil, false),
	})

	require.Len(t, cells, 2)

	// Sorted by sector, so Arts first
	arts := cells[0]
	assert.Equal(t, "Arts", arts.Sector)
	assert.Equal(t, 1, arts.OrgCount)
	assert.Nil(t, arts.AvgRevenue)
	assert.Nil(t, arts.AvgProgramPct)
	assert.Equal(t, 0.0, arts.PctHollow)
	assert.Equal(t, 100.0, arts.PctTurbulent)

	health := cells[1]
	assert.Equal(t, 3, health.OrgCount)
	require.NotNil(t, health.AvgRevenue)
	assert.Equal(t, 150001.0, *health.AvgRevenue) // mean over present values, rounded
	require.NotNil(t, health.AvgProgramPct)
	assert.Equal(t, 40.0, *health.AvgProgramPct)
	assert.Equal(t, 33.3, health.PctHollow)
	assert.Equal(t, 0.0, health.PctTurbulent)
}

func TestSaveScoredRoundTrip(t *testing.T) {
	profiles := []MasterProfile{
		{
			Org: registry.Organization{
				EIN: "250000001", Name: "ALPHA", City: "PITTSBURGH", State: "PA",
				ZIP: "15213", NTEECode: "A20", Income: fp(500_000),
				Sector: "Arts", SizeBucket: registry.SizeMedium,
			},
			Momentum: momentum.Profile{
				EIN: "250000001", OrgName: "ALPHA",
				AvgRecentRevenue: 111.67, PctChange: -12.5,
				Class: momentum.ClassWeakDown,
			},
			LatestRevenue:    fp(120_000),
			LatestProgramPct: fp(10),
			IsHollow:         true,
		},
	}
	ScoreAll(profiles)

	path := filepath.Join(t.TempDir(), "org_master_profiles_scored.csv")
	require.NoError(t, SaveScored(profiles, path))

	loaded, err := LoadScored(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, "250000001", got.Org.EIN)
	assert.Equal(t, registry.SizeMedium, got.Org.SizeBucket)
	assert.Equal(t, momentum.ClassWeakDown, got.Momentum.Class)
	assert.True(t, got.IsHollow)
	assert.False(t, got.IsTurbulent)
	assert.Equal(t, 70, got.PriorityScore) // 40 hollow + 20 declining + 10 medium
	assert.Equal(t, FlagHighPriority, got.TargetFlag)
	require.NotNil(t, got.LatestRevenue)
	assert.Equal(t, 120_000.0, *got.LatestRevenue)
}

func TestSaveCohort(t *testing.T) {
	cells := []CohortCell{
		{
			Sector: "Health", SizeBucket: registry.SizeLarge,
			MomentumClass: momentum.ClassStable, OrgCount: 3,
			AvgRevenue: fp(150001), AvgProgramPct: fp(40),
			PctHollow: 33.3, PctTurbulent: 0,
		},
	}

	path := filepath.Join(t.TempDir(), "target_cohort_scores.csv")
	require.NoError(t, SaveCohort(cells, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		"SECTOR,SIZE_BUCKET,MOMENTUM_CLASS,ORG_COUNT,AVG_REVENUE,AVG_PROGRAM_PCT,PCT_HOLLOW,PCT_TURBULENT",
		lines[0])
	assert.Equal(t, "Health,Large,stable,3,150001,40,33.3,0", lines[1])
}
