package momentum

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"npopulse/internal/filings"
)

// seriesFor builds one organization's filing records from a revenue
// sequence, one record per year starting at startYear. A nil entry
// produces a record with missing revenue.
func seriesFor(ein string, startYear int, revs []*float64) []filings.FilingRecord {
	records := make([]filings.FilingRecord, 0, len(revs))
	for i, rev := range revs {
		records = append(records, filings.FilingRecord{
			EIN:     ein,
			OrgName: "ORG " + ein,
			Year:    startYear + i,
			Revenue: rev,
		})
	}
	return records
}

func revenues(values ...float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		v := values[i]
		out[i] = &v
	}
	return out
}

func classifyOne(t *testing.T, revs []*float64) (Profile, bool) {
	t.Helper()
	c := NewClassifier(nil)
	profiles := c.Classify(context.Background(), seriesFor("1", 2018, revs))
	if len(profiles) == 0 {
		return Profile{}, false
	}
	require.Len(t, profiles, 1)
	return profiles[0], true
}

func TestClassify_ReferenceScenario(t *testing.T) {
	// prior=[90,95,100], recent=[100,110,125]
	profile, ok := classifyOne(t, revenues(90, 95, 100, 100, 110, 125))
	require.True(t, ok)

	assert.InDelta(t, 111.67, profile.AvgRecentRevenue, 1e-9)
	assert.InDelta(t, 95.0, profile.AvgPriorRevenue, 1e-9)
	assert.InDelta(t, 17.54, profile.PctChange, 1e-9)
	assert.InDelta(t, 25.0, profile.MomentumScore, 1e-9)
	assert.InDelta(t, 0.2239, profile.NormalizedMomentum, 1e-9)
	assert.Equal(t, ClassWeakUp, profile.Class)
}

func TestClassify_Cascade(t *testing.T) {
	tests := []struct {
		name     string
		revs     []*float64
		expected Class
	}{
		{
			name:     "turbulent",
			revs:     revenues(10, 10, 10, 1000, 2000, 4000),
			expected: ClassTurbulent,
		},
		{
			name:     "strong momentum up",
			revs:     revenues(100, 100, 100, 150, 160, 170),
			expected: ClassStrongUp,
		},
		{
			name:     "strong momentum down",
			revs:     revenues(170, 160, 150, 120, 110, 100),
			expected: ClassStrongDown,
		},
		{
			name:     "weak down regardless of momentum sign",
			revs:     revenues(100, 100, 100, 90, 90, 90),
			expected: ClassWeakDown,
		},
		{
			name:     "stable",
			revs:     revenues(100, 100, 100, 100, 100, 100),
			expected: ClassStable,
		},
		{
			name: "uncategorized negative band with flat momentum",
			// pct_change -37.5 but second difference is zero
			revs:     revenues(170, 160, 150, 100, 100, 100),
			expected: ClassUncategorized,
		},
		{
			name: "uncategorized positive band with falling momentum",
			// pct_change +40 but second difference is negative
			revs:     revenues(100, 100, 100, 150, 140, 130),
			expected: ClassUncategorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, ok := classifyOne(t, tt.revs)
			require.True(t, ok)
			assert.Equal(t, tt.expected, profile.Class)
			assert.True(t, profile.Class.IsValid())
		})
	}
}

func TestClassify_TurbulentPreemptsDirection(t *testing.T) {
	// pct_change and momentum would qualify as strong_momentum_up, but
	// the volatility rule wins.
	profile, ok := classifyOne(t, revenues(10, 10, 10, 100, 200, 400))
	require.True(t, ok)

	assert.Greater(t, profile.Volatility, 0.5)
	assert.Greater(t, profile.PctChange, 20.0)
	assert.Greater(t, profile.NormalizedMomentum, 0.0)
	assert.Equal(t, ClassTurbulent, profile.Class)
}

func TestClassify_CoveragePolicy(t *testing.T) {
	tests := []struct {
		name string
		revs []*float64
	}{
		{"five points", revenues(100, 110, 120, 130, 140)},
		{"six records but one missing revenue", append(revenues(100, 110, 120, 130, 140), nil)},
		{"near-zero recent sum", revenues(100, 100, 100, 0.2, 0.3, 0.4)},
		{"near-zero prior sum", revenues(0, 0, 0.5, 100, 110, 120)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := classifyOne(t, tt.revs)
			assert.False(t, ok, "organization should be excluded from output")
		})
	}
}

func TestClassify_UsesOnlyNonNilRevenues(t *testing.T) {
	// Seven records with one gap still leave six usable points
	revs := []*float64{revenues(90)[0], nil, revenues(95)[0], revenues(100)[0],
		revenues(100)[0], revenues(110)[0], revenues(125)[0]}

	profile, ok := classifyOne(t, revs)
	require.True(t, ok)
	assert.Equal(t, ClassWeakUp, profile.Class)
	assert.InDelta(t, 111.67, profile.AvgRecentRevenue, 1e-9)
}

func TestClassify_NormalizedMomentumExact(t *testing.T) {
	// normalized_momentum = ((r2-r1)+(r1-r0)) / avg_recent to 4 decimals
	profile, ok := classifyOne(t, revenues(100, 100, 100, 103, 101, 107))
	require.True(t, ok)

	// raw = (107-101)+(101-103) = 4; avg_recent = 103.67
	assert.InDelta(t, 4.0, profile.MomentumScore, 1e-9)
	assert.InDelta(t, roundTo(4.0/(311.0/3.0), 4), profile.NormalizedMomentum, 1e-12)
}

func TestClassify_OutputOrderedByEIN(t *testing.T) {
	var records []filings.FilingRecord
	records = append(records, seriesFor("30", 2018, revenues(100, 100, 100, 100, 100, 100))...)
	records = append(records, seriesFor("10", 2018, revenues(100, 100, 100, 100, 100, 100))...)
	records = append(records, seriesFor("20", 2018, revenues(100, 100, 100, 100, 100, 100))...)

	c := NewClassifier(nil)
	profiles := c.Classify(context.Background(), records)
	require.Len(t, profiles, 3)
	assert.Equal(t, "10", profiles[0].EIN)
	assert.Equal(t, "20", profiles[1].EIN)
	assert.Equal(t, "30", profiles[2].EIN)
}

func TestClassify_Idempotent(t *testing.T) {
	var records []filings.FilingRecord
	records = append(records, seriesFor("1", 2018, revenues(90, 95, 100, 100, 110, 125))...)
	records = append(records, seriesFor("2", 2018, revenues(10, 10, 10, 1000, 2000, 4000))...)

	c := NewClassifier(nil)
	ctx := context.Background()

	first := c.Classify(ctx, records)
	second := c.Classify(ctx, records)
	assert.Equal(t, first, second)

	// Byte-identical CSV output on re-run
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.csv")
	pathB := filepath.Join(dir, "b.csv")
	require.NoError(t, SaveProfiles(first, pathA))
	require.NoError(t, SaveProfiles(second, pathB))

	a, err := os.ReadFile(pathA)
	require.NoError(t, err)
	b, err := os.ReadFile(pathB)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestProfilesRoundTrip(t *testing.T) {
	profiles := []Profile{
		{
			EIN: "1", OrgName: "ORG 1",
			AvgRecentRevenue: 111.67, AvgPriorRevenue: 95,
			PctChange: 17.54, MomentumScore: 25,
			NormalizedMomentum: 0.2239, Volatility: 0.121,
			Class: ClassWeakUp,
		},
	}

	path := filepath.Join(t.TempDir(), "momentum_classification.csv")
	require.NoError(t, SaveProfiles(profiles, path))

	loaded, err := LoadProfiles(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, profiles[0], loaded[0])
}
