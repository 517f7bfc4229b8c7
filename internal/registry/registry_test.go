package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestSizeBucketFor(t *testing.T) {
	tests := []struct {
		name     string
		income   *float64
		expected SizeBucket
	}{
		{"missing income", nil, SizeUnknown},
		{"zero", floatPtr(0), SizeMicro},
		{"just under small", floatPtr(49_999), SizeMicro},
		{"small floor", floatPtr(50_000), SizeSmall},
		{"medium floor", floatPtr(250_000), SizeMedium},
		{"large floor", floatPtr(1_000_000), SizeLarge},
		{"major floor", floatPtr(10_000_000), SizeMajor},
		{"very large", floatPtr(2_000_000_000), SizeMajor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SizeBucketFor(tt.income))
		})
	}
}

func TestGeoFilter_Match(t *testing.T) {
	filter := DefaultGeoFilter(nil)

	tests := []struct {
		name    string
		org     Organization
		matched bool
	}{
		{"city match", Organization{State: "PA", City: "PITTSBURGH", ZIP: "16801"}, true},
		{"city match lowercase", Organization{State: "pa", City: "pittsburgh", ZIP: ""}, true},
		{"zip prefix match", Organization{State: "PA", City: "UNKNOWN TOWN", ZIP: "15213"}, true},
		{"zip+4 truncated", Organization{State: "PA", City: "SOMEWHERE", ZIP: "152131234"}, true},
		{"wrong state", Organization{State: "OH", City: "PITTSBURGH", ZIP: "15213"}, false},
		{"wrong city and zip", Organization{State: "PA", City: "PHILADELPHIA", ZIP: "19103"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matched, filter.Match(tt.org))
		})
	}
}

func TestGeoFilter_Filter(t *testing.T) {
	filter := NewGeoFilter("PA", []string{"PITTSBURGH"}, []string{"151"}, nil)

	orgs := []Organization{
		{EIN: "1", State: "PA", City: "PITTSBURGH"},
		{EIN: "2", State: "PA", City: "PHILADELPHIA", ZIP: "19103"},
		{EIN: "3", State: "PA", City: "MILLVALE", ZIP: "15209"},
	}

	matched := filter.Filter(context.Background(), orgs)
	require.Len(t, matched, 2)
	assert.Equal(t, "1", matched[0].EIN)
	assert.Equal(t, "3", matched[1].EIN)
}

func TestSectorMap_Sector(t *testing.T) {
	m := SectorMap{"A": "Arts & Culture", "B": "Education", "E": "Health"}

	tests := []struct {
		code     string
		expected string
	}{
		{"A20", "Arts & Culture"},
		{"b99", "Education"},
		{" E21 ", "Health"},
		{"Z99", "Unknown"},
		{"", "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, m.Sector(tt.code), "code %q", tt.code)
	}
}

func TestLoadSectorMap(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid map", func(t *testing.T) {
		path := filepath.Join(dir, "sector_map.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"A":"Arts & Culture","E":"Health"}`), 0644))

		m, err := LoadSectorMap(path)
		require.NoError(t, err)
		assert.Equal(t, "Health", m.Sector("E31"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSectorMap(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})

	t.Run("empty map", func(t *testing.T) {
		path := filepath.Join(dir, "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

		_, err := LoadSectorMap(path)
		assert.Error(t, err)
	})
}

func TestClassifier_Classify(t *testing.T) {
	m := SectorMap{"E": "Health"}
	classifier := NewClassifier(m, nil)

	orgs := []Organization{
		{EIN: "1", NTEECode: "E21", Income: floatPtr(500_000)},
		{EIN: "2", NTEECode: "Q40", Income: nil},
	}

	classified := classifier.Classify(context.Background(), orgs)
	require.Len(t, classified, 2)

	assert.Equal(t, "Health", classified[0].Sector)
	assert.Equal(t, SizeMedium, classified[0].SizeBucket)
	assert.Equal(t, UnknownSector, classified[1].Sector)
	assert.Equal(t, SizeUnknown, classified[1].SizeBucket)

	// Input is untouched
	assert.Empty(t, orgs[0].Sector)
}

func TestExtractRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extract.csv")

	content := "EIN,NAME,CITY,STATE,ZIP,NTEE_CD,INCOME_AMT,ASSET_AMT,REVENUE_AMT\n" +
		"251234567,COMMUNITY HEALTH FUND,PITTSBURGH,PA,152131234,E21,750000,1200000,740000\n" +
		"259999999,ART COLLECTIVE,MILLVALE,PA,15209,A65,,,\n" +
		",DROPPED ROW,NOWHERE,PA,15201,X00,1,1,1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	orgs, err := LoadExtract(path)
	require.NoError(t, err)
	require.Len(t, orgs, 2)

	assert.Equal(t, "251234567", orgs[0].EIN)
	assert.Equal(t, "15213", orgs[0].ZIP)
	require.NotNil(t, orgs[0].Income)
	assert.Equal(t, 750000.0, *orgs[0].Income)
	assert.Nil(t, orgs[1].Income)

	// Classify and round-trip through the mapped CSV
	classified := NewClassifier(SectorMap{"E": "Health", "A": "Arts & Culture"}, nil).
		Classify(context.Background(), orgs)

	outPath := filepath.Join(dir, "mapped.csv")
	require.NoError(t, SaveMapped(classified, outPath))

	reloaded, err := LoadExtract(outPath)
	require.NoError(t, err)
	require.Len(t, reloaded, 2)
	assert.Equal(t, "Health", reloaded[0].Sector)
	assert.Equal(t, SizeLarge, reloaded[0].SizeBucket)
	assert.Equal(t, SizeUnknown, reloaded[1].SizeBucket)
}

func TestLoadExtract_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("EIN,NAME\n1,X\n"), 0644))

	_, err := LoadExtract(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}
