package registry

import (
	"context"
	"log/slog"
	"strings"
)

// GeoFilter selects organizations belonging to a target county.
// Membership is state match plus either a known county city or a
// county ZIP prefix.
type GeoFilter struct {
	state       string
	cities      map[string]struct{}
	zipPrefixes []string
	logger      *slog.Logger
}

// AlleghenyCities lists the municipalities used for the default
// Allegheny County, PA filter.
var AlleghenyCities = []string{
	"PITTSBURGH", "BRADDOCK", "DUQUESNE", "MCKEESPORT", "MONROEVILLE",
	"MUNHALL", "NORTH VERSAILLES", "SWISSVALE", "TARENTUM", "WILKINSBURG",
	"HOMESTEAD", "CLAIRTON", "PENN HILLS", "MOUNT OLIVER", "WEST MIFFLIN",
	"BALDWIN", "BELLEVUE", "BLOOMFIELD", "SHARPSBURG", "MILLVALE", "EDGEWOOD",
}

// NewGeoFilter creates a county filter from a state code, city list and
// ZIP prefixes. City matching is case-insensitive.
func NewGeoFilter(state string, cities []string, zipPrefixes []string, logger *slog.Logger) *GeoFilter {
	if logger == nil {
		logger = slog.Default()
	}

	citySet := make(map[string]struct{}, len(cities))
	for _, c := range cities {
		citySet[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}

	return &GeoFilter{
		state:       strings.ToUpper(strings.TrimSpace(state)),
		cities:      citySet,
		zipPrefixes: zipPrefixes,
		logger:      logger,
	}
}

// DefaultGeoFilter returns the Allegheny County, PA filter
func DefaultGeoFilter(logger *slog.Logger) *GeoFilter {
	return NewGeoFilter("PA", AlleghenyCities, []string{"151", "152"}, logger)
}

// Match reports whether the organization belongs to the target county.
// City and state on the record are normalized before comparison; ZIPs
// are truncated to five digits.
func (f *GeoFilter) Match(org Organization) bool {
	if strings.ToUpper(strings.TrimSpace(org.State)) != f.state {
		return false
	}

	city := strings.ToUpper(strings.TrimSpace(org.City))
	if _, ok := f.cities[city]; ok {
		return true
	}

	zip := NormalizeZIP(org.ZIP)
	for _, prefix := range f.zipPrefixes {
		if strings.HasPrefix(zip, prefix) {
			return true
		}
	}

	return false
}

// Filter returns the subset of organizations belonging to the target county
func (f *GeoFilter) Filter(ctx context.Context, orgs []Organization) []Organization {
	var matched []Organization
	for _, org := range orgs {
		if f.Match(org) {
			matched = append(matched, org)
		}
	}

	f.logger.InfoContext(ctx, "applied county filter",
		slog.Int("input_orgs", len(orgs)),
		slog.Int("matched_orgs", len(matched)),
		slog.String("state", f.state),
	)

	return matched
}

// NormalizeZIP truncates a ZIP+4 code to its five-digit prefix
func NormalizeZIP(zip string) string {
	zip = strings.TrimSpace(zip)
	if len(zip) > 5 {
		return zip[:5]
	}
	return zip
}
