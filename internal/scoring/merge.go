package scoring

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"npopulse/internal/filings"
	"npopulse/internal/momentum"
	"npopulse/internal/registry"
)

// Merger joins registry organizations with momentum profiles and the
// latest-year filing snapshot. Only organizations present in both the
// registry and the momentum output survive the join; the snapshot is
// optional.
type Merger struct {
	logger *slog.Logger
}

// NewMerger creates a profile merger
func NewMerger(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{
		logger: logger.With(slog.String("component", "profile_merger")),
	}
}

// Merge produces one master profile per organization that has both a
// registry row and a momentum profile, ordered by EIN. The hollow and
// turbulent flags are set here; scoring happens separately.
func (m *Merger) Merge(ctx context.Context, orgs []registry.Organization, profiles []momentum.Profile, records []filings.FilingRecord) []MasterProfile {
	byEIN := make(map[string]momentum.Profile, len(profiles))
	for _, p := range profiles {
		byEIN[p.EIN] = p
	}

	snapshots := latestSnapshots(records)

	var merged []MasterProfile
	for _, org := range orgs {
		profile, ok := byEIN[org.EIN]
		if !ok {
			continue
		}

		mp := MasterProfile{Org: org, Momentum: profile}
		if snap, ok := snapshots[org.EIN]; ok {
			mp.LatestRevenue = snap.Revenue
			mp.LatestProgramPct = snap.ProgramPct
		}
		mp.IsHollow = hollow(mp.LatestRevenue, mp.LatestProgramPct)
		mp.IsTurbulent = strings.Contains(strings.ToLower(string(profile.Class)), "turbulent")

		merged = append(merged, mp)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Org.EIN < merged[j].Org.EIN
	})

	m.logger.InfoContext(ctx, "merged master profiles",
		slog.Int("registry_orgs", len(orgs)),
		slog.Int("momentum_profiles", len(profiles)),
		slog.Int("merged", len(merged)),
	)

	return merged
}

// latestSnapshots picks each organization's most recent filing year
func latestSnapshots(records []filings.FilingRecord) map[string]filings.FilingRecord {
	latest := make(map[string]filings.FilingRecord)
	for _, r := range records {
		if cur, ok := latest[r.EIN]; !ok || r.Year > cur.Year {
			latest[r.EIN] = r
		}
	}
	return latest
}

// hollow reports whether an organization has substantial revenue but a
// thin program share. Missing values are treated as zero, so an
// organization with no snapshot is never hollow.
func hollow(revenue, programPct *float64) bool {
	rev, pct := 0.0, 0.0
	if revenue != nil {
		rev = *revenue
	}
	if programPct != nil {
		pct = *programPct
	}
	return rev > HollowRevenueFloor && pct < HollowProgramPctCeil
}
