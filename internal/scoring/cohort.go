package scoring

import (
	"math"
	"sort"

	"npopulse/internal/momentum"
	"npopulse/internal/registry"
)

type cohortKey struct {
	sector string
	size   string
	class  string
}

// Summarize aggregates master profiles into one cell per
// sector x size x momentum-class combination, ordered by the three key
// columns. Averages skip missing snapshot values; the hollow and
// turbulent percentages are over all organizations in the cell.
func Summarize(profiles []MasterProfile) []CohortCell {
	type acc struct {
		count       int
		revSum      float64
		revCount    int
		pctSum      float64
		pctCount    int
		hollowCount int
		turbulCount int
	}

	cells := make(map[cohortKey]*acc)
	for _, p := range profiles {
		key := cohortKey{
			sector: p.Org.Sector,
			size:   string(p.Org.SizeBucket),
			class:  string(p.Momentum.Class),
		}
		a, ok := cells[key]
		if !ok {
			a = &acc{}
			cells[key] = a
		}

		a.count++
		if p.LatestRevenue != nil {
			a.revSum += *p.LatestRevenue
			a.revCount++
		}
		if p.LatestProgramPct != nil {
			a.pctSum += *p.LatestProgramPct
			a.pctCount++
		}
		if p.IsHollow {
			a.hollowCount++
		}
		if p.IsTurbulent {
			a.turbulCount++
		}
	}

	keys := make([]cohortKey, 0, len(cells))
	for key := range cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.sector != b.sector {
			return a.sector < b.sector
		}
		if a.size != b.size {
			return a.size < b.size
		}
		return a.class < b.class
	})

	summary := make([]CohortCell, 0, len(keys))
	for _, key := range keys {
		a := cells[key]
		cell := CohortCell{
			Sector:        key.sector,
			SizeBucket:    registry.SizeBucket(key.size),
			MomentumClass: momentum.Class(key.class),
			OrgCount:      a.count,
			PctHollow:     round1(float64(a.hollowCount) / float64(a.count) * 100),
			PctTurbulent:  round1(float64(a.turbulCount) / float64(a.count) * 100),
		}
		if a.revCount > 0 {
			v := math.Round(a.revSum / float64(a.revCount))
			cell.AvgRevenue = &v
		}
		if a.pctCount > 0 {
			v := round1(a.pctSum / float64(a.pctCount))
			cell.AvgProgramPct = &v
		}
		summary = append(summary, cell)
	}

	return summary
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
