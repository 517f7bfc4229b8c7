package scoring

import (
	"npopulse/internal/momentum"
	"npopulse/internal/registry"
)

// TargetFlag is the categorical outreach tier derived from the
// priority score.
type TargetFlag string

const (
	FlagHighPriority TargetFlag = "high_priority"
	FlagWatchlist    TargetFlag = "watchlist"
	FlagLowPriority  TargetFlag = "low_priority"
	FlagNotAFit      TargetFlag = "not_a_fit"
)

// Priority score components. The score is a straight sum, so the
// theoretical range is 0 to 110.
const (
	HollowPoints         = 40
	TurbulentHistoryPts  = 30
	DecliningClassPoints = 20
	TurbulentClassPoints = 10

	MediumSizePoints = 10
	LargeSizePoints  = 15
	MajorSizePoints  = 20
)

// Target flag score thresholds
const (
	HighPriorityFloor = 70
	WatchlistFloor    = 50
	LowPriorityFloor  = 30
)

// Hollow-organization thresholds: substantial revenue with a thin
// program share. Missing values count as zero.
const (
	HollowRevenueFloor   = 50_000.0
	HollowProgramPctCeil = 20.0
)

// MasterProfile is one organization's fully joined record: registry
// identity, momentum metrics, the latest-year financial snapshot, the
// derived flags and the outreach score.
type MasterProfile struct {
	Org      registry.Organization `json:"org"`
	Momentum momentum.Profile      `json:"momentum"`

	// Latest-year snapshot from the flattened time series; nil when
	// the organization has no filing rows at all.
	LatestRevenue    *float64 `json:"latest_revenue,omitempty"`
	LatestProgramPct *float64 `json:"latest_program_pct,omitempty"`

	IsHollow    bool `json:"is_hollow"`
	IsTurbulent bool `json:"is_turbulent"`

	PriorityScore int        `json:"priority_score"`
	TargetFlag    TargetFlag `json:"target_flag,omitempty"`
}

// CohortCell is one sector x size x momentum-class aggregate
type CohortCell struct {
	Sector        string              `json:"sector"`
	SizeBucket    registry.SizeBucket `json:"size_bucket"`
	MomentumClass momentum.Class      `json:"momentum_class"`

	OrgCount      int      `json:"org_count"`
	AvgRevenue    *float64 `json:"avg_revenue,omitempty"`     // whole dollars
	AvgProgramPct *float64 `json:"avg_program_pct,omitempty"` // 1 decimal
	PctHollow     float64  `json:"pct_hollow"`                // percent, 1 decimal
	PctTurbulent  float64  `json:"pct_turbulent"`             // percent, 1 decimal
}
