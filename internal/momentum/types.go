package momentum

// Class is the discrete momentum label assigned to an organization
type Class string

const (
	ClassTurbulent     Class = "turbulent"
	ClassStrongUp      Class = "strong_momentum_up"
	ClassStrongDown    Class = "strong_momentum_down"
	ClassWeakUp        Class = "weak_up"
	ClassWeakDown      Class = "weak_down"
	ClassStable        Class = "stable"
	ClassUncategorized Class = "uncategorized"
)

// IsValid reports whether the class is one of the closed set
func (c Class) IsValid() bool {
	switch c {
	case ClassTurbulent, ClassStrongUp, ClassStrongDown,
		ClassWeakUp, ClassWeakDown, ClassStable, ClassUncategorized:
		return true
	}
	return false
}

// String returns the class label
func (c Class) String() string {
	return string(c)
}

// Classification thresholds. pct_change is on a percent scale.
const (
	// MinHistoryPoints is the coverage floor: organizations with fewer
	// usable revenue points are skipped.
	MinHistoryPoints = 6

	// MinPeriodSum guards the near-zero-denominator cases: both the
	// recent and prior three-year sums must reach this floor.
	MinPeriodSum = 1.0

	// TurbulentVolatility is the coefficient-of-variation ceiling;
	// above it the turbulent rule pre-empts every directional rule.
	TurbulentVolatility = 0.5

	// StrongChangePct and WeakChangePct bound the directional bands
	StrongChangePct = 20.0
	WeakChangePct   = 5.0
)

// Profile is the classification output for one organization
type Profile struct {
	EIN     string `json:"ein"`
	OrgName string `json:"org_name"`

	AvgRecentRevenue   float64 `json:"avg_recent_revenue"`
	AvgPriorRevenue    float64 `json:"avg_prior_revenue"`
	PctChange          float64 `json:"pct_change"`          // percent, 2 decimals
	MomentumScore      float64 `json:"momentum_score"`      // raw second difference
	NormalizedMomentum float64 `json:"normalized_momentum"` // 4 decimals
	Volatility         float64 `json:"volatility"`          // 3 decimals
	Class              Class   `json:"momentum_class"`
}

// YearWindow is the fixed inclusive year range used by the trajectory
// builder.
type YearWindow struct {
	Start int
	End   int
}

// Span returns the number of year steps between the window endpoints
func (w YearWindow) Span() int {
	return w.End - w.Start
}

// Years returns every year in the window in ascending order
func (w YearWindow) Years() []int {
	years := make([]int, 0, w.Span()+1)
	for y := w.Start; y <= w.End; y++ {
		years = append(years, y)
	}
	return years
}

// Contains reports whether the year falls inside the window
func (w YearWindow) Contains(year int) bool {
	return year >= w.Start && year <= w.End
}

// TrajectoryRow is one organization's windowed revenue trajectory with
// derived trend metrics. Missing years are nil, never zero.
type TrajectoryRow struct {
	EIN     string `json:"ein"`
	OrgName string `json:"org_name"`

	// Revenue holds the per-year revenue inside the window
	Revenue map[int]*float64 `json:"revenue"`

	CAGR        *float64 `json:"cagr,omitempty"`       // percent, 2 decimals
	Volatility  *float64 `json:"volatility,omitempty"` // sample std of window revenues
	YearsUp     int      `json:"years_up"`
	YearsDown   int      `json:"years_down"`
	PeakYear    *int     `json:"peak_year,omitempty"`
	TroughYear  *int     `json:"trough_year,omitempty"`
	ReboundRate *float64 `json:"rebound_rate,omitempty"` // percent, 2 decimals
}
