package momentum

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"npopulse/internal/filings"
)

// Builder pivots the long-format time series into one trajectory row
// per organization over a fixed year window.
type Builder struct {
	window YearWindow
	logger *slog.Logger
}

// NewBuilder creates a trajectory builder for the given window
func NewBuilder(window YearWindow, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		window: window,
		logger: logger.With(slog.String("component", "trajectory_builder")),
	}
}

// Window returns the builder's year window
func (b *Builder) Window() YearWindow {
	return b.window
}

// Build produces one trajectory row per organization, ordered by EIN.
// Records outside the window or without a revenue value contribute
// nothing; an organization with no in-window revenue at all still gets
// a row with every derived metric nil.
func (b *Builder) Build(ctx context.Context, records []filings.FilingRecord) []TrajectoryRow {
	grouped := groupByOrg(records)

	eins := make([]string, 0, len(grouped))
	for ein := range grouped {
		eins = append(eins, ein)
	}
	sort.Strings(eins)

	rows := make([]TrajectoryRow, 0, len(eins))
	for _, ein := range eins {
		rows = append(rows, b.buildRow(ein, grouped[ein]))
	}

	b.logger.InfoContext(ctx, "built organization trajectories",
		slog.Int("orgs", len(rows)),
		slog.Int("window_start", b.window.Start),
		slog.Int("window_end", b.window.End),
	)

	return rows
}

// buildRow computes one organization's trajectory
func (b *Builder) buildRow(ein string, series []filings.FilingRecord) TrajectoryRow {
	row := TrajectoryRow{
		EIN:     ein,
		Revenue: make(map[int]*float64, b.window.Span()+1),
	}

	for _, r := range series {
		if row.OrgName == "" {
			row.OrgName = r.OrgName
		}
		if !b.window.Contains(r.Year) || r.Revenue == nil {
			continue
		}
		v := *r.Revenue
		row.Revenue[r.Year] = &v
	}

	years := b.window.Years()

	row.CAGR = b.cagr(row.Revenue)
	row.Volatility = windowVolatility(row.Revenue)
	row.YearsUp, row.YearsDown = countDeltas(row.Revenue, years)
	row.PeakYear, row.TroughYear = peakTrough(row.Revenue, years)
	row.ReboundRate = b.reboundRate(row.Revenue, row.TroughYear)

	return row
}

// cagr computes the compound annual growth rate across the window
// endpoints, as a percentage rounded to two decimals. Defined only when
// both endpoints are present and the first is positive.
func (b *Builder) cagr(revenue map[int]*float64) *float64 {
	start := revenue[b.window.Start]
	end := revenue[b.window.End]
	if start == nil || end == nil || *start <= 0 {
		return nil
	}

	growth := math.Pow(*end / *start, 1/float64(b.window.Span())) - 1
	pct := roundTo(growth*100, 2)
	return &pct
}

// windowVolatility is the sample standard deviation of the in-window
// revenue values, ignoring missing years. Nil with fewer than two
// values.
func windowVolatility(revenue map[int]*float64) *float64 {
	var values []float64
	for _, v := range revenue {
		if v != nil {
			values = append(values, *v)
		}
	}
	if len(values) < 2 {
		return nil
	}

	std := math.Round(sampleStdDev(values))
	return &std
}

// countDeltas counts adjacent year-pairs where revenue strictly
// increased or decreased. Pairs with a missing endpoint are skipped,
// not counted either way.
func countDeltas(revenue map[int]*float64, years []int) (up, down int) {
	for i := 0; i+1 < len(years); i++ {
		a := revenue[years[i]]
		b := revenue[years[i+1]]
		if a == nil || b == nil {
			continue
		}
		switch {
		case *b > *a:
			up++
		case *b < *a:
			down++
		}
	}
	return up, down
}

// peakTrough finds the argmax and argmin years over non-nil revenues.
// Ties resolve to the earliest year. Nil when no values are present.
func peakTrough(revenue map[int]*float64, years []int) (peak, trough *int) {
	var peakVal, troughVal float64
	for _, year := range years {
		v := revenue[year]
		if v == nil {
			continue
		}
		if peak == nil || *v > peakVal {
			y := year
			peak, peakVal = &y, *v
		}
		if trough == nil || *v < troughVal {
			y := year
			trough, troughVal = &y, *v
		}
	}
	return peak, trough
}

// reboundRate is the percentage change from trough-year revenue to the
// final window year, rounded to two decimals. Nil when the trough
// revenue is non-positive or either endpoint is missing.
func (b *Builder) reboundRate(revenue map[int]*float64, troughYear *int) *float64 {
	if troughYear == nil {
		return nil
	}
	trough := revenue[*troughYear]
	final := revenue[b.window.End]
	if trough == nil || final == nil || *trough <= 0 {
		return nil
	}

	rate := roundTo((*final-*trough) / *trough*100, 2)
	return &rate
}
