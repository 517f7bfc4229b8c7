package momentum

import (
	"context"
	"log/slog"
	"sort"

	"npopulse/internal/filings"
	"npopulse/internal/infrastructure"
)

// Classifier assigns each organization a momentum class from its
// chronological revenue history.
type Classifier struct {
	logger  *slog.Logger
	metrics *infrastructure.Metrics
}

// NewClassifier creates a momentum classifier
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		logger: logger.With(slog.String("component", "momentum_classifier")),
	}
}

// SetMetrics attaches classification instrumentation
func (c *Classifier) SetMetrics(m *infrastructure.Metrics) {
	c.metrics = m
}

// Classify computes momentum profiles for every organization in the
// time series. Organizations that fail the coverage policy (fewer than
// six usable revenue points, or a near-zero recent or prior period) are
// skipped silently; that is a policy, not an error. Output is ordered
// by EIN.
func (c *Classifier) Classify(ctx context.Context, records []filings.FilingRecord) []Profile {
	grouped := groupByOrg(records)

	eins := make([]string, 0, len(grouped))
	for ein := range grouped {
		eins = append(eins, ein)
	}
	sort.Strings(eins)

	var profiles []Profile
	skipped := 0

	for _, ein := range eins {
		series := grouped[ein]
		profile, ok := c.classifyOrg(ein, series)
		if !ok {
			skipped++
			if c.metrics != nil {
				c.metrics.OrgsSkipped.Add(ctx, 1)
			}
			continue
		}

		profiles = append(profiles, profile)
		if c.metrics != nil {
			c.metrics.OrgsClassified.Add(ctx, 1)
		}
	}

	c.logger.InfoContext(ctx, "momentum classification completed",
		slog.Int("orgs_classified", len(profiles)),
		slog.Int("orgs_skipped", skipped),
	)

	return profiles
}

// classifyOrg computes one organization's profile. The second return
// value is false when the organization is excluded by the coverage
// policy.
func (c *Classifier) classifyOrg(ein string, series []filings.FilingRecord) (Profile, bool) {
	orgName := ""
	var revs []float64
	for _, r := range series {
		if orgName == "" {
			orgName = r.OrgName
		}
		if r.Revenue == nil {
			continue
		}
		revs = append(revs, *r.Revenue)
	}

	if len(revs) < MinHistoryPoints {
		return Profile{}, false
	}

	recent := revs[len(revs)-3:]
	prior := revs[len(revs)-6 : len(revs)-3]

	if sum(recent) < MinPeriodSum || sum(prior) < MinPeriodSum {
		return Profile{}, false
	}

	avgRecent := mean(recent)
	avgPrior := mean(prior)
	pctChange := (avgRecent - avgPrior) / avgPrior * 100

	// Discrete second difference over the three most recent points
	rawMomentum := (recent[2] - recent[1]) + (recent[1] - recent[0])
	normalized := rawMomentum / avgRecent

	// Coefficient of variation over the entire history
	volatility := sampleStdDev(revs) / mean(revs)

	return Profile{
		EIN:                ein,
		OrgName:            orgName,
		AvgRecentRevenue:   roundTo(avgRecent, 2),
		AvgPriorRevenue:    roundTo(avgPrior, 2),
		PctChange:          roundTo(pctChange, 2),
		MomentumScore:      rawMomentum,
		NormalizedMomentum: roundTo(normalized, 4),
		Volatility:         roundTo(volatility, 3),
		Class:              classify(volatility, pctChange, rawMomentum),
	}, true
}

// classify runs the ordered rule cascade. The order encodes precedence:
// volatility overrides direction, strong bands are checked before weak
// bands, and anything falling through lands in the explicit
// uncategorized terminal.
func classify(volatility, pctChange, momentum float64) Class {
	switch {
	case volatility > TurbulentVolatility:
		return ClassTurbulent
	case pctChange > StrongChangePct && momentum > 0:
		return ClassStrongUp
	case pctChange < -StrongChangePct && momentum < 0:
		return ClassStrongDown
	case pctChange > WeakChangePct && pctChange <= StrongChangePct:
		return ClassWeakUp
	case pctChange >= -StrongChangePct && pctChange < -WeakChangePct:
		return ClassWeakDown
	case pctChange >= -WeakChangePct && pctChange <= WeakChangePct:
		return ClassStable
	default:
		// Sign mismatch between pct_change and momentum beyond the
		// strong threshold. A known gap in the rule coverage, kept as
		// an explicit terminal for product review.
		return ClassUncategorized
	}
}

// groupByOrg buckets records by EIN in chronological order
func groupByOrg(records []filings.FilingRecord) map[string][]filings.FilingRecord {
	grouped := make(map[string][]filings.FilingRecord)
	for _, r := range records {
		grouped[r.EIN] = append(grouped[r.EIN], r)
	}
	for ein := range grouped {
		series := grouped[ein]
		sort.Slice(series, func(i, j int) bool {
			return series[i].Year < series[j].Year
		})
		grouped[ein] = series
	}
	return grouped
}
