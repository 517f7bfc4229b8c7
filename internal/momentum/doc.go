// Package momentum implements revenue-trajectory analysis for nonprofit
// organizations: a per-year trajectory builder over a fixed window and a
// rule-based momentum classifier over the full revenue history.
//
// # Architecture
//
//   - types.go: core data structures and the momentum class enumeration
//   - stats.go: mean / sample standard deviation helpers
//   - trajectory.go: per-year pivot with derived trend metrics
//   - classifier.go: the ordered rule cascade assigning momentum classes
//   - persist.go: CSV persistence for both output tables
//
// # Classification
//
// An organization needs at least six usable revenue points to be
// classified; organizations below that coverage are skipped, not
// errored. Given the last three points (recent) and the three before
// them (prior):
//
//	pct_change          = (mean(recent) - mean(prior)) / mean(prior) * 100
//	raw_momentum        = (r2 - r1) + (r1 - r0)
//	normalized_momentum = raw_momentum / mean(recent)
//	volatility          = stddev(history) / mean(history)
//
// The class cascade is evaluated in a fixed priority order; volatility
// above 0.5 pre-empts every magnitude rule. The ordering is load-bearing
// and must not be rearranged.
package momentum
