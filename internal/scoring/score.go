package scoring

import (
	"strings"

	"npopulse/internal/registry"
)

// Score computes the additive outreach priority score for a merged
// profile. Components stack independently: the turbulent-history flag
// and the momentum-class bonus can both fire for the same organization.
func Score(p MasterProfile) int {
	score := 0

	if p.IsHollow {
		score += HollowPoints
	}
	if p.IsTurbulent {
		score += TurbulentHistoryPts
	}

	class := strings.ToLower(string(p.Momentum.Class))
	switch {
	case strings.Contains(class, "down"):
		score += DecliningClassPoints
	case strings.Contains(class, "turbulent"):
		score += TurbulentClassPoints
	}

	switch p.Org.SizeBucket {
	case registry.SizeMedium:
		score += MediumSizePoints
	case registry.SizeLarge:
		score += LargeSizePoints
	case registry.SizeMajor:
		score += MajorSizePoints
	}

	return score
}

// FlagFor maps a priority score to its target flag
func FlagFor(score int) TargetFlag {
	switch {
	case score >= HighPriorityFloor:
		return FlagHighPriority
	case score >= WatchlistFloor:
		return FlagWatchlist
	case score >= LowPriorityFloor:
		return FlagLowPriority
	default:
		return FlagNotAFit
	}
}

// ScoreAll assigns the priority score and target flag to every profile
// in place.
func ScoreAll(profiles []MasterProfile) {
	for i := range profiles {
		profiles[i].PriorityScore = Score(profiles[i])
		profiles[i].TargetFlag = FlagFor(profiles[i].PriorityScore)
	}
}
