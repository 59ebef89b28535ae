// Package score computes controversy and ranking metrics from vote tallies.
// Everything here is pure; persistence lives in the repository layer.
package score

import (
	"math"
	"time"
)

const (
	// MinimumVotes keeps a 1-vs-1 split from being flagged controversial.
	MinimumVotes = 50
	// ControversialThreshold is the score at which a take counts as controversial.
	ControversialThreshold = 0.7

	trendingDecayHours = 24.0
)

// Controversy returns 1 - |agree-disagree|/total, rounded to 4 decimals.
// 1 is an exact split, 0 is unanimity or no votes.
func Controversy(agree, disagree int) float64 {
	total := agree + disagree
	if total == 0 {
		return 0
	}
	diff := math.Abs(float64(agree - disagree))
	return round4(1 - diff/float64(total))
}

// IsControversial requires both a minimum vote count and a high enough score.
func IsControversial(agree, disagree, minimumVotes int) bool {
	if agree+disagree < minimumVotes {
		return false
	}
	return Controversy(agree, disagree) >= ControversialThreshold
}

// Percentages returns rounded agree/disagree shares. They default to 50/50
// with no votes and are not forced to sum to 100.
func Percentages(agree, disagree int) (agreePct, disagreePct int) {
	total := agree + disagree
	if total == 0 {
		return 50, 50
	}
	return roundHalfUp(float64(agree) / float64(total) * 100),
		roundHalfUp(float64(disagree) / float64(total) * 100)
}

// Trending decays the vote total exponentially with age.
func Trending(totalVotes int, createdAt, now time.Time) float64 {
	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return float64(totalVotes) * math.Exp(-ageHours/trendingDecayHours)
}

// Level returns a human label for a controversy score.
func Level(score float64) string {
	switch {
	case score >= 0.9:
		return "Extremely Controversial"
	case score >= 0.8:
		return "Very Controversial"
	case score >= ControversialThreshold:
		return "Controversial"
	case score >= 0.5:
		return "Somewhat Divisive"
	default:
		return "Clear Consensus"
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// roundHalfUp rounds .5 toward +Inf, matching how the web client rounds.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
