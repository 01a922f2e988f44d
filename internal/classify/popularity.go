package classify

import "math"

// Engagement weights of the popularity composite. For repositories
// this blends stars, forks and open issues.
const (
	primaryWeight    = 0.6
	secondaryWeight  = 0.3
	engagementWeight = 0.1
	popularityScale  = 10
)

// PopularityScore maps raw engagement metrics to a bounded 0-100 score.
// Negative inputs are floored by the clamp rather than rejected: a
// source reporting a bogus negative count scores zero, it does not
// break the run.
func PopularityScore(primary, secondary, engagement int) int {
	score := (float64(primary)*primaryWeight +
		float64(secondary)*secondaryWeight +
		float64(engagement)*engagementWeight) / popularityScale

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(math.Round(score))
}
