package ranking

import (
	"math"

	"github.com/jonathan/resume-screener/internal/types"
)

const (
	saturatingTenureYears = 3.0
	stabilityFloor        = 0.1
)

// ScoreStability scores the average tenure across dated positions.
// Tenure saturates at three years. An open position (EndYear 0) runs to currentYear.
// ok is false when no position carries a start year.
func ScoreStability(entries []types.ExperienceEntry, currentYear int) (score float64, ok bool) {
	total := 0.0
	dated := 0
	for _, e := range entries {
		if e.StartYear <= 0 {
			continue
		}
		end := e.EndYear
		if end == 0 {
			end = currentYear
		}
		if end < e.StartYear {
			continue
		}
		// a position started and left in the same year still counts as half a year
		total += math.Max(0.5, float64(end-e.StartYear))
		dated++
	}
	if dated == 0 {
		return 0, false
	}

	avg := total / float64(dated)
	return math.Max(stabilityFloor, math.Min(1.0, avg/saturatingTenureYears)), true
}
