package ranking

import (
	"math"

	"github.com/jonathan/resume-screener/internal/types"
)

const (
	overqualifiedFloor   = 0.6
	overqualifiedPenalty = 0.05 // per year above the cap
	underqualifiedFloor  = 0.1
	unknownExperience    = 0.1
)

// ScoreExperience scores candidate years against a job's experience range.
// A nil range means {0, unbounded}. Years that are not positive mean the candidate gave no data.
func ScoreExperience(years float64, rng *types.ExperienceRange) (float64, types.ExperienceClassification) {
	if !(years > 0) {
		return unknownExperience, types.ExperienceUnknown
	}

	minYears := 0.0
	if rng != nil {
		minYears = rng.MinYears
	}

	switch {
	case years < minYears:
		return math.Max(underqualifiedFloor, years/minYears), types.ExperienceUnderqualified
	case rng.Bounded() && years > *rng.MaxYears:
		over := years - *rng.MaxYears
		return math.Max(overqualifiedFloor, 1.0-overqualifiedPenalty*over), types.ExperienceOverqualified
	default:
		return 1.0, types.ExperienceMet
	}
}
