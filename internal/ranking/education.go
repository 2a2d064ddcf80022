package ranking

import (
	"math"

	"github.com/jonathan/resume-screener/internal/types"
)

const (
	oneLevelShort  = 0.7
	educationFloor = 0.1
)

// ScoreEducation scores a candidate's highest degree against the job's minimum level.
func ScoreEducation(level, required types.DegreeLevel) float64 {
	switch {
	case required <= types.DegreeNone:
		return 1.0
	case level >= required:
		return 1.0
	case level == required-1:
		return oneLevelShort
	default:
		return math.Max(educationFloor, float64(level)/float64(required))
	}
}
