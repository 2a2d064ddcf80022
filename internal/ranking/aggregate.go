package ranking

import (
	"github.com/jonathan/resume-screener/internal/types"
)

// Aggregate combines dimension scores into an overall score in [0,1].
//
// Weights of the available dimensions are divided by their sum, so any uniform
// rescaling of weights yields the same result. If every available dimension has
// zero weight the overall score is their unweighted mean. Dimensions named in
// weights but missing from scores count as unavailable. The breakdown lists every
// configured dimension in canonical order.
func Aggregate(scores map[string]Score, weights map[string]float64) (float64, []types.DimensionContribution, error) {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	names = OrderDimensions(names)

	weightSum := 0.0
	available := 0
	for _, name := range names {
		if s, ok := scores[name]; ok && s.Available {
			weightSum += weights[name]
			available++
		}
	}
	if available == 0 {
		return 0, nil, ErrNoAvailableDimensions
	}

	breakdown := make([]types.DimensionContribution, 0, len(names))
	overall := 0.0
	for _, name := range names {
		s, ok := scores[name]
		entry := types.DimensionContribution{
			Dimension:        name,
			ConfiguredWeight: weights[name],
			Available:        ok && s.Available,
		}
		if entry.Available {
			entry.Score = clamp(s.Value)
			if weightSum > 0 {
				entry.Weight = weights[name] / weightSum
			} else {
				entry.Weight = 1.0 / float64(available)
			}
			entry.Contribution = entry.Score * entry.Weight
			overall += entry.Contribution
		}
		breakdown = append(breakdown, entry)
	}

	return clamp(overall), breakdown, nil
}
