// Package bias surfaces upstream bias-risk flags on scored results.
//
// Mitigation happens upstream in text neutralisation; this package never
// changes a numeric score.
package bias

import (
	"github.com/jonathan/resume-screener/internal/types"
)

// Adjust returns scores unchanged and reports whether the result should be
// flagged as bias adjusted: only when checking is enabled and the upstream
// detector rated the document high risk.
func Adjust(scores map[string]float64, flags *types.BiasFlags, biasCheck bool) (map[string]float64, bool) {
	return scores, Flagged(flags, biasCheck)
}

// Flagged reports whether a candidate's flags warrant the bias_adjusted marker.
func Flagged(flags *types.BiasFlags, biasCheck bool) bool {
	return biasCheck && flags != nil && flags.RiskLevel == types.RiskHigh
}
