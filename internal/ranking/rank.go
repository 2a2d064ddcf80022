package ranking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
)

// Rank orders successfully scored results by overall score, descending, and assigns
// contiguous 1-based ranks. Ties keep their input order. Failed results are left out.
func Rank(results []*types.MatchResult) []*types.MatchResult {
	ranked := make([]*types.MatchResult, 0, len(results))
	for _, r := range results {
		if r != nil && !r.Failed() {
			ranked = append(ranked, r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OverallScore > ranked[j].OverallScore
	})

	for i, r := range ranked {
		r.Rank = i + 1
	}

	return ranked
}

// GenerateNotes creates a brief explanation of a scored result.
func GenerateNotes(r *types.MatchResult, job *types.JobProfile, flags *types.BiasFlags) string {
	var parts []string

	if sk := r.Skills; sk != nil {
		switch {
		case len(sk.MatchedRequired) == 0 && len(sk.Missing) == 0:
			parts = append(parts, "No required skills declared")
		case r.SkillScore >= 0.7:
			parts = append(parts, fmt.Sprintf("Strong skill match (%s)", strings.Join(sk.MatchedRequired, ", ")))
		case r.SkillScore >= 0.4:
			parts = append(parts, fmt.Sprintf("Moderate skill match (%s)", strings.Join(sk.MatchedRequired, ", ")))
		case len(sk.MatchedRequired) > 0:
			parts = append(parts, fmt.Sprintf("Weak skill match (%s)", strings.Join(sk.MatchedRequired, ", ")))
		default:
			parts = append(parts, "No required skill matches")
		}
		if len(sk.Missing) > 0 {
			parts = append(parts, fmt.Sprintf("Missing %s", strings.Join(sk.Missing, ", ")))
		}
	}

	switch r.Experience {
	case types.ExperienceMet:
		parts = append(parts, "Experience within range")
	case types.ExperienceOverqualified:
		parts = append(parts, "Overqualified on experience")
	case types.ExperienceUnderqualified:
		parts = append(parts, "Below required experience")
	case types.ExperienceUnknown:
		parts = append(parts, "No experience data")
	}

	if job != nil && r.CandidateDegree < job.MinEducationLevel {
		parts = append(parts, fmt.Sprintf("Education below %s", job.MinEducationLevel))
	}

	var redistributed []string
	for _, b := range r.Breakdown {
		if !b.Available && b.ConfiguredWeight > 0 {
			redistributed = append(redistributed, b.Dimension)
		}
	}
	if len(redistributed) > 0 {
		parts = append(parts, fmt.Sprintf("Weight redistributed from %s", strings.Join(redistributed, ", ")))
	}

	if r.BiasAdjusted {
		note := "High bias risk in source document"
		if flags != nil && flags.ScoreDelta != nil {
			note += fmt.Sprintf(" (suggested delta %+.2f, not applied)", *flags.ScoreDelta)
		}
		parts = append(parts, note)
	}

	return strings.Join(parts, ". ")
}
