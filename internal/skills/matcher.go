// Package skills matches a candidate's skill set against a job's required and preferred skills.
package skills

import (
	"strings"

	"github.com/jonathan/resume-screener/internal/parsing"
)

const (
	requiredShare  = 0.85
	preferredShare = 0.15
)

// SkillMatch is the outcome of matching one candidate against one job
type SkillMatch struct {
	Score            float64  `json:"score"`
	MatchedRequired  []string `json:"matched_required"`
	MatchedPreferred []string `json:"matched_preferred"`
	Missing          []string `json:"missing"`
	Extra            []string `json:"extra"`
}

// Match scores candidate skills against required and preferred job skills.
//
// All inputs are normalized first. A candidate skill satisfies a job skill when
// the two are equal or either contains the other ("react" satisfies "react native").
// When the job declares no required skills the score is 1.0 regardless of the
// candidate. When it declares no preferred skills the required coverage carries
// the full score.
func Match(candidateSkills, required, preferred []string) SkillMatch {
	candidate := parsing.NormalizeSkills(candidateSkills)
	req := parsing.NormalizeSkills(required)
	pref := parsing.NormalizeSkills(preferred)

	m := SkillMatch{
		MatchedRequired:  []string{},
		MatchedPreferred: []string{},
		Missing:          []string{},
		Extra:            []string{},
	}

	for _, skill := range req {
		if satisfied(skill, candidate) {
			m.MatchedRequired = append(m.MatchedRequired, skill)
		} else {
			m.Missing = append(m.Missing, skill)
		}
	}
	for _, skill := range pref {
		if satisfied(skill, candidate) {
			m.MatchedPreferred = append(m.MatchedPreferred, skill)
		}
	}
	for _, skill := range candidate {
		if !satisfied(skill, req) && !satisfied(skill, pref) {
			m.Extra = append(m.Extra, skill)
		}
	}

	switch {
	case len(req) == 0:
		m.Score = 1.0
	case len(pref) == 0:
		m.Score = float64(len(m.MatchedRequired)) / float64(len(req))
	default:
		base := float64(len(m.MatchedRequired)) / float64(len(req))
		bonus := float64(len(m.MatchedPreferred)) / float64(len(pref))
		m.Score = base*requiredShare + bonus*preferredShare
	}
	m.Score = clamp(m.Score)

	return m
}

func satisfied(skill string, pool []string) bool {
	for _, other := range pool {
		if skill == other || strings.Contains(skill, other) || strings.Contains(other, skill) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
