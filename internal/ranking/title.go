package ranking

import (
	"strings"
	"unicode"
)

var titleStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "at": true, "for": true,
	"in": true, "of": true, "on": true, "the": true, "to": true, "with": true,
}

// ScoreTitle returns the share of job title tokens present in the candidate title.
// ok is false when either title is empty.
func ScoreTitle(candidateTitle, jobTitle string) (score float64, ok bool) {
	jobTokens := titleTokens(jobTitle)
	candTokens := titleTokens(candidateTitle)
	if len(jobTokens) == 0 || len(candTokens) == 0 {
		return 0, false
	}

	have := make(map[string]bool, len(candTokens))
	for _, t := range candTokens {
		have[t] = true
	}
	matched := 0
	for _, t := range jobTokens {
		if have[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(jobTokens)), true
}

func titleTokens(title string) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	seen := make(map[string]bool, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if titleStopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}
