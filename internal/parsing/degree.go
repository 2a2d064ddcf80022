package parsing

import (
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
)

// degreeKeywords are matched as substrings, highest level first
var degreeKeywords = []struct {
	keywords []string
	level    types.DegreeLevel
}{
	{[]string{"phd", "ph.d", "doctorate", "doctoral", "doctor of"}, types.DegreePhD},
	{[]string{"master", "mba", "m.tech", "m.sc", "m.e.", "m.a."}, types.DegreeMaster},
	{[]string{"bachelor", "b.tech", "b.sc", "b.e.", "b.a."}, types.DegreeBachelor},
	{[]string{"diploma", "associate"}, types.DegreeDiploma},
	{[]string{"certificate", "certification"}, types.DegreeCertificate},
}

// degreeAbbreviations are matched only as whole tokens so "ms" does not match "systems"
var degreeAbbreviations = map[string]types.DegreeLevel{
	"dphil": types.DegreePhD,
	"ms":    types.DegreeMaster,
	"msc":   types.DegreeMaster,
	"mtech": types.DegreeMaster,
	"ma":    types.DegreeMaster,
	"m.s":   types.DegreeMaster,
	"m.e":   types.DegreeMaster,
	"m.a":   types.DegreeMaster,
	"bs":    types.DegreeBachelor,
	"bsc":   types.DegreeBachelor,
	"btech": types.DegreeBachelor,
	"ba":    types.DegreeBachelor,
	"b.s":   types.DegreeBachelor,
	"b.e":   types.DegreeBachelor,
	"b.a":   types.DegreeBachelor,
}

// ParseDegreeLevel maps free-text degree wording onto the education hierarchy.
// Unrecognised text, including "high school", maps to DegreeNone.
func ParseDegreeLevel(degree string) types.DegreeLevel {
	lower := strings.ToLower(strings.TrimSpace(degree))
	if lower == "" {
		return types.DegreeNone
	}

	for _, group := range degreeKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.level
			}
		}
	}

	best := types.DegreeNone
	for _, token := range strings.FieldsFunc(lower, isDegreeSeparator) {
		token = strings.TrimSuffix(token, ".")
		if level, ok := degreeAbbreviations[token]; ok && level > best {
			best = level
		}
	}
	return best
}

func isDegreeSeparator(r rune) bool {
	switch r {
	case ' ', ',', '(', ')', '/', ';', '-', '\t', '\'':
		return true
	}
	return false
}
