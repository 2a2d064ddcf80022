package parsing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
)

// openEndedSpan is added to a bare "n years" requirement to form its upper bound
const openEndedSpan = 3.0

var (
	rangePattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:-|–|to)\s*(\d+(?:\.\d+)?)`)
	plusPattern   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*\+`)
	atLeastRegex  = regexp.MustCompile(`(?:at least|minimum(?: of)?|min\.?)\s*(\d+(?:\.\d+)?)`)
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// ParseExperienceRange parses a job's experience requirement text.
//
//	"3-5 years"      -> {3, 5}
//	"5+ years"       -> {5, unbounded}
//	"at least 2"     -> {2, unbounded}
//	"4 years"        -> {4, 7}
//
// Empty text returns nil, meaning no requirement.
func ParseExperienceRange(text string) (*types.ExperienceRange, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return nil, nil
	}

	if m := rangePattern.FindStringSubmatch(lower); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		if hi < lo {
			return nil, &ValidationError{
				Field:   "experience_range",
				Message: fmt.Sprintf("upper bound %g is below lower bound %g", hi, lo),
			}
		}
		return types.Range(lo, hi), nil
	}

	if m := plusPattern.FindStringSubmatch(lower); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		return types.OpenRange(lo), nil
	}

	if m := atLeastRegex.FindStringSubmatch(lower); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		return types.OpenRange(lo), nil
	}

	if m := numberPattern.FindString(lower); m != "" {
		n, _ := strconv.ParseFloat(m, 64)
		return types.Range(n, n+openEndedSpan), nil
	}

	return nil, &ValidationError{
		Field:   "experience_range",
		Message: fmt.Sprintf("no years found in %q", text),
	}
}

// parseYears extracts the first number from text such as "4.5 years".
// Text without a number yields 0, meaning unknown.
func parseYears(text string) float64 {
	m := numberPattern.FindString(text)
	if m == "" {
		return 0
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return n
}
