package ranking

import (
	"sort"
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
)

// seniorityKeywords map title words to a seniority tier; titles without one sit at midLevel
var seniorityKeywords = []struct {
	word string
	tier int
}{
	{"chief", 7}, {"cto", 7}, {"ceo", 7}, {"vp", 7}, {"vice president", 7},
	{"director", 6}, {"head", 6},
	{"principal", 5}, {"manager", 5},
	{"staff", 4}, {"lead", 4}, {"architect", 4},
	{"senior", 3}, {"sr", 3},
	{"junior", 1}, {"jr", 1}, {"associate", 1},
	{"intern", 0}, {"trainee", 0},
}

const (
	midLevel       = 2
	growthPerLevel = 0.125
)

// SeniorityTier returns the seniority tier implied by a job title.
func SeniorityTier(title string) int {
	tokens := " " + strings.Join(titleTokens(title), " ") + " "
	for _, kw := range seniorityKeywords {
		if strings.Contains(tokens, " "+kw.word+" ") {
			return kw.tier
		}
	}
	return midLevel
}

// ScoreGrowth scores seniority progression from the earliest to the latest position.
// No movement scores 0.5; each tier gained adds 0.125.
// ok is false with fewer than two titled positions.
func ScoreGrowth(entries []types.ExperienceEntry) (score float64, ok bool) {
	titled := make([]types.ExperienceEntry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Title) != "" {
			titled = append(titled, e)
		}
	}
	if len(titled) < 2 {
		return 0, false
	}

	sort.SliceStable(titled, func(i, j int) bool {
		return titled[i].StartYear < titled[j].StartYear
	})

	delta := SeniorityTier(titled[len(titled)-1].Title) - SeniorityTier(titled[0].Title)
	return clamp(0.5 + growthPerLevel*float64(delta)), true
}
