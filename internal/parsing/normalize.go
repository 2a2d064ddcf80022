package parsing

import (
	"strings"
)

// NormalizeSkillName lowercases a skill name, trims it and collapses inner whitespace
func NormalizeSkillName(skillName string) string {
	if skillName == "" {
		return ""
	}
	return strings.Join(strings.Fields(strings.ToLower(skillName)), " ")
}

// NormalizeSkills normalizes skill names, dropping empties and duplicates.
// First-seen order is preserved.
func NormalizeSkills(skills []string) []string {
	if len(skills) == 0 {
		return []string{}
	}

	normalized := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))

	for _, skill := range skills {
		name := NormalizeSkillName(skill)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		normalized = append(normalized, name)
	}

	return normalized
}
