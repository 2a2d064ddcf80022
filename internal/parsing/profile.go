// Package parsing coerces loosely typed extraction output into typed candidate and job profiles.
package parsing

import (
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
	"github.com/tidwall/gjson"
)

// ParseCandidateProfile reads one candidate document produced by the extraction stage.
//
// Accepted shapes are deliberately loose: skills may be strings or {"name": ...}
// objects, years may be numbers or strings like "4.5 years", and education may
// be a single free-text degree or a list of entries.
func ParseCandidateProfile(data []byte) (*types.CandidateProfile, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Message: "candidate document is not valid JSON"}
	}
	return CandidateFromResult(gjson.ParseBytes(data))
}

// CandidateFromResult coerces an already parsed candidate object.
func CandidateFromResult(doc gjson.Result) (*types.CandidateProfile, error) {
	if !doc.IsObject() {
		return nil, &ParseError{Message: "candidate document must be a JSON object"}
	}

	profile := &types.CandidateProfile{
		ID:           firstString(doc, "id", "candidate_id"),
		Name:         firstString(doc, "name", "full_name"),
		Email:        firstString(doc, "email"),
		CurrentTitle: firstString(doc, "current_title", "title"),
		Skills:       NormalizeSkills(stringList(doc.Get("skills"))),
	}
	if profile.ID == "" {
		return nil, &ValidationError{Field: "id", Message: "candidate id is required"}
	}

	years, err := coerceYears(first(doc, "total_experience_years", "experience_years"))
	if err != nil {
		return nil, err
	}
	profile.TotalExperienceYears = years

	profile.Education = parseEducation(doc.Get("education"))
	profile.Experience = parseExperienceEntries(doc.Get("experience"))

	embedding, err := parseEmbedding(doc.Get("embedding"))
	if err != nil {
		return nil, err
	}
	profile.Embedding = embedding

	if flags := doc.Get("bias_flags"); flags.IsObject() {
		profile.BiasFlags = parseBiasFlags(flags)
	}

	return profile, nil
}

// ParseJobProfile reads one job document produced by the extraction stage.
func ParseJobProfile(data []byte) (*types.JobProfile, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Message: "job document is not valid JSON"}
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, &ParseError{Message: "job document must be a JSON object"}
	}

	profile := &types.JobProfile{
		ID:              firstString(doc, "id", "job_id"),
		Title:           firstString(doc, "title", "role_title"),
		RequiredSkills:  NormalizeSkills(stringList(doc.Get("required_skills"))),
		PreferredSkills: NormalizeSkills(stringList(doc.Get("preferred_skills"))),
	}
	if profile.ID == "" {
		return nil, &ValidationError{Field: "id", Message: "job id is required"}
	}

	rng, err := parseJobExperience(first(doc, "experience_range", "experience_required"))
	if err != nil {
		return nil, err
	}
	profile.ExperienceRange = rng

	level, err := coerceDegreeLevel(first(doc, "min_education_level", "education_required"))
	if err != nil {
		return nil, err
	}
	profile.MinEducationLevel = level

	embedding, err := parseEmbedding(doc.Get("embedding"))
	if err != nil {
		return nil, err
	}
	profile.Embedding = embedding

	return profile, nil
}

func first(doc gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := doc.Get(p); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

func firstString(doc gjson.Result, paths ...string) string {
	return strings.TrimSpace(first(doc, paths...).String())
}

// stringList accepts an array of strings or {"name": ...} objects, or a comma separated string
func stringList(r gjson.Result) []string {
	switch {
	case r.IsArray():
		out := make([]string, 0, len(r.Array()))
		r.ForEach(func(_, v gjson.Result) bool {
			if v.IsObject() {
				out = append(out, v.Get("name").String())
			} else {
				out = append(out, v.String())
			}
			return true
		})
		return out
	case r.Type == gjson.String:
		return strings.Split(r.String(), ",")
	}
	return nil
}

func coerceYears(r gjson.Result) (float64, error) {
	var years float64
	switch r.Type {
	case gjson.Number:
		years = r.Float()
	case gjson.String:
		years = parseYears(r.String())
	default:
		return 0, nil
	}
	if years < 0 || math.IsNaN(years) || math.IsInf(years, 0) {
		return 0, &ValidationError{
			Field:   "total_experience_years",
			Message: fmt.Sprintf("invalid years %q", r.Raw),
		}
	}
	return years, nil
}

func coerceDegreeLevel(r gjson.Result) (types.DegreeLevel, error) {
	switch r.Type {
	case gjson.Number:
		level := types.DegreeLevel(r.Int())
		if !level.Valid() || r.Float() != math.Trunc(r.Float()) {
			return 0, &ValidationError{
				Field:   "min_education_level",
				Message: fmt.Sprintf("level %s is outside 0-5", r.Raw),
			}
		}
		return level, nil
	case gjson.String:
		return ParseDegreeLevel(r.String()), nil
	}
	return types.DegreeNone, nil
}

func parseEducation(r gjson.Result) []types.Education {
	switch {
	case r.Type == gjson.String:
		if strings.TrimSpace(r.String()) == "" {
			return nil
		}
		return []types.Education{educationFromText(r.String())}
	case r.IsObject():
		return []types.Education{educationFromObject(r)}
	case r.IsArray():
		var entries []types.Education
		r.ForEach(func(_, v gjson.Result) bool {
			if v.IsObject() {
				entries = append(entries, educationFromObject(v))
			} else if text := strings.TrimSpace(v.String()); text != "" {
				entries = append(entries, educationFromText(text))
			}
			return true
		})
		return entries
	}
	return nil
}

func educationFromText(text string) types.Education {
	text = strings.TrimSpace(text)
	return types.Education{DegreeLevel: ParseDegreeLevel(text), Degree: text}
}

func educationFromObject(v gjson.Result) types.Education {
	edu := types.Education{
		Degree: strings.TrimSpace(v.Get("degree").String()),
		Field:  strings.TrimSpace(v.Get("field").String()),
		Year:   int(v.Get("year").Int()),
	}
	if lvl := v.Get("degree_level"); lvl.Type == gjson.Number && types.DegreeLevel(lvl.Int()).Valid() {
		edu.DegreeLevel = types.DegreeLevel(lvl.Int())
	} else {
		edu.DegreeLevel = ParseDegreeLevel(edu.Degree)
	}
	return edu
}

func parseExperienceEntries(r gjson.Result) []types.ExperienceEntry {
	if !r.IsArray() {
		return nil
	}
	var entries []types.ExperienceEntry
	r.ForEach(func(_, v gjson.Result) bool {
		if !v.IsObject() {
			return true
		}
		entries = append(entries, types.ExperienceEntry{
			Title:     strings.TrimSpace(v.Get("title").String()),
			Company:   strings.TrimSpace(v.Get("company").String()),
			StartYear: yearOf(v.Get("start_year")),
			EndYear:   yearOf(v.Get("end_year")),
		})
		return true
	})
	return entries
}

// yearOf maps "present", "current" and missing values to 0
func yearOf(r gjson.Result) int {
	if r.Type == gjson.Number {
		return int(r.Int())
	}
	return int(parseYears(r.String()))
}

func parseEmbedding(r gjson.Result) ([]float64, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	if !r.IsArray() {
		return nil, &ValidationError{Field: "embedding", Message: "must be an array of numbers"}
	}
	items := r.Array()
	if len(items) == 0 {
		return nil, nil
	}
	vec := make([]float64, len(items))
	for i, item := range items {
		if item.Type != gjson.Number {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("embedding[%d]", i),
				Message: fmt.Sprintf("expected a number, got %s", item.Type),
			}
		}
		vec[i] = item.Float()
	}
	return vec, nil
}

func parseBiasFlags(r gjson.Result) *types.BiasFlags {
	flags := &types.BiasFlags{
		RiskLevel:           types.RiskLevel(strings.ToLower(strings.TrimSpace(r.Get("risk_level").String()))),
		RecommendAdjustment: r.Get("recommend_adjustment").Bool(),
	}
	if delta := r.Get("score_delta"); delta.Type == gjson.Number {
		d := delta.Float()
		flags.ScoreDelta = &d
	}
	return flags
}

func parseJobExperience(r gjson.Result) (*types.ExperienceRange, error) {
	switch {
	case r.IsObject():
		rng := &types.ExperienceRange{MinYears: r.Get("min_years").Float()}
		if maxYears := r.Get("max_years"); maxYears.Type == gjson.Number {
			m := maxYears.Float()
			rng.MaxYears = &m
		}
		if rng.MinYears < 0 || (rng.MaxYears != nil && *rng.MaxYears < rng.MinYears) {
			return nil, &ValidationError{Field: "experience_range", Message: "invalid bounds"}
		}
		return rng, nil
	case r.Type == gjson.String:
		return ParseExperienceRange(r.String())
	case r.Type == gjson.Number:
		return ParseExperienceRange(r.Raw)
	}
	return nil, nil
}

// ParseCandidatesLenient reads a JSON array of candidate documents, keeping going past malformed
// entries. A malformed entry leaves a nil profile at its index and its error at the same index
// in errs, so the session scores the rest and records the entry as a failed candidate.
func ParseCandidatesLenient(data []byte) (candidates []*types.CandidateProfile, errs []error, err error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, &ParseError{Message: "candidates document is not valid JSON"}
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, nil, &ParseError{Message: "candidates document must be a JSON array"}
	}

	items := doc.Array()
	candidates = make([]*types.CandidateProfile, len(items))
	errs = make([]error, len(items))
	for i, item := range items {
		candidates[i], errs[i] = CandidateFromResult(item)
	}
	return candidates, errs, nil
}
