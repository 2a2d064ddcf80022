// Package export flattens ranked match results into CSV and JSON reports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
)

// Record is one flat export row
type Record struct {
	Rank          int     `json:"rank,omitempty"`
	CandidateID   string  `json:"candidate_id"`
	CandidateName string  `json:"candidate_name"`
	Email         string  `json:"email,omitempty"`
	OverallScore  float64 `json:"overall_score"`
	// DimensionScores holds every available dimension score; unavailable ones are absent
	DimensionScores map[string]float64 `json:"dimension_scores"`
	BiasAdjusted    bool               `json:"bias_adjusted"`
	Skills          []string           `json:"skills"`
	ExperienceYears float64            `json:"experience_years,omitempty"`
	Status          string             `json:"status"`
	Error           string             `json:"error,omitempty"`
}

// Records flattens results in their given order. Candidate profiles, when supplied,
// fill in contact details, skills and years of experience.
func Records(results []*types.MatchResult, candidates []*types.CandidateProfile) []Record {
	byID := make(map[string]*types.CandidateProfile, len(candidates))
	for _, c := range candidates {
		if c != nil {
			byID[c.ID] = c
		}
	}

	records := make([]Record, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		rec := Record{
			Rank:            r.Rank,
			CandidateID:     r.CandidateID,
			CandidateName:   r.CandidateName,
			OverallScore:    r.OverallScore,
			DimensionScores: dimensionScores(r),
			BiasAdjusted:    r.BiasAdjusted,
			Status:          r.Status,
			Error:           r.Error,
		}
		if c, ok := byID[r.CandidateID]; ok {
			rec.Email = c.Email
			rec.Skills = c.Skills
			rec.ExperienceYears = c.TotalExperienceYears
			if rec.CandidateName == "" {
				rec.CandidateName = c.Name
			}
		} else if r.Skills != nil {
			rec.Skills = append(append(append([]string{}, r.Skills.MatchedRequired...), r.Skills.MatchedPreferred...), r.Skills.Extra...)
		}
		records = append(records, rec)
	}
	return records
}

// dimensionScores copies the result's dimension scores. Results stored without
// the map fall back to the core score fields.
func dimensionScores(r *types.MatchResult) map[string]float64 {
	out := make(map[string]float64, len(r.DimensionScores))
	for name, v := range r.DimensionScores {
		out[name] = v
	}
	if r.DimensionScores == nil && !r.Failed() {
		out[types.DimensionSkills] = r.SkillScore
		out[types.DimensionExperience] = r.ExperienceScore
		out[types.DimensionEducation] = r.EducationScore
		if r.SemanticScore != nil {
			out[types.DimensionSemantic] = *r.SemanticScore
		}
	}
	return out
}

// Dimensions returns the score columns of an export: the core dimensions, every
// configured one, and any other dimension a record carries, in canonical order.
func Dimensions(records []Record, configured ...string) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range types.DefaultWeights() {
		add(name)
	}
	for _, name := range configured {
		add(name)
	}
	for _, rec := range records {
		for name := range rec.DimensionScores {
			add(name)
		}
	}
	return ranking.OrderDimensions(names)
}

var columnLabels = map[string]string{
	types.DimensionSkills:     "Skill Score",
	types.DimensionExperience: "Experience Score",
	types.DimensionEducation:  "Education Score",
	types.DimensionSemantic:   "Semantic Score",
}

func columnLabel(dimension string) string {
	if label, ok := columnLabels[dimension]; ok {
		return label
	}
	if dimension == "" {
		return "Score"
	}
	return strings.ToUpper(dimension[:1]) + dimension[1:] + " Score"
}

// CSVHeader returns the header row for the given score columns
func CSVHeader(dimensions []string) []string {
	header := []string{"Rank", "Candidate ID", "Candidate Name", "Email", "Overall Score"}
	for _, d := range dimensions {
		header = append(header, columnLabel(d))
	}
	return append(header, "Bias Adjusted", "Skills", "Experience (Years)", "Status", "Error")
}

// WriteCSV writes records with a header row, one score column per dimension
// reported by Dimensions. Scores are rendered as percentages; unavailable ones as N/A.
func WriteCSV(w io.Writer, records []Record, configured ...string) error {
	dimensions := Dimensions(records, configured...)

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader(dimensions)); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rankCell(rec.Rank),
			rec.CandidateID,
			orNA(rec.CandidateName),
			orNA(rec.Email),
			percent(rec.OverallScore),
		}
		for _, d := range dimensions {
			cell := "N/A"
			if v, ok := rec.DimensionScores[d]; ok {
				cell = percent(v)
			}
			row = append(row, cell)
		}
		years := "N/A"
		if rec.ExperienceYears > 0 {
			years = strconv.FormatFloat(rec.ExperienceYears, 'f', -1, 64)
		}
		row = append(row,
			yesNo(rec.BiasAdjusted),
			strings.Join(rec.Skills, ", "),
			years,
			rec.Status,
			rec.Error,
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", rec.CandidateID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func rankCell(rank int) string {
	if rank <= 0 {
		return ""
	}
	return strconv.Itoa(rank)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// -----------------------------------------------------------------------------
// JSON report
// -----------------------------------------------------------------------------

// Report is the downloadable JSON report of a session
type Report struct {
	Metadata ReportMetadata       `json:"report_metadata"`
	Results  []*types.MatchResult `json:"results"`
	Summary  Summary              `json:"summary"`
}

// ReportMetadata identifies the session a report was generated from
type ReportMetadata struct {
	GeneratedAt      time.Time           `json:"generated_at"`
	SessionID        string              `json:"session_id"`
	JobID            string              `json:"job_id"`
	JobTitle         string              `json:"job_title,omitempty"`
	Status           types.SessionStatus `json:"status"`
	TotalCandidates  int                 `json:"total_candidates"`
	FailedCandidates int                 `json:"failed_candidates"`
}

// Summary aggregates the overall scores of the ranked results
type Summary struct {
	Ranked            int     `json:"ranked"`
	AvgScore          float64 `json:"avg_score"`
	MaxScore          float64 `json:"max_score"`
	MinScore          float64 `json:"min_score"`
	BiasFlagged       int     `json:"bias_flagged"`
	ScoreDistribution [10]int `json:"score_distribution"` // buckets of 10 percentage points

	// DimensionAverages is the mean of each dimension over the results where it was available
	DimensionAverages map[string]float64 `json:"dimension_averages,omitempty"`
}

// BuildReport assembles a report. Failed results are kept in Results but excluded from the summary.
func BuildReport(snap types.SessionSnapshot, results []*types.MatchResult, generatedAt time.Time) Report {
	report := Report{
		Metadata: ReportMetadata{
			GeneratedAt:      generatedAt.UTC(),
			SessionID:        snap.ID,
			JobID:            snap.JobID,
			JobTitle:         snap.JobTitle,
			Status:           snap.Status,
			TotalCandidates:  snap.TotalCandidates,
			FailedCandidates: snap.FailedCandidates,
		},
		Results: results,
	}
	if report.Results == nil {
		report.Results = []*types.MatchResult{}
	}
	report.Summary = Summarize(results)
	return report
}

// Summarize computes summary statistics over scored results
func Summarize(results []*types.MatchResult) Summary {
	var s Summary
	var sum float64
	dimSums := make(map[string]float64)
	dimCounts := make(map[string]int)
	for _, r := range results {
		if r == nil || r.Failed() {
			continue
		}
		for name, v := range dimensionScores(r) {
			dimSums[name] += v
			dimCounts[name]++
		}
		if s.Ranked == 0 || r.OverallScore > s.MaxScore {
			s.MaxScore = r.OverallScore
		}
		if s.Ranked == 0 || r.OverallScore < s.MinScore {
			s.MinScore = r.OverallScore
		}
		s.Ranked++
		sum += r.OverallScore
		if r.BiasAdjusted {
			s.BiasFlagged++
		}
		bucket := int(r.OverallScore * 10)
		if bucket > 9 {
			bucket = 9
		}
		if bucket < 0 {
			bucket = 0
		}
		s.ScoreDistribution[bucket]++
	}
	if s.Ranked > 0 {
		s.AvgScore = sum / float64(s.Ranked)
	}
	if len(dimSums) > 0 {
		s.DimensionAverages = make(map[string]float64, len(dimSums))
		for name, total := range dimSums {
			s.DimensionAverages[name] = total / float64(dimCounts[name])
		}
	}
	return s
}

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
