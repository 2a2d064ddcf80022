package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-screener/internal/types"
)

func TestPrintJobProfile(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	profile := &types.JobProfile{
		ID:                "job-1",
		Title:             "Data Analyst",
		RequiredSkills:    []string{"python", "sql", "tableau", "excel", "statistics", "r"},
		PreferredSkills:   []string{"dbt"},
		ExperienceRange:   types.Range(2, 5),
		MinEducationLevel: types.DegreeMaster,
	}

	p.PrintJobProfile(profile)
	output := buf.String()

	assert.Contains(t, output, "JOB PROFILE")
	assert.Contains(t, output, "Data Analyst")
	assert.Contains(t, output, "2-5 years")
	assert.Contains(t, output, "master")
	assert.Contains(t, output, "... and 1 more")
	assert.Contains(t, output, "dbt")
	assert.Contains(t, output, "none")
}

func TestPrintJobProfile_OpenRange(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintJobProfile(&types.JobProfile{ID: "j", ExperienceRange: types.OpenRange(5), Embedding: []float64{1, 2}})

	assert.Contains(t, buf.String(), "5+ years")
	assert.Contains(t, buf.String(), "2 dims")
}

func TestPrintJobProfile_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintJobProfile(nil)
	assert.Empty(t, buf.String())
}

func TestPrintMatchResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintMatchResult(&types.MatchResult{
		CandidateID:   "c1",
		CandidateName: "Ada",
		OverallScore:  0.874,
		Status:        types.ResultStatusScored,
		Breakdown: []types.DimensionContribution{
			{Dimension: "skills", Score: 1, Weight: 0.4, Contribution: 0.4, Available: true},
			{Dimension: "semantic", Available: false},
		},
		Skills: &types.SkillBreakdown{Missing: []string{"tableau"}},
		Notes:  "Strong skill match (python, sql). Missing tableau",
	})
	output := buf.String()

	assert.Contains(t, output, "MATCH RESULT")
	assert.Contains(t, output, "Ada (c1)")
	assert.Contains(t, output, "87.4%")
	assert.Contains(t, output, "n/a")
	assert.Contains(t, output, "tableau")
	assert.Contains(t, output, "» Missing tableau")
}

func TestPrintMatchResult_Failed(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintMatchResult(&types.MatchResult{CandidateID: "c2", Status: types.ResultStatusFailed, Error: "malformed"})

	assert.Contains(t, buf.String(), "failed")
	assert.Contains(t, buf.String(), "malformed")
	assert.NotContains(t, buf.String(), "Dimension")
}

func TestPrintSession(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	ranked := make([]*types.MatchResult, 7)
	for i := range ranked {
		ranked[i] = &types.MatchResult{CandidateID: "c", Rank: i + 1, OverallScore: 0.9 - float64(i)*0.1}
	}
	ranked[0].BiasAdjusted = true

	p.PrintSession(types.SessionSnapshot{
		ID: "s1", JobID: "j1", Status: types.SessionCompleted,
		TotalCandidates: 8, ProcessedCandidates: 7, FailedCandidates: 1,
	}, ranked)
	output := buf.String()

	assert.Contains(t, output, "MATCH SESSION")
	assert.Contains(t, output, "7 of 8 (1 failed)")
	assert.Contains(t, output, "⚑")
	assert.Contains(t, output, "... and 2 more candidates")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)))
	}
	assert.Contains(t, buf.String(), "...")
}
