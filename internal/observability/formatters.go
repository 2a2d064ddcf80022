// Package observability provides formatted output utilities for verbose CLI mode
// and Prometheus instrumentation for match sessions.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func pct(v float64) string {
	return fmt.Sprintf("%5.1f%%", v*100)
}

// writeList writes up to limit items as bullets followed by a remainder line
func writeList(sb *strings.Builder, label string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(label + ":\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
}

// PrintJobProfile outputs a human-readable summary of the job profile.
func (p *Printer) PrintJobProfile(profile *types.JobProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:        %s\n", profile.ID))
	if profile.Title != "" {
		sb.WriteString(fmt.Sprintf("Title:      %s\n", profile.Title))
	}

	experience := "any"
	if r := profile.ExperienceRange; r != nil {
		if r.Bounded() {
			experience = fmt.Sprintf("%g-%g years", r.MinYears, *r.MaxYears)
		} else {
			experience = fmt.Sprintf("%g+ years", r.MinYears)
		}
	}
	sb.WriteString(fmt.Sprintf("Experience: %s\n", experience))
	sb.WriteString(fmt.Sprintf("Education:  %s\n", profile.MinEducationLevel))
	sb.WriteString(fmt.Sprintf("Embedding:  %s\n", embeddingLabel(profile.Embedding)))
	sb.WriteString("\n")

	writeList(&sb, "Required", profile.RequiredSkills, maxItemsToShow)
	writeList(&sb, "Preferred", profile.PreferredSkills, 3)

	p.printBox("JOB PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

func embeddingLabel(e []float64) string {
	if len(e) == 0 {
		return "none"
	}
	return fmt.Sprintf("%d dims", len(e))
}

// PrintMatchResult outputs the per-dimension breakdown of one scored candidate.
func (p *Printer) PrintMatchResult(result *types.MatchResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	name := result.CandidateID
	if result.CandidateName != "" {
		name = fmt.Sprintf("%s (%s)", result.CandidateName, result.CandidateID)
	}
	sb.WriteString(fmt.Sprintf("Candidate: %s\n", name))

	if result.Failed() {
		sb.WriteString(fmt.Sprintf("Status:    failed\nError:     %s", result.Error))
		p.printBox("MATCH RESULT", sb.String())
		return
	}

	sb.WriteString(fmt.Sprintf("Overall:   %s\n\n", pct(result.OverallScore)))

	sb.WriteString(fmt.Sprintf("%-12s %7s %7s %7s\n", "Dimension", "Score", "Weight", "Contrib"))
	for _, c := range result.Breakdown {
		if !c.Available {
			sb.WriteString(fmt.Sprintf("%-12s %7s %7s %7s\n", c.Dimension, "n/a", "-", "-"))
			continue
		}
		sb.WriteString(fmt.Sprintf("%-12s %7s %7s %7s\n", c.Dimension, pct(c.Score), pct(c.Weight), pct(c.Contribution)))
	}

	if result.Skills != nil {
		sb.WriteString("\n")
		writeList(&sb, "Missing skills", result.Skills.Missing, 3)
	}
	if result.Notes != "" {
		sb.WriteString("\n")
		for _, note := range strings.Split(result.Notes, ". ") {
			sb.WriteString(fmt.Sprintf("» %s\n", note))
		}
	}

	p.printBox("MATCH RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSession outputs the session status and its top ranked candidates.
func (p *Printer) PrintSession(snap types.SessionSnapshot, ranked []*types.MatchResult) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Session:   %s\n", snap.ID))
	sb.WriteString(fmt.Sprintf("Job:       %s\n", snap.JobID))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", snap.Status))
	sb.WriteString(fmt.Sprintf("Scored:    %d of %d (%d failed)\n",
		snap.ProcessedCandidates, snap.TotalCandidates, snap.FailedCandidates))
	if snap.Error != "" {
		sb.WriteString(fmt.Sprintf("Error:     %s\n", snap.Error))
	}

	if len(ranked) > 0 {
		sb.WriteString("\n")
		count := min(len(ranked), maxItemsToShow)
		for i := 0; i < count; i++ {
			r := ranked[i]
			label := r.CandidateName
			if label == "" {
				label = r.CandidateID
			}
			flag := ""
			if r.BiasAdjusted {
				flag = " ⚑"
			}
			sb.WriteString(fmt.Sprintf("#%-3d %s  %s%s\n", r.Rank, pct(r.OverallScore), label, flag))
		}
		if len(ranked) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more candidates\n", len(ranked)-maxItemsToShow))
		}
	}

	p.printBox("MATCH SESSION", strings.TrimSuffix(sb.String(), "\n"))
}
