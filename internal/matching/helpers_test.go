package matching

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
)

func scenarioJob() *types.JobProfile {
	return &types.JobProfile{
		ID:                "job-1",
		Title:             "Backend Engineer",
		RequiredSkills:    []string{"python", "sql", "docker"},
		PreferredSkills:   []string{"react"},
		ExperienceRange:   types.Range(3, 6),
		MinEducationLevel: types.DegreeBachelor,
	}
}

func scenarioCandidate(id string) *types.CandidateProfile {
	return &types.CandidateProfile{
		ID:                   id,
		Name:                 "Candidate " + id,
		Skills:               []string{"python", "react", "sql"},
		TotalExperienceYears: 4.5,
		Education:            []types.Education{{DegreeLevel: types.DegreeBachelor, Degree: "Bachelor"}},
	}
}

// panicDimension panics for one candidate ID and scores 0.5 otherwise
type panicDimension struct{ target string }

func (panicDimension) Name() string { return "flaky" }

func (panicDimension) JobSupports(*types.JobProfile) bool { return true }

func (d panicDimension) Score(c *types.CandidateProfile, _ *types.JobProfile) (ranking.Score, error) {
	if c.ID == d.target {
		panic(fmt.Sprintf("boom on %s", c.ID))
	}
	return ranking.Score{Value: 0.5, Available: true}, nil
}

// blockingDimension signals when scoring starts and waits for release
type blockingDimension struct {
	started chan struct{}
	release chan struct{}
}

func (blockingDimension) Name() string { return "blocking" }

func (blockingDimension) JobSupports(*types.JobProfile) bool { return true }

func (d blockingDimension) Score(*types.CandidateProfile, *types.JobProfile) (ranking.Score, error) {
	select {
	case d.started <- struct{}{}:
	default:
	}
	<-d.release
	return ranking.Score{Value: 1, Available: true}, nil
}

type recordingMetrics struct {
	mu                      sync.Mutex
	started, scored, failed int
	finished                []types.SessionStatus
}

func (m *recordingMetrics) SessionStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *recordingMetrics) SessionFinished(status types.SessionStatus, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, status)
}

func (m *recordingMetrics) CandidateScored(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scored++
}

func (m *recordingMetrics) CandidateFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
}
