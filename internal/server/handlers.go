package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/export"
	"github.com/jonathan/resume-screener/internal/matching"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/schemas"
	"github.com/jonathan/resume-screener/internal/types"
)

const (
	// maxRequestBytes bounds the run request body
	maxRequestBytes = 32 << 20
	maxNearest      = 500
)

// RunRequest represents the request body for POST /match/run
type RunRequest struct {
	Job        json.RawMessage   `json:"job" validate:"required"`
	Candidates []json.RawMessage `json:"candidates" validate:"required"`
	Config     *ScoringOverrides `json:"config,omitempty"`
}

// ScoringOverrides overlays the server's default scoring configuration
type ScoringOverrides struct {
	Weights     map[string]float64 `json:"weights,omitempty" validate:"omitempty,dive,keys,required,endkeys,gte=0"`
	BiasCheck   *bool              `json:"bias_check,omitempty"`
	Concurrency int                `json:"concurrency,omitempty" validate:"gte=0,lte=256"`
}

// RejectedCandidate describes a candidate document that could not be coerced into a profile
type RejectedCandidate struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// RunResponse represents the response for POST /match/run
type RunResponse struct {
	SessionID       string              `json:"session_id"`
	Status          types.SessionStatus `json:"status"`
	TotalCandidates int                 `json:"total_candidates"`
	Rejected        []RejectedCandidate `json:"rejected,omitempty"`
}

// ResultsResponse represents the response for GET /match/results/{id}
type ResultsResponse struct {
	SessionID string                `json:"session_id"`
	Status    types.SessionStatus   `json:"status"`
	Total     int                   `json:"total"`
	Results   []*types.MatchResult  `json:"results"`
	Failures  []*types.MatchResult  `json:"failures,omitempty"`
	Session   types.SessionSnapshot `json:"session"`
}

// SessionListResponse represents the response for GET /match/sessions
type SessionListResponse struct {
	Sessions []types.SessionSnapshot `json:"sessions"`
	Total    int                     `json:"total"`
	Offset   int                     `json:"offset"`
	Limit    int                     `json:"limit"`
}

// handleRun validates a job and its candidate pool and starts a background session.
// Candidate documents that fail coercion stay in the pool as failed candidates.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.writeError(w, extractValidationErrors(err))
		return
	}
	if s.cfg.MaxCandidates > 0 && len(req.Candidates) > s.cfg.MaxCandidates {
		s.writeError(w, &ErrValidation{
			Field:   "candidates",
			Message: fmt.Sprintf("at most %d candidates per run", s.cfg.MaxCandidates),
		})
		return
	}

	if err := schemas.Validate(schemas.Job, req.Job); err != nil {
		s.writeError(w, err)
		return
	}
	job, err := parsing.ParseJobProfile(req.Job)
	if err != nil {
		s.writeError(w, err)
		return
	}

	candidates := make([]*types.CandidateProfile, len(req.Candidates))
	var rejected []RejectedCandidate
	for i, raw := range req.Candidates {
		c, err := parseCandidate(raw)
		if err != nil {
			rejected = append(rejected, RejectedCandidate{Index: i, Error: err.Error()})
			continue
		}
		candidates[i] = c
	}

	cfg := s.manager.Defaults()
	if o := req.Config; o != nil {
		for name, w := range o.Weights {
			cfg.Weights[name] = w
		}
		if o.BiasCheck != nil {
			cfg.BiasCheck = *o.BiasCheck
		}
		if o.Concurrency > 0 {
			cfg.Concurrency = o.Concurrency
		}
	}

	if err := s.manager.Validate(cfg); err != nil {
		s.writeError(w, err)
		return
	}

	s.persistProfiles(r.Context(), job, candidates)

	session := s.manager.Start(job, candidates, &cfg)
	snap := session.Snapshot()
	s.logger.Info("match session started",
		zap.String("session_id", snap.ID),
		zap.String("job_id", job.ID),
		zap.Int("candidates", len(candidates)),
		zap.Int("rejected", len(rejected)))

	s.jsonResponse(w, http.StatusAccepted, RunResponse{
		SessionID:       snap.ID,
		Status:          snap.Status,
		TotalCandidates: snap.TotalCandidates,
		Rejected:        rejected,
	})
}

func parseCandidate(raw json.RawMessage) (*types.CandidateProfile, error) {
	if err := schemas.Validate(schemas.Candidate, raw); err != nil {
		var verr *schemas.ValidationError
		if errors.As(err, &verr) {
			return nil, errors.New(verr.Summary())
		}
		return nil, err
	}
	return parsing.ParseCandidateProfile(raw)
}

// persistProfiles stores the job and parsed candidates. Failures are logged; scoring does not depend on them.
func (s *Server) persistProfiles(ctx context.Context, job *types.JobProfile, candidates []*types.CandidateProfile) {
	if s.store == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.store.SaveJob(ctx, job); err != nil {
		s.logger.Warn("failed to store job profile", zap.String("job_id", job.ID), zap.Error(err))
	}
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if err := s.store.SaveCandidate(ctx, c); err != nil {
			s.logger.Warn("failed to store candidate profile", zap.String("candidate_id", c.ID), zap.Error(err))
		}
	}
}

// handleListSessions returns sessions newest first
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit = min(limit, 500)

	if s.store == nil {
		sessions, total := s.manager.List(offset, limit)
		s.jsonResponse(w, http.StatusOK, SessionListResponse{Sessions: sessions, Total: total, Offset: offset, Limit: limit})
		return
	}

	records, total, err := s.store.ListSessions(r.Context(), db.SessionFilters{
		JobID:  r.URL.Query().Get("job_id"),
		Status: types.SessionStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	sessions := make([]types.SessionSnapshot, 0, len(records))
	for _, rec := range records {
		sessions = append(sessions, s.liveSnapshot(rec.SessionSnapshot))
	}
	s.jsonResponse(w, http.StatusOK, SessionListResponse{Sessions: sessions, Total: total, Offset: offset, Limit: limit})
}

// liveSnapshot prefers the in-memory view of a session that is still running
func (s *Server) liveSnapshot(stored types.SessionSnapshot) types.SessionSnapshot {
	if session, err := s.manager.Get(stored.ID); err == nil {
		return session.Snapshot()
	}
	return stored
}

// handleStatus returns the progress snapshot of a session
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.lookupSnapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, snap)
}

// lookupSnapshot finds a session in memory first, then in the store
func (s *Server) lookupSnapshot(ctx context.Context, id string) (types.SessionSnapshot, error) {
	if session, err := s.manager.Get(id); err == nil {
		return session.Snapshot(), nil
	}
	if s.store != nil {
		rec, err := s.store.GetSession(ctx, id)
		if err != nil {
			return types.SessionSnapshot{}, err
		}
		if rec != nil {
			return rec.SessionSnapshot, nil
		}
	}
	return types.SessionSnapshot{}, matching.ErrSessionNotFound
}

// handleResults returns the ranked results of a completed session
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	topN, err := queryInt(r, "top_n", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	snap, ranked, failures, err := s.sessionResults(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	total := len(ranked)
	if topN > 0 && topN < len(ranked) {
		ranked = ranked[:topN]
	}
	if ranked == nil {
		ranked = []*types.MatchResult{}
	}

	s.jsonResponse(w, http.StatusOK, ResultsResponse{
		SessionID: snap.ID,
		Status:    snap.Status,
		Total:     total,
		Results:   ranked,
		Failures:  failures,
		Session:   snap,
	})
}

// sessionResults returns ranked results and failures of a completed session
func (s *Server) sessionResults(ctx context.Context, id string) (types.SessionSnapshot, []*types.MatchResult, []*types.MatchResult, error) {
	snap, err := s.lookupSnapshot(ctx, id)
	if err != nil {
		return snap, nil, nil, err
	}
	if snap.Status != types.SessionCompleted {
		return snap, nil, nil, &ErrNotReady{SessionID: snap.ID, Status: string(snap.Status)}
	}

	if session, err := s.manager.Get(id); err == nil {
		return snap, session.Results(), session.Failures(), nil
	}

	stored, err := s.store.GetResults(ctx, id, 0)
	if err != nil {
		return snap, nil, nil, err
	}
	var ranked, failures []*types.MatchResult
	for _, res := range stored {
		if res.Failed() {
			failures = append(failures, res)
		} else {
			ranked = append(ranked, res)
		}
	}
	return snap, ranked, failures, nil
}

// handleExportCSV downloads the ranked results as CSV
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	snap, ranked, failures, err := s.sessionResults(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	all := append(ranked, failures...)
	records := export.Records(all, s.candidateProfiles(r.Context(), all))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report_%s.csv", snap.ID))
	if err := export.WriteCSV(w, records, s.sessionDimensions(r.Context(), snap.ID)...); err != nil {
		s.logger.Warn("failed to write csv export", zap.String("session_id", snap.ID), zap.Error(err))
	}
}

// sessionDimensions returns the dimensions a session was configured with
func (s *Server) sessionDimensions(ctx context.Context, id string) []string {
	var weights map[string]float64
	if session, err := s.manager.Get(id); err == nil {
		weights = session.Config().Weights
	} else if s.store != nil {
		rec, err := s.store.GetSession(ctx, id)
		if err != nil {
			s.logger.Warn("failed to load session config for export", zap.String("session_id", id), zap.Error(err))
		} else if rec != nil {
			weights = rec.Config.Weights
		}
	}
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	return names
}

// candidateProfiles loads stored profiles for contact details in exports, when a store is configured
func (s *Server) candidateProfiles(ctx context.Context, results []*types.MatchResult) []*types.CandidateProfile {
	if s.store == nil {
		return nil
	}
	ids := make([]string, 0, len(results))
	for _, res := range results {
		if res.CandidateID != "" {
			ids = append(ids, res.CandidateID)
		}
	}
	profiles, err := s.store.ListCandidates(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to load candidate profiles for export", zap.Error(err))
		return nil
	}
	return profiles
}

// handleReportJSON downloads the JSON report with summary statistics
func (s *Server) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	snap, ranked, failures, err := s.sessionResults(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	report := export.BuildReport(snap, append(ranked, failures...), time.Now())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report_%s.json", snap.ID))
	if err := export.WriteJSON(w, report); err != nil {
		s.logger.Warn("failed to write json report", zap.String("session_id", snap.ID), zap.Error(err))
	}
}

// handleCancel stops a running session
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.manager.Cancel(id); err != nil {
		if errors.Is(err, matching.ErrSessionNotFound) && s.store != nil {
			// a stored session is no longer running, so it is frozen
			if rec, gerr := s.store.GetSession(r.Context(), id); gerr == nil && rec != nil {
				err = matching.ErrSessionFrozen
			}
		}
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]string{"session_id": id, "status": "cancelling"})
}

// handleDeleteSession removes a finished session from memory and from the store
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	removed := true
	if err := s.manager.Remove(id); err != nil {
		if !errors.Is(err, matching.ErrSessionNotFound) {
			s.writeError(w, err)
			return
		}
		removed = false
	}
	if s.store != nil {
		err := s.store.DeleteSession(r.Context(), id)
		switch {
		case err == nil:
			removed = true
		case !errors.Is(err, db.ErrNotFound):
			s.writeError(w, err)
			return
		}
	}
	if !removed {
		s.writeError(w, matching.ErrSessionNotFound)
		return
	}

	s.logger.Info("match session deleted", zap.String("session_id", id))
	s.jsonResponse(w, http.StatusOK, map[string]string{"session_id": id, "status": "deleted"})
}

// NearestResponse represents the response for GET /jobs/{id}/nearest
type NearestResponse struct {
	JobID      string                    `json:"job_id"`
	Candidates []*types.CandidateProfile `json:"candidates"`
}

// handleNearestCandidates lists stored candidates closest to a stored job by embedding
func (s *Server) handleNearestCandidates(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "no database configured")
		return
	}
	k, err := queryInt(r, "k", 10)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if k == 0 || k > maxNearest {
		s.writeError(w, &ErrValidation{Field: "k", Message: fmt.Sprintf("must be between 1 and %d", maxNearest)})
		return
	}

	id := r.PathValue("id")
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if job == nil {
		s.writeError(w, fmt.Errorf("job %s: %w", id, db.ErrNotFound))
		return
	}
	if len(job.Embedding) == 0 {
		s.writeError(w, &ErrValidation{Field: "job.embedding", Message: "job has no embedding"})
		return
	}

	ids, err := s.store.NearestCandidates(r.Context(), job.Embedding, k)
	if err != nil {
		s.writeError(w, err)
		return
	}
	candidates := []*types.CandidateProfile{}
	if len(ids) > 0 {
		found, err := s.store.ListCandidates(r.Context(), ids)
		if err != nil {
			s.writeError(w, err)
			return
		}
		candidates = append(candidates, found...)
	}
	s.jsonResponse(w, http.StatusOK, NearestResponse{JobID: job.ID, Candidates: candidates})
}

// handleGetCandidate returns a stored candidate profile
func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "no database configured")
		return
	}
	id := r.PathValue("id")
	c, err := s.store.GetCandidate(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if c == nil {
		s.writeError(w, fmt.Errorf("candidate %s: %w", id, db.ErrNotFound))
		return
	}
	s.jsonResponse(w, http.StatusOK, c)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, &ErrValidation{Field: key, Message: "must be a non-negative integer"}
	}
	return v, nil
}
