package server

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-screener/internal/config"
	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/export"
	"github.com/jonathan/resume-screener/internal/matching"
	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
)

const testJob = `{
	"id": "job-1",
	"title": "Backend Engineer",
	"required_skills": ["python", "sql", "docker"],
	"preferred_skills": ["react"],
	"experience_range": {"min_years": 3, "max_years": 6},
	"min_education_level": 3
}`

func testCandidate(id string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"name": "Candidate %s",
		"email": "%s@example.com",
		"skills": ["python", "react", "sql"],
		"total_experience_years": 4.5,
		"education": [{"degree": "Bachelor of Science", "field": "CS", "year": 2018}]
	}`, id, id, id)
}

// mockStore keeps profiles and sessions in memory
type mockStore struct {
	mu         sync.Mutex
	pingErr    error
	jobs       map[string]*types.JobProfile
	candidates map[string]*types.CandidateProfile
	sessions   map[string]*db.SessionRecord
	results    map[string][]*types.MatchResult
	nearest    []string
}

func newMockStore() *mockStore {
	return &mockStore{
		jobs:       make(map[string]*types.JobProfile),
		candidates: make(map[string]*types.CandidateProfile),
		sessions:   make(map[string]*db.SessionRecord),
		results:    make(map[string][]*types.MatchResult),
	}
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) SaveJob(_ context.Context, j *types.JobProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = j
	return nil
}

func (m *mockStore) SaveCandidate(_ context.Context, c *types.CandidateProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[c.ID] = c
	return nil
}

func (m *mockStore) GetCandidate(_ context.Context, id string) (*types.CandidateProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.candidates[id], nil
}

func (m *mockStore) NearestCandidates(_ context.Context, _ []float64, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit < len(m.nearest) {
		return m.nearest[:limit], nil
	}
	return m.nearest, nil
}

func (m *mockStore) GetJob(_ context.Context, id string) (*types.JobProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id], nil
}

func (m *mockStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, db.ErrNotFound)
	}
	delete(m.sessions, id)
	delete(m.results, id)
	return nil
}

func (m *mockStore) ListCandidates(_ context.Context, ids []string) ([]*types.CandidateProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.CandidateProfile
	for _, id := range ids {
		if c, ok := m.candidates[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockStore) GetSession(_ context.Context, id string) (*db.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id], nil
}

func (m *mockStore) ListSessions(_ context.Context, f db.SessionFilters) ([]db.SessionRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.SessionRecord
	for _, rec := range m.sessions {
		if f.JobID != "" && rec.JobID != f.JobID {
			continue
		}
		out = append(out, *rec)
	}
	return out, len(out), nil
}

func (m *mockStore) GetResults(_ context.Context, sessionID string, _ int) ([]*types.MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[sessionID], nil
}

type testServer struct {
	*Server
	manager *matching.Manager
	store   *mockStore
}

func newTestServer(t *testing.T, store *mockStore, metrics *observability.Metrics) *testServer {
	t.Helper()
	manager := matching.NewManager(matching.NewRunner(matching.NewEngine(nil)), types.DefaultScoringConfig(), nil)
	t.Cleanup(func() { _ = manager.Shutdown(context.Background()) })

	opts := Options{
		Server:  config.ServerConfig{MaxCandidates: 10, CORSOrigins: []string{"*"}},
		Metrics: metrics,
	}
	if store != nil {
		opts.Store = store
	}
	s := New(manager, opts)
	t.Cleanup(s.rateLimiter.Stop)
	return &testServer{Server: s, manager: manager, store: store}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func (ts *testServer) run(t *testing.T, candidates ...string) RunResponse {
	t.Helper()
	body := fmt.Sprintf(`{"job": %s, "candidates": [%s]}`, testJob, strings.Join(candidates, ","))
	w := ts.do(t, http.MethodPost, "/match/run", body)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp
}

func (ts *testServer) waitCompleted(t *testing.T, id string) types.SessionSnapshot {
	t.Helper()
	var snap types.SessionSnapshot
	require.Eventually(t, func() bool {
		w := ts.do(t, http.MethodGet, "/match/status/"+id, "")
		if w.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
			return false
		}
		return snap.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		store      *mockStore
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name:       "no store",
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "ok"},
		},
		{
			name:       "store reachable",
			store:      newMockStore(),
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "ok", "database": "ok"},
		},
		{
			name:       "store down",
			store:      &mockStore{pingErr: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"status": "degraded", "database": "unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.store, nil)
			w := ts.do(t, http.MethodGet, "/health", "")
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantBody, resp)
		})
	}
}

func TestRun_PartialSuccess(t *testing.T) {
	store := newMockStore()
	ts := newTestServer(t, store, nil)

	resp := ts.run(t,
		testCandidate("a"), testCandidate("b"), `{"name": "no id"}`, testCandidate("c"), testCandidate("d"))
	assert.Equal(t, 5, resp.TotalCandidates)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, 2, resp.Rejected[0].Index)

	snap := ts.waitCompleted(t, resp.SessionID)
	assert.Equal(t, types.SessionCompleted, snap.Status)
	assert.Equal(t, 4, snap.ProcessedCandidates)
	assert.Equal(t, 1, snap.FailedCandidates)
	assert.Equal(t, 100.0, snap.ProgressPercent)

	w := ts.do(t, http.MethodGet, "/match/results/"+resp.SessionID, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var results ResultsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Equal(t, 4, results.Total)
	require.Len(t, results.Results, 4)
	require.Len(t, results.Failures, 1)
	for i, r := range results.Results {
		assert.Equal(t, i+1, r.Rank)
		assert.InDelta(t, 0.874, r.OverallScore, 0.001)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, []string{
		results.Results[0].CandidateID, results.Results[1].CandidateID,
		results.Results[2].CandidateID, results.Results[3].CandidateID,
	}, "ties keep insertion order")

	assert.Contains(t, store.jobs, "job-1")
	assert.Len(t, store.candidates, 4)

	w = ts.do(t, http.MethodGet, "/match/results/"+resp.SessionID+"?top_n=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Len(t, results.Results, 2)
	assert.Equal(t, 4, results.Total)
}

func TestRun_EmptyPool(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	w := ts.do(t, http.MethodPost, "/match/run", fmt.Sprintf(`{"job": %s, "candidates": []}`, testJob))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var resp RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	snap := ts.waitCompleted(t, resp.SessionID)
	assert.Equal(t, types.SessionCompleted, snap.Status)
	assert.Equal(t, 0, snap.TotalCandidates)

	w = ts.do(t, http.MethodGet, "/match/results/"+resp.SessionID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results":[]`)
}

func TestRun_WeightOverrides(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	body := fmt.Sprintf(`{"job": %s, "candidates": [%s], "config": {"weights": {"experience": 0, "education": 0}}}`,
		testJob, testCandidate("a"))
	w := ts.do(t, http.MethodPost, "/match/run", body)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var resp RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	ts.waitCompleted(t, resp.SessionID)

	session, err := ts.manager.Get(resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0.4, session.Config().Weights["skills"], "unspecified weights keep their defaults")
	require.Len(t, session.Results(), 1)
	assert.InDelta(t, 0.717, session.Results()[0].OverallScore, 0.001)
}

func TestRun_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "invalid json",
			body:       `{not json`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body",
		},
		{
			name:       "missing job",
			body:       `{"candidates": []}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "RunRequest.Job",
		},
		{
			name:       "missing candidates",
			body:       fmt.Sprintf(`{"job": %s}`, testJob),
			wantStatus: http.StatusBadRequest,
			wantError:  "RunRequest.Candidates",
		},
		{
			name:       "negative weight",
			body:       fmt.Sprintf(`{"job": %s, "candidates": [], "config": {"weights": {"skills": -1}}}`, testJob),
			wantStatus: http.StatusBadRequest,
			wantError:  "gte",
		},
		{
			name:       "unknown dimension",
			body:       fmt.Sprintf(`{"job": %s, "candidates": [], "config": {"weights": {"bogus": 1}}}`, testJob),
			wantStatus: http.StatusBadRequest,
			wantError:  "weights.bogus: unknown dimension",
		},
		{
			name: "too many candidates",
			body: fmt.Sprintf(`{"job": %s, "candidates": [%s]}`, testJob,
				strings.TrimSuffix(strings.Repeat(`{"id": "x"},`, 11), ",")),
			wantStatus: http.StatusBadRequest,
			wantError:  "at most 10 candidates",
		},
		{
			name:       "job without id",
			body:       `{"job": {"title": "x"}, "candidates": []}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "job with bad education level",
			body:       `{"job": {"id": "j", "min_education_level": 9}, "candidates": []}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil, nil)
			w := ts.do(t, http.MethodPost, "/match/run", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantError != "" {
				assert.Contains(t, w.Body.String(), tt.wantError)
			}
			sessions, total := ts.manager.List(0, 0)
			assert.Empty(t, sessions)
			assert.Zero(t, total)
		})
	}
}

func TestStatusAndResults_NotFound(t *testing.T) {
	ts := newTestServer(t, newMockStore(), nil)

	for _, path := range []string{
		"/match/status/missing",
		"/match/results/missing",
		"/match/results/missing/export.csv",
		"/match/results/missing/report.json",
	} {
		t.Run(path, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, path, "")
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}

	w := ts.do(t, http.MethodPost, "/match/sessions/missing/cancel", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResults_FromStore(t *testing.T) {
	store := newMockStore()
	now := time.Now().UTC()
	store.sessions["stored-1"] = &db.SessionRecord{SessionSnapshot: types.SessionSnapshot{
		ID: "stored-1", JobID: "job-1", Status: types.SessionCompleted,
		TotalCandidates: 2, ProcessedCandidates: 1, FailedCandidates: 1, CreatedAt: now,
	}}
	store.sessions["stored-2"] = &db.SessionRecord{SessionSnapshot: types.SessionSnapshot{
		ID: "stored-2", JobID: "job-1", Status: types.SessionFailed, Error: "context canceled", CreatedAt: now,
	}}
	store.results["stored-1"] = []*types.MatchResult{
		{ID: "r1", SessionID: "stored-1", CandidateID: "a", JobID: "job-1", OverallScore: 0.8, Rank: 1, Status: types.ResultStatusScored},
		{ID: "r2", SessionID: "stored-1", CandidateID: "b", JobID: "job-1", Status: types.ResultStatusFailed, Error: "bad profile"},
	}
	store.candidates["a"] = &types.CandidateProfile{ID: "a", Name: "Ada", Email: "ada@example.com", Skills: []string{"go"}}
	ts := newTestServer(t, store, nil)

	w := ts.do(t, http.MethodGet, "/match/status/stored-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/match/results/stored-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var results ResultsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Len(t, results.Results, 1)
	assert.Len(t, results.Failures, 1)

	w = ts.do(t, http.MethodGet, "/match/results/stored-2", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPost, "/match/sessions/stored-1/cancel", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodGet, "/match/results/stored-1/export.csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	rows, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ada@example.com", rows[1][3])

	w = ts.do(t, http.MethodGet, "/match/results/stored-1/report.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	var report export.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "stored-1", report.Metadata.SessionID)
	assert.Equal(t, 1, report.Summary.Ranked)

	w = ts.do(t, http.MethodGet, "/match/sessions?job_id=job-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list SessionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)
}

func TestDeleteSession(t *testing.T) {
	store := newMockStore()
	store.sessions["stored-1"] = &db.SessionRecord{SessionSnapshot: types.SessionSnapshot{
		ID: "stored-1", JobID: "job-1", Status: types.SessionCompleted,
	}}
	ts := newTestServer(t, store, nil)

	resp := ts.run(t, testCandidate("a"))
	ts.waitCompleted(t, resp.SessionID)

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{name: "in memory", id: resp.SessionID, wantStatus: http.StatusOK},
		{name: "already deleted", id: resp.SessionID, wantStatus: http.StatusNotFound},
		{name: "store only", id: "stored-1", wantStatus: http.StatusOK},
		{name: "unknown", id: "missing", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodDelete, "/match/sessions/"+tt.id, "")
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}

	w := ts.do(t, http.MethodGet, "/match/status/"+resp.SessionID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, store.sessions, "stored-1")
}

func TestNearestCandidates(t *testing.T) {
	store := newMockStore()
	store.jobs["job-1"] = &types.JobProfile{ID: "job-1", Embedding: []float64{0.1, 0.9}}
	store.jobs["job-2"] = &types.JobProfile{ID: "job-2"}
	store.candidates["b"] = &types.CandidateProfile{ID: "b", Name: "Bo"}
	store.candidates["a"] = &types.CandidateProfile{ID: "a", Name: "Ada"}
	store.nearest = []string{"b", "a"}

	tests := []struct {
		name       string
		store      *mockStore
		path       string
		wantStatus int
		wantIDs    []string
	}{
		{name: "nearest first", store: store, path: "/jobs/job-1/nearest", wantStatus: http.StatusOK, wantIDs: []string{"b", "a"}},
		{name: "limited by k", store: store, path: "/jobs/job-1/nearest?k=1", wantStatus: http.StatusOK, wantIDs: []string{"b"}},
		{name: "k out of range", store: store, path: "/jobs/job-1/nearest?k=0", wantStatus: http.StatusBadRequest},
		{name: "job without embedding", store: store, path: "/jobs/job-2/nearest", wantStatus: http.StatusBadRequest},
		{name: "unknown job", store: store, path: "/jobs/missing/nearest", wantStatus: http.StatusNotFound},
		{name: "no store", path: "/jobs/job-1/nearest", wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.store, nil)
			w := ts.do(t, http.MethodGet, tt.path, "")
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantIDs == nil {
				return
			}

			var resp NearestResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "job-1", resp.JobID)
			var ids []string
			for _, c := range resp.Candidates {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestGetCandidate(t *testing.T) {
	store := newMockStore()
	store.candidates["a"] = &types.CandidateProfile{ID: "a", Name: "Ada", Email: "ada@example.com"}
	ts := newTestServer(t, store, nil)

	w := ts.do(t, http.MethodGet, "/candidates/a", "")
	require.Equal(t, http.StatusOK, w.Code)
	var c types.CandidateProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, "ada@example.com", c.Email)

	w = ts.do(t, http.MethodGet, "/candidates/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = newTestServer(t, nil, nil).do(t, http.MethodGet, "/candidates/a", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListSessions_InMemory(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	first := ts.run(t, testCandidate("a"))
	second := ts.run(t, testCandidate("b"))
	ts.waitCompleted(t, first.SessionID)
	ts.waitCompleted(t, second.SessionID)

	w := ts.do(t, http.MethodGet, "/match/sessions?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list SessionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Sessions, 1)
	assert.Equal(t, 1, list.Limit)

	w = ts.do(t, http.MethodGet, "/match/sessions?offset=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusStream(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	resp := ts.run(t, testCandidate("a"), testCandidate("b"))
	ts.waitCompleted(t, resp.SessionID)

	w := ts.do(t, http.MethodGet, "/match/status/"+resp.SessionID+"/stream", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: complete\n")
	assert.Contains(t, body, `"status":"completed"`)
	assert.NotContains(t, body, "event: progress")
}

// gateDimension holds scoring until release is closed
type gateDimension struct {
	release chan struct{}
}

func (gateDimension) Name() string { return "gate" }

func (gateDimension) JobSupports(*types.JobProfile) bool { return true }

func (d gateDimension) Score(*types.CandidateProfile, *types.JobProfile) (ranking.Score, error) {
	<-d.release
	return ranking.Score{Value: 1, Available: true}, nil
}

func TestStatusStream_OutlivesWriteTimeout(t *testing.T) {
	release := make(chan struct{})
	registry, err := ranking.NewRegistry(gateDimension{release: release})
	require.NoError(t, err)
	manager := matching.NewManager(matching.NewRunner(matching.NewEngine(registry)),
		types.ScoringConfig{Weights: map[string]float64{"gate": 1}}, nil)
	t.Cleanup(func() { _ = manager.Shutdown(context.Background()) })

	const writeTimeout = 100 * time.Millisecond
	s := New(manager, Options{Server: config.ServerConfig{WriteTimeout: writeTimeout}})
	t.Cleanup(s.rateLimiter.Stop)

	srv := httptest.NewUnstartedServer(s.Handler())
	srv.Config.WriteTimeout = writeTimeout
	srv.Start()
	t.Cleanup(srv.Close)

	session := manager.Start(&types.JobProfile{ID: "job-1"}, []*types.CandidateProfile{{ID: "a"}}, nil)

	resp, err := http.Get(srv.URL + "/match/status/" + session.ID() + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	time.Sleep(3 * writeTimeout)
	close(release)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "event: complete\n")
	assert.Contains(t, string(body), `"status":"completed"`)
}

func TestStatusRecorder_Unwrap(t *testing.T) {
	inner := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: inner, status: http.StatusOK}
	assert.Same(t, inner, rec.Unwrap().(*httptest.ResponseRecorder))
}

func TestSSEWriter_WriteProgress(t *testing.T) {
	w := httptest.NewRecorder()
	sse, err := NewSSEWriter(w)
	require.NoError(t, err)

	require.NoError(t, sse.WriteProgress(types.SessionSnapshot{ID: "s1", Status: types.SessionProcessing}))
	require.NoError(t, sse.WriteProgress(types.SessionSnapshot{ID: "s1", Status: types.SessionFailed, Error: "boom"}))

	events := strings.Split(strings.TrimSpace(w.Body.String()), "\n\n")
	require.Len(t, events, 3)
	assert.True(t, strings.HasPrefix(events[0], "event: progress\n"))
	assert.True(t, strings.HasPrefix(events[1], "event: complete\n"))
	assert.Equal(t, "event: error\ndata: {\"error\":\"boom\"}", events[2])
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/match/run", nil)
	req.Header.Set("Origin", "https://recruiting.example.com")
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, "https://A.EXAMPLE", allowedOrigin([]string{"https://a.example"}, "https://A.EXAMPLE"))
	assert.Empty(t, allowedOrigin([]string{"https://a.example"}, "https://b.example"))
	assert.Empty(t, allowedOrigin(nil, "https://a.example"))
}

func TestRateLimit(t *testing.T) {
	manager := matching.NewManager(matching.NewRunner(matching.NewEngine(nil)), types.DefaultScoringConfig(), nil)
	t.Cleanup(func() { _ = manager.Shutdown(context.Background()) })
	s := New(manager, Options{
		RateLimit: config.RateLimitConfig{
			Enabled: true, RequestsPerSecond: 1, Burst: 1,
			AllowIPs: []string{"10.0.0.2"}, DenyIPs: []string{"10.0.0.3"},
		},
	})
	t.Cleanup(s.rateLimiter.Stop)

	getFrom := func(addr, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = addr + ":5000"
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		return w
	}
	get := func(path string) *httptest.ResponseRecorder { return getFrom("10.0.0.1", path) }

	w := get("/match/sessions")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))

	w = get("/match/sessions")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

	for range 3 {
		assert.Equal(t, http.StatusOK, get("/health").Code, "health is never limited")
		assert.Equal(t, http.StatusOK, getFrom("10.0.0.2", "/match/sessions").Code, "allowed clients are never limited")
	}
	assert.Equal(t, http.StatusTooManyRequests, getFrom("10.0.0.3", "/health").Code, "denied clients are always rejected")
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := observability.NewMetrics()
	ts := newTestServer(t, nil, metrics)

	ts.do(t, http.MethodGet, "/health", "")
	ts.do(t, http.MethodGet, "/match/status/missing", "")

	w := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `screener_http_requests_total{code="200",route="GET /health"} 1`)
	assert.Contains(t, body, `screener_http_requests_total{code="404",route="GET /match/status/{id}"} 1`)
}
