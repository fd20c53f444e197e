package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"talent-match/internal/delivery/http/middleware"
	"talent-match/internal/domain/matching"
	"talent-match/internal/domain/shortlist"
	"talent-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeMatchingUsecase struct {
	err error

	gotJobID       uuid.UUID
	gotCandidateID uuid.UUID
	gotStatus      string
	gotNotes       *string
}

func (f *fakeMatchingUsecase) RegenerateShortlist(_ context.Context, jobID uuid.UUID) (shortlist.Shortlist, error) {
	f.gotJobID = jobID
	if f.err != nil {
		return shortlist.Shortlist{}, f.err
	}
	return shortlist.Shortlist{JobID: jobID, MaxCandidates: 5, Entries: []shortlist.Entry{{
		MatchResult: matching.MatchResult{CandidateID: uuid.New(), OverallScore: 70, Strengths: []string{}, MissingSkills: []string{}},
		Status:      shortlist.StatusShortlisted,
	}}}, nil
}

func (f *fakeMatchingUsecase) GetShortlist(_ context.Context, jobID uuid.UUID) (shortlist.Shortlist, error) {
	f.gotJobID = jobID
	if f.err != nil {
		return shortlist.Shortlist{}, f.err
	}
	return shortlist.Shortlist{JobID: jobID, Entries: []shortlist.Entry{}}, nil
}

func (f *fakeMatchingUsecase) SetStatus(_ context.Context, jobID, candidateID uuid.UUID, status string, notes *string) (shortlist.Entry, error) {
	f.gotJobID, f.gotCandidateID, f.gotStatus, f.gotNotes = jobID, candidateID, status, notes
	if f.err != nil {
		return shortlist.Entry{}, f.err
	}
	return shortlist.Entry{MatchResult: matching.MatchResult{CandidateID: candidateID}, Status: shortlist.Status(status)}, nil
}

func (f *fakeMatchingUsecase) Hire(ctx context.Context, jobID, candidateID uuid.UUID, notes *string) (shortlist.Entry, error) {
	return f.SetStatus(ctx, jobID, candidateID, string(shortlist.StatusHired), notes)
}

func (f *fakeMatchingUsecase) PreviewMatch(_ context.Context, jobID, candidateID uuid.UUID) (matching.MatchResult, error) {
	f.gotJobID, f.gotCandidateID = jobID, candidateID
	if f.err != nil {
		return matching.MatchResult{}, f.err
	}
	return matching.MatchResult{CandidateID: candidateID, OverallScore: 42}, nil
}

func (f *fakeMatchingUsecase) RegenerateOpenJobs(context.Context) (usecase.RegenerationSummary, error) {
	return usecase.RegenerationSummary{}, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T, uc usecase.MatchingUsecase) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(zaptest.NewLogger(t)).Middleware())
	NewMatchingHandler(uc).RegisterRoutes(app.Group("/api/v1"))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestMatchingHandler_Generate(t *testing.T) {
	uc := &fakeMatchingUsecase{}
	app := newTestApp(t, uc)
	jobID := uuid.New()

	status, env := do(t, app, http.MethodPost, "/api/v1/matching/generate", `{"jobId":"`+jobID.String()+`"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", env.Message)
	assert.Equal(t, jobID, uc.gotJobID)

	var sl map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &sl))
	assert.Equal(t, jobID.String(), sl["jobId"])
	entries := sl["entries"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "shortlisted", entry["status"])
	assert.EqualValues(t, 70, entry["overallScore"])
	assert.Contains(t, entry, "breakdown")
}

func TestMatchingHandler_GenerateValidation(t *testing.T) {
	app := newTestApp(t, &fakeMatchingUsecase{})

	status, env := do(t, app, http.MethodPost, "/api/v1/matching/generate", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "jobId is required", env.Message)

	status, env = do(t, app, http.MethodPost, "/api/v1/matching/generate", `{"jobId":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid jobId", env.Message)
}

func TestMatchingHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{usecase.ErrJobNotFound, http.StatusNotFound, "Job not found"},
		{usecase.ErrCandidateNotFound, http.StatusNotFound, "Candidate not found"},
		{usecase.ErrInvalidStatus, http.StatusBadRequest, "Invalid status"},
		{usecase.ErrInvalidInput, http.StatusBadRequest, "Bad request"},
		{usecase.ErrConflict, http.StatusConflict, "Shortlist was modified concurrently, retry"},
		{usecase.ErrInternal, http.StatusInternalServerError, "internal server error"},
		{errors.New("surprise"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			app := newTestApp(t, &fakeMatchingUsecase{err: tc.err})
			status, env := do(t, app, http.MethodGet, "/api/v1/matching/shortlist/"+uuid.NewString(), "")
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.msg, env.Message)
			assert.Equal(t, tc.status, env.Status)
		})
	}
}

func TestMatchingHandler_GetShortlistBadID(t *testing.T) {
	app := newTestApp(t, &fakeMatchingUsecase{})
	status, _ := do(t, app, http.MethodGet, "/api/v1/matching/shortlist/123", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMatchingHandler_Hire(t *testing.T) {
	uc := &fakeMatchingUsecase{}
	app := newTestApp(t, uc)
	jobID, candID := uuid.New(), uuid.New()

	body := `{"jobId":"` + jobID.String() + `","candidateId":"` + candID.String() + `","notes":"signed"}`
	status, env := do(t, app, http.MethodPost, "/api/v1/matching/hire", body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, jobID, uc.gotJobID)
	assert.Equal(t, candID, uc.gotCandidateID)
	require.NotNil(t, uc.gotNotes)
	assert.Equal(t, "signed", *uc.gotNotes)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	assert.Equal(t, "hired", entry["status"])
	assert.Equal(t, candID.String(), entry["candidateId"])

	status, env = do(t, app, http.MethodPost, "/api/v1/matching/hire", `{"jobId":"`+jobID.String()+`"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "candidateId is required", env.Message)
}

func TestMatchingHandler_SetStatus(t *testing.T) {
	uc := &fakeMatchingUsecase{}
	app := newTestApp(t, uc)
	jobID, candID := uuid.New(), uuid.New()

	body := `{"jobId":"` + jobID.String() + `","candidateId":"` + candID.String() + `","status":"interviewed"}`
	status, _ := do(t, app, http.MethodPost, "/api/v1/matching/status", body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "interviewed", uc.gotStatus)
	assert.Nil(t, uc.gotNotes)

	body = `{"jobId":"` + jobID.String() + `","candidateId":"` + candID.String() + `"}`
	status, env := do(t, app, http.MethodPost, "/api/v1/matching/status", body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "status is required", env.Message)
}

func TestMatchingHandler_Preview(t *testing.T) {
	uc := &fakeMatchingUsecase{}
	app := newTestApp(t, uc)
	jobID, candID := uuid.New(), uuid.New()

	status, env := do(t, app, http.MethodGet, "/api/v1/matching/jobs/"+jobID.String()+"/candidates/"+candID.String(), "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, jobID, uc.gotJobID)

	var res map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.EqualValues(t, 42, res["overallScore"])
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	cases := []struct {
		name   string
		db     Pinger
		cache  Pinger
		status int
		state  string
	}{
		{"all up", fakePinger{}, fakePinger{}, http.StatusOK, "ok"},
		{"cache down", fakePinger{}, fakePinger{err: errors.New("x")}, http.StatusOK, "degraded"},
		{"db down", fakePinger{err: errors.New("x")}, fakePinger{}, http.StatusServiceUnavailable, "down"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			NewHealthHandler(tc.db, tc.cache, func() int { return 3 }).RegisterRoutes(app)

			status, env := do(t, app, http.MethodGet, "/health", "")
			assert.Equal(t, tc.status, status)

			var body map[string]any
			require.NoError(t, json.Unmarshal(env.Data, &body))
			assert.Equal(t, tc.state, body["status"])
			assert.EqualValues(t, 3, body["wsClients"])
		})
	}
}
