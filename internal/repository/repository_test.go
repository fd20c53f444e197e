package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"talent-match/internal/database/postgres"
	"talent-match/internal/domain/matching"
	"talent-match/internal/domain/shortlist"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*postgres.SQLDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return postgres.NewSQLDB(db), mock
}

func TestJobRepository_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresJobRepository(db)
	id := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, COALESCE\(title, ''\)`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "company", "required_skills", "min_years", "education_preference",
			"availability", "max_candidates", "currency", "budget", "status", "created_at",
		}).AddRow(id.String(), "Backend Engineer", "Acme", []byte(`["go","sql"]`), 3.0, "graduate",
			"full-time", 10, nil, nil, "open", created))

	j, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, j.ID)
	assert.Equal(t, []string{"go", "sql"}, j.RequiredSkills)
	assert.Equal(t, 3.0, j.MinYears)
	assert.Equal(t, 10, j.MaxCandidates)
	assert.Nil(t, j.Currency)
	assert.True(t, j.IsOpen())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresJobRepository(db)

	mock.ExpectQuery(`FROM jobs`).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobRepository_ListOpenIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresJobRepository(db)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM jobs WHERE status = $1`)).
		WithArgs("open").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(a.String()).AddRow(b.String()))

	ids, err := repo.ListOpenIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)
}

func TestCandidateRepository_ListPublished(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCandidateRepository(db)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM candidates\s+WHERE published = TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile", "portfolio_depth", "github_activity"}).
			AddRow(a.String(), []byte(`{"skills":["go"]}`), 70.0, nil).
			AddRow(b.String(), []byte(`{"skills":[]}`), nil, 55.5))

	recs, err := repo.ListPublished(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, a, recs[0].ID)
	require.NotNil(t, recs[0].PortfolioDepth)
	assert.Equal(t, 70.0, *recs[0].PortfolioDepth)
	assert.Nil(t, recs[0].GithubActivity)
	assert.Nil(t, recs[1].PortfolioDepth)
	require.NotNil(t, recs[1].GithubActivity)
	assert.Equal(t, 55.5, *recs[1].GithubActivity)
}

func TestCandidateRepository_FindPublishedByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCandidateRepository(db)

	mock.ExpectQuery(`FROM candidates`).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindPublishedByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}

func sampleShortlist(jobID uuid.UUID, updated time.Time) shortlist.Shortlist {
	return shortlist.Shortlist{
		JobID:         jobID,
		MaxCandidates: 5,
		Entries: []shortlist.Entry{{
			MatchResult: matching.MatchResult{
				CandidateID:   uuid.New(),
				OverallScore:  70,
				Strengths:     []string{"Strong skill alignment"},
				MissingSkills: []string{},
				Explanation:   "Good match (70%): Strong skill alignment.",
			},
			Status:  shortlist.StatusShortlisted,
			AddedAt: updated,
		}},
		GeneratedAt:   &updated,
		LastUpdatedAt: &updated,
	}
}

func TestShortlistRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresShortlistRepository(db)
	jobID := uuid.New()
	updated := time.Date(2026, 5, 6, 7, 8, 9, 123000, time.UTC)
	want := sampleShortlist(jobID, updated)
	doc, err := json.Marshal(want.Entries)
	require.NoError(t, err)

	mock.ExpectQuery(`FROM shortlists`).
		WithArgs(jobID).
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "max_candidates", "entries", "generated_at", "last_updated_at"}).
			AddRow(jobID.String(), 5, doc, updated, updated))

	got, err := repo.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, jobID, got.JobID)
	assert.Equal(t, 5, got.MaxCandidates)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, want.Entries[0].CandidateID, got.Entries[0].CandidateID)
	assert.Equal(t, updated, *got.LastUpdatedAt)
	assert.Equal(t, updated, *got.GeneratedAt)
}

func TestShortlistRepository_Get_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresShortlistRepository(db)

	mock.ExpectQuery(`FROM shortlists`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrShortlistNotFound)
}

func TestShortlistRepository_Save_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresShortlistRepository(db)
	jobID := uuid.New()
	sl := sampleShortlist(jobID, time.Now().UTC())

	mock.ExpectExec(`(?s)INSERT INTO shortlists .* ON CONFLICT \(job_id\) DO NOTHING`).
		WithArgs(jobID, 5, sqlmock.AnyArg(), sqlmock.AnyArg(), *sl.LastUpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), sl, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShortlistRepository_Save_InsertLosesRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresShortlistRepository(db)
	sl := sampleShortlist(uuid.New(), time.Now().UTC())

	mock.ExpectExec(`INSERT INTO shortlists`).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Save(context.Background(), sl, nil), ErrShortlistConflict)
}

func TestShortlistRepository_Save_CompareAndSwap(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresShortlistRepository(db)
	jobID := uuid.New()
	prev := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	sl := sampleShortlist(jobID, prev.Add(time.Second))

	mock.ExpectExec(`(?s)UPDATE shortlists\s+SET .* WHERE job_id = \$1 AND last_updated_at = \$6`).
		WithArgs(jobID, 5, sqlmock.AnyArg(), sqlmock.AnyArg(), *sl.LastUpdatedAt, prev).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE shortlists`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Save(context.Background(), sl, &prev))
	assert.ErrorIs(t, repo.Save(context.Background(), sl, &prev), ErrShortlistConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
