package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"talent-match/internal/database"
	"talent-match/internal/domain/job"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrJobNotFound = errors.New("job not found")
)

type JobRepository interface {
	FindByID(ctx context.Context, jobID uuid.UUID) (job.Job, error)
	ListOpenIDs(ctx context.Context) ([]uuid.UUID, error)
	Upsert(ctx context.Context, j job.Job) error
}

type PostgresJobRepository struct {
	db database.Querier
}

func NewPostgresJobRepository(db database.Querier) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

func (r *PostgresJobRepository) FindByID(ctx context.Context, jobID uuid.UUID) (job.Job, error) {
	var (
		j      job.Job
		skills []byte
	)
	row := r.db.QueryRow(ctx,
		`SELECT id, COALESCE(title, ''), COALESCE(company, ''), required_skills, min_years,
		        education_preference, COALESCE(availability, ''), max_candidates,
		        currency, budget, status, created_at
		 FROM jobs
		 WHERE id = $1`,
		jobID,
	)
	err := row.Scan(
		&j.ID, &j.Title, &j.Company, &skills, &j.MinYears,
		&j.EducationPreference, &j.Availability, &j.MaxCandidates,
		&j.Currency, &j.Budget, &j.Status, &j.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return job.Job{}, ErrJobNotFound
		}
		return job.Job{}, fmt.Errorf("findJob scan: %w", err)
	}
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &j.RequiredSkills); err != nil {
			return job.Job{}, fmt.Errorf("findJob required_skills: %w", err)
		}
	}
	return j, nil
}

func (r *PostgresJobRepository) ListOpenIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM jobs WHERE status = $1 ORDER BY created_at ASC`,
		job.StatusOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("listOpenJobs query: %w", err)
	}
	defer rows.Close()

	out := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("listOpenJobs scan: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listOpenJobs rows: %w", err)
	}
	return out, nil
}

func (r *PostgresJobRepository) Upsert(ctx context.Context, j job.Job) error {
	if j.ID == uuid.Nil {
		return fmt.Errorf("upsertJob: nil id")
	}
	if j.Status == "" {
		j.Status = job.StatusOpen
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	skills, err := json.Marshal(nonNilStrings(j.RequiredSkills))
	if err != nil {
		return fmt.Errorf("upsertJob required_skills: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO jobs (id, title, company, required_skills, min_years, education_preference,
		                   availability, max_candidates, currency, budget, status, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			company = EXCLUDED.company,
			required_skills = EXCLUDED.required_skills,
			min_years = EXCLUDED.min_years,
			education_preference = EXCLUDED.education_preference,
			availability = EXCLUDED.availability,
			max_candidates = EXCLUDED.max_candidates,
			currency = EXCLUDED.currency,
			budget = EXCLUDED.budget,
			status = EXCLUDED.status`,
		j.ID, j.Title, j.Company, skills, j.MinYears, j.EducationPreference,
		j.Availability, j.MaxCandidates, j.Currency, j.Budget, j.Status, j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsertJob exec: %w", err)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
