package repository

import (
	"context"
	"errors"
	"fmt"

	"talent-match/internal/database"
	"talent-match/internal/domain/candidate"

	"github.com/google/uuid"
)

var (
	ErrCandidateNotFound = errors.New("candidate not found")
)

type CandidateUpsert struct {
	ID             uuid.UUID
	DisplayName    string
	Profile        []byte
	PortfolioDepth *float64
	GithubActivity *float64
	Published      bool
}

type CandidateRepository interface {
	ListPublished(ctx context.Context) ([]candidate.Record, error)
	FindPublishedByID(ctx context.Context, candidateID uuid.UUID) (candidate.Record, error)
	Upsert(ctx context.Context, c CandidateUpsert) error
}

type PostgresCandidateRepository struct {
	db database.Querier
}

func NewPostgresCandidateRepository(db database.Querier) *PostgresCandidateRepository {
	return &PostgresCandidateRepository{db: db}
}

// ListPublished reads the published pool without locking. Rows edited during
// the scan may or may not be reflected.
func (r *PostgresCandidateRepository) ListPublished(ctx context.Context) ([]candidate.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, profile, portfolio_depth, github_activity
		 FROM candidates
		 WHERE published = TRUE
		 ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listPublishedCandidates query: %w", err)
	}
	defer rows.Close()

	out := make([]candidate.Record, 0)
	for rows.Next() {
		var rec candidate.Record
		if err := rows.Scan(&rec.ID, &rec.Profile, &rec.PortfolioDepth, &rec.GithubActivity); err != nil {
			return nil, fmt.Errorf("listPublishedCandidates scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listPublishedCandidates rows: %w", err)
	}
	return out, nil
}

func (r *PostgresCandidateRepository) FindPublishedByID(ctx context.Context, candidateID uuid.UUID) (candidate.Record, error) {
	var rec candidate.Record
	err := r.db.QueryRow(ctx,
		`SELECT id, profile, portfolio_depth, github_activity
		 FROM candidates
		 WHERE id = $1 AND published = TRUE`,
		candidateID,
	).Scan(&rec.ID, &rec.Profile, &rec.PortfolioDepth, &rec.GithubActivity)
	if err != nil {
		if isNoRows(err) {
			return candidate.Record{}, ErrCandidateNotFound
		}
		return candidate.Record{}, fmt.Errorf("findCandidate scan: %w", err)
	}
	return rec, nil
}

func (r *PostgresCandidateRepository) Upsert(ctx context.Context, c CandidateUpsert) error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("upsertCandidate: nil id")
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO candidates (id, display_name, profile, portfolio_depth, github_activity, published)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			profile = EXCLUDED.profile,
			portfolio_depth = EXCLUDED.portfolio_depth,
			github_activity = EXCLUDED.github_activity,
			published = EXCLUDED.published,
			updated_at = now()`,
		c.ID, c.DisplayName, c.Profile, c.PortfolioDepth, c.GithubActivity, c.Published,
	)
	if err != nil {
		return fmt.Errorf("upsertCandidate exec: %w", err)
	}
	return nil
}
