package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"talent-match/internal/database"
	"talent-match/internal/domain/shortlist"

	"github.com/google/uuid"
)

var (
	ErrShortlistNotFound = errors.New("shortlist not found")
	ErrShortlistConflict = errors.New("shortlist was modified concurrently")
)

type ShortlistRepository interface {
	Get(ctx context.Context, jobID uuid.UUID) (shortlist.Shortlist, error)
	// Save replaces the whole stored document. expected is the
	// lastUpdatedAt the caller read, nil when no document existed.
	Save(ctx context.Context, sl shortlist.Shortlist, expected *time.Time) error
}

type PostgresShortlistRepository struct {
	db database.Querier
}

func NewPostgresShortlistRepository(db database.Querier) *PostgresShortlistRepository {
	return &PostgresShortlistRepository{db: db}
}

func (r *PostgresShortlistRepository) Get(ctx context.Context, jobID uuid.UUID) (shortlist.Shortlist, error) {
	var (
		sl          shortlist.Shortlist
		entries     []byte
		generatedAt *time.Time
		updatedAt   time.Time
	)
	err := r.db.QueryRow(ctx,
		`SELECT job_id, max_candidates, entries, generated_at, last_updated_at
		 FROM shortlists
		 WHERE job_id = $1`,
		jobID,
	).Scan(&sl.JobID, &sl.MaxCandidates, &entries, &generatedAt, &updatedAt)
	if err != nil {
		if isNoRows(err) {
			return shortlist.Shortlist{}, ErrShortlistNotFound
		}
		return shortlist.Shortlist{}, fmt.Errorf("getShortlist scan: %w", err)
	}

	sl.Entries = []shortlist.Entry{}
	if len(entries) > 0 {
		if err := json.Unmarshal(entries, &sl.Entries); err != nil {
			return shortlist.Shortlist{}, fmt.Errorf("getShortlist entries: %w", err)
		}
	}
	if generatedAt != nil {
		g := generatedAt.UTC()
		sl.GeneratedAt = &g
	}
	u := updatedAt.UTC()
	sl.LastUpdatedAt = &u
	return sl, nil
}

func (r *PostgresShortlistRepository) Save(ctx context.Context, sl shortlist.Shortlist, expected *time.Time) error {
	if sl.JobID == uuid.Nil {
		return fmt.Errorf("saveShortlist: nil job id")
	}
	if sl.LastUpdatedAt == nil {
		return fmt.Errorf("saveShortlist: missing lastUpdatedAt")
	}
	entries := sl.Entries
	if entries == nil {
		entries = []shortlist.Entry{}
	}
	doc, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("saveShortlist marshal: %w", err)
	}

	var affected int64
	if expected == nil {
		affected, err = r.db.Exec(ctx,
			`INSERT INTO shortlists (job_id, max_candidates, entries, generated_at, last_updated_at)
			 VALUES ($1,$2,$3,$4,$5)
			 ON CONFLICT (job_id) DO NOTHING`,
			sl.JobID, sl.MaxCandidates, doc, sl.GeneratedAt, *sl.LastUpdatedAt,
		)
	} else {
		affected, err = r.db.Exec(ctx,
			`UPDATE shortlists
			 SET max_candidates = $2, entries = $3, generated_at = $4, last_updated_at = $5
			 WHERE job_id = $1 AND last_updated_at = $6`,
			sl.JobID, sl.MaxCandidates, doc, sl.GeneratedAt, *sl.LastUpdatedAt, *expected,
		)
	}
	if err != nil {
		return fmt.Errorf("saveShortlist exec: %w", err)
	}
	if affected == 0 {
		return ErrShortlistConflict
	}
	return nil
}
