package seeder

import (
	"context"
	"fmt"

	"talent-match/internal/database"

	"go.uber.org/zap"
)

// Runner applies its seeders in order inside a single transaction, so a
// failing seeder leaves no partial demo data behind.
type Runner struct {
	Seeders []Seeder
	Logger  *zap.Logger
}

func (r Runner) Run(ctx context.Context, db database.DB) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var done []string
	err := database.WithTx(ctx, db, func(q database.Querier) error {
		for _, s := range r.Seeders {
			if s == nil {
				continue
			}
			if err := s.Run(ctx, q); err != nil {
				return fmt.Errorf("seed %s: %w", s.Name(), err)
			}
			done = append(done, s.Name())
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info("seeded", zap.Strings("seeders", done))
	return nil
}
