// Package seeder loads demo jobs and candidates into a migrated database.
package seeder

import (
	"context"

	"talent-match/internal/database"

	"github.com/google/uuid"
)

// Seeder writes one kind of demo data through q, which is the runner's
// transaction.
type Seeder interface {
	Name() string
	Run(ctx context.Context, q database.Querier) error
}

// seedNamespace keeps demo ids stable across runs so seeding is idempotent.
var seedNamespace = uuid.MustParse("6f1c3a8e-5d0b-4b7e-9a51-2c7d8e4f0a13")

func seedID(kind, name string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+name))
}
