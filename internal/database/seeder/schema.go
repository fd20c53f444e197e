package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"talent-match/internal/database"
)

var ErrSchemaMismatch = errors.New("schema mismatch")

// EnsureTableColumns fails with ErrSchemaMismatch listing every column of
// table that the migrated schema lacks.
func EnsureTableColumns(ctx context.Context, q database.Querier, table string, columns ...string) error {
	if q == nil {
		return fmt.Errorf("nil querier")
	}
	if table == "" || len(columns) == 0 {
		return fmt.Errorf("ensure columns: table and columns are required")
	}

	rows, err := q.Query(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1`,
		table,
	)
	if err != nil {
		return fmt.Errorf("ensure columns %s: %w", table, err)
	}
	defer rows.Close()

	present := make(map[string]bool, len(columns))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, col := range columns {
		if !present[col] {
			missing = append(missing, table+"."+col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s (run migrate first)", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return nil
}
