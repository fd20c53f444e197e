package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"talent-match/internal/config"
	"talent-match/internal/database"
)

// SQLDB adapts a database/sql handle to database.DB. The CLI uses it over
// the pgx stdlib driver; tests use it over sqlmock.
type SQLDB struct {
	db *sql.DB
}

func NewSQLDB(db *sql.DB) *SQLDB {
	return &SQLDB{db: db}
}

func Open(ctx context.Context, cfg config.DatabaseConfig) (*SQLDB, error) {
	db, err := sql.Open("pgx", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &SQLDB{db: db}, nil
}

func (s *SQLDB) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errNilDB
	}
	return s.db.PingContext(ctx)
}

func (s *SQLDB) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLDB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errNilDB
	}
	return execAffected(s.db.ExecContext(ctx, query, args...))
}

func (s *SQLDB) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	r, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{r}, nil
}

func (s *SQLDB) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	if s == nil || s.db == nil {
		return errRow{errNilDB}
	}
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s *SQLDB) Begin(ctx context.Context) (database.Tx, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return sqlTx{tx}, nil
}

func (s *SQLDB) SQLDB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

type sqlTx struct {
	tx *sql.Tx
}

func (t sqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execAffected(t.tx.ExecContext(ctx, query, args...))
}

func (t sqlTx) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	r, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{r}, nil
}

func (t sqlTx) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

func (t sqlTx) Commit(_ context.Context) error   { return t.tx.Commit() }
func (t sqlTx) Rollback(_ context.Context) error { return t.tx.Rollback() }

type sqlRows struct {
	rows *sql.Rows
}

func (r sqlRows) Close()                 { _ = r.rows.Close() }
func (r sqlRows) Next() bool             { return r.rows.Next() }
func (r sqlRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r sqlRows) Err() error             { return r.rows.Err() }

func execAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
