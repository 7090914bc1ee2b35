package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/bus-ticket-reservation/internal/database"
)

// Store owns the connection pool and hands out transaction-scoped
// repositories.  There is no package-level handle: every unit of work is
// started explicitly through WithTx.
type Store struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewStore returns a Store bound to db.  The dialect selects row locking
// and constraint-error detection for the driver behind db.
func NewStore(db *sql.DB, dialect database.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB exposes the underlying pool for health checks and migrations.
func (s *Store) DB() *sql.DB { return s.db }

// querier is satisfied by both *sql.Tx and *sql.DB.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is a repository bound to one open database transaction.  All reads
// and writes of a purchase or cancellation go through the same Tx so they
// commit or roll back together.  A Tx handed out by View runs each
// statement on its own against the pool.
type Tx struct {
	tx      querier
	dialect database.Dialect
}

// WithTx runs fn inside a transaction.  The transaction commits when fn
// returns nil and rolls back otherwise; fn's error is returned unchanged.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, s.dialect.TxOptions())
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(&Tx{tx: sqlTx, dialect: s.dialect}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// View runs fn without opening a transaction, for display reads that
// must not queue behind writers.  fn must not write.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	return fn(&Tx{tx: s.db, dialect: s.dialect})
}
