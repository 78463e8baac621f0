package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/tollgate/internal/auth/store"
)

// MigrateFunc brings the schema up to date.
type MigrateFunc func(ctx context.Context, db *sql.DB) error

type Store struct {
	db      *sql.DB
	dialect Dialect
	migrate MigrateFunc
}

// New wraps an open database.
func New(db *sql.DB, dialect Dialect, migrate MigrateFunc) *Store {
	return &Store{db: db, dialect: dialect, migrate: migrate}
}

// DB exposes the underlying handle, mainly for tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) ApplyMigrations(ctx context.Context) error {
	if s.migrate == nil {
		return nil
	}
	return s.migrate(ctx, s.db)
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx, dialect: s.dialect}, nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // no-op after a successful commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Principals() store.Principals {
	return &principalsRepo{q: s.db, d: s.dialect}
}

func (s *Store) SecondFactors() store.SecondFactors {
	return &secondFactorsRepo{q: s.db, d: s.dialect}
}

type txStore struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the outer DB stays open.
func (t *txStore) Close() error { return nil }

// Ping is a no-op, the connection is held by the transaction.
func (t *txStore) Ping(context.Context) error { return nil }

func (t *txStore) ApplyMigrations(context.Context) error { return store.ErrNestedTx }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, store.ErrNestedTx }

func (t *txStore) WithTx(context.Context, func(store.Tx) error) error { return store.ErrNestedTx }

func (t *txStore) Principals() store.Principals {
	return &principalsRepo{q: t.tx, d: t.dialect}
}

func (t *txStore) SecondFactors() store.SecondFactors {
	return &secondFactorsRepo{q: t.tx, d: t.dialect}
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (d Dialect) mapWriteErr(err error) error {
	if d.uniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return mapNotFound(err)
}
