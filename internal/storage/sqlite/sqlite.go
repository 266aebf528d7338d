// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/splitledger/splitledger/internal/ledger"
	"github.com/splitledger/splitledger/internal/money"
	"github.com/splitledger/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for metrics registration.
func (s *Store) DB() *sql.DB {
	return s.db
}

// LedgerRecords loads all non-deleted records for one (group, trip) scope
// inside a single read transaction, so the fold sees a consistent
// snapshot.
func (s *Store) LedgerRecords(ctx context.Context, groupID, tripID string) ([]ledger.Expense, []ledger.Split, []ledger.Settlement, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	expenses, err := queryExpenses(ctx, tx, groupID, tripID)
	if err != nil {
		return nil, nil, nil, err
	}
	splits, err := querySplits(ctx, tx, groupID, tripID)
	if err != nil {
		return nil, nil, nil, err
	}
	settlements, err := querySettlements(ctx, tx, groupID, tripID)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to finish snapshot transaction: %w", err)
	}
	return expenses, splits, settlements, nil
}

// tripClause appends the trip scope predicate. An empty trip selects
// trip-less rows only; trip-scoped and trip-less ledgers never mix.
func tripClause(column, tripID string, args []any) (string, []any) {
	if tripID == "" {
		return column + " IS NULL", args
	}
	return column + " = ?", append(args, tripID)
}

func parseAmount(raw string) (money.Money, error) {
	m, err := money.Parse(raw)
	if err != nil {
		return money.Money{}, fmt.Errorf("corrupt amount column: %w", err)
	}
	return m, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
