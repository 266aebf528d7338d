// Package storage provides abstractions for persistent record storage.
package storage

import (
	"context"
	"errors"

	"github.com/splitledger/splitledger/internal/ledger"
	"github.com/splitledger/splitledger/internal/money"
)

// ErrNotFound is returned when a requested record does not exist or has
// been deleted.
var ErrNotFound = errors.New("record not found")

// Store is the record source behind the ledger fold. Implementations must
// return only non-deleted records, already narrowed to the requested
// (group, trip) scope: a non-empty tripID selects that trip's records, an
// empty tripID selects trip-less records. Snapshot loads must be
// time-consistent (one read transaction), otherwise the fold's zero-sum
// invariant can be violated by a torn read.
type Store interface {
	// LedgerRecords loads the complete record snapshot for one scope.
	LedgerRecords(ctx context.Context, groupID, tripID string) ([]ledger.Expense, []ledger.Split, []ledger.Settlement, error)

	// CreateExpense persists an expense together with its splits in one
	// transaction. Missing IDs and timestamps are assigned by the store.
	CreateExpense(ctx context.Context, expense *ledger.Expense, splits []ledger.Split) error

	// GetExpense retrieves a non-deleted expense and its splits.
	GetExpense(ctx context.Context, expenseID string) (*ledger.Expense, []ledger.Split, error)

	// UpdateExpenseAmount replaces an expense's amount and its splits in
	// one transaction.
	UpdateExpenseAmount(ctx context.Context, expenseID string, amount money.Money, splits []ledger.Split) error

	// DeleteExpense soft-deletes an expense. Its splits stop being
	// returned with the snapshot but remain on disk.
	DeleteExpense(ctx context.Context, expenseID string) error

	// CreateSettlement persists a settlement. Missing ID and timestamp
	// are assigned by the store.
	CreateSettlement(ctx context.Context, settlement *ledger.Settlement) error

	// Close releases any resources held by the store.
	Close() error
}
