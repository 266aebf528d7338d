// Package memory provides an in-memory implementation of storage.Store,
// used by tests and embedders that do not need persistence.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/splitledger/splitledger/internal/ledger"
	"github.com/splitledger/splitledger/internal/money"
	"github.com/splitledger/splitledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type expenseRecord struct {
	expense ledger.Expense
	splits  []ledger.Split
	deleted bool
}

// Store implements storage.Store with mutex-guarded maps.
type Store struct {
	mu          sync.RWMutex
	expenses    map[string]*expenseRecord
	settlements []ledger.Settlement
}

// New constructs an empty store.
func New() *Store {
	return &Store{expenses: make(map[string]*expenseRecord)}
}

// LedgerRecords returns the non-deleted records for one (group, trip)
// scope. The whole snapshot is copied under one read lock, so it is as
// consistent as the sqlite store's read transaction.
func (s *Store) LedgerRecords(ctx context.Context, groupID, tripID string) ([]ledger.Expense, []ledger.Split, []ledger.Settlement, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	var expenses []ledger.Expense
	var splits []ledger.Split
	for _, rec := range s.expenses {
		if rec.deleted || rec.expense.GroupID != groupID || rec.expense.TripID != tripID {
			continue
		}
		expenses = append(expenses, rec.expense)
		splits = append(splits, rec.splits...)
	}

	var settlements []ledger.Settlement
	for _, st := range s.settlements {
		if st.GroupID == groupID && st.TripID == tripID {
			settlements = append(settlements, st)
		}
	}

	return expenses, splits, settlements, nil
}

// CreateExpense stores an expense and its splits.
func (s *Store) CreateExpense(ctx context.Context, expense *ledger.Expense, splits []ledger.Split) error {
	_ = ctx
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	for i := range splits {
		splits[i].ExpenseID = expense.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[expense.ID] = &expenseRecord{
		expense: *expense,
		splits:  append([]ledger.Split(nil), splits...),
	}
	return nil
}

// GetExpense returns a non-deleted expense and its splits.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*ledger.Expense, []ledger.Split, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.expenses[expenseID]
	if !ok || rec.deleted {
		return nil, nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	expense := rec.expense
	return &expense, append([]ledger.Split(nil), rec.splits...), nil
}

// UpdateExpenseAmount replaces the amount and splits of an expense.
func (s *Store) UpdateExpenseAmount(ctx context.Context, expenseID string, amount money.Money, splits []ledger.Split) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.expenses[expenseID]
	if !ok || rec.deleted {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	rec.expense.Amount = amount
	for i := range splits {
		splits[i].ExpenseID = expenseID
	}
	rec.splits = append([]ledger.Split(nil), splits...)
	return nil
}

// DeleteExpense soft-deletes an expense.
func (s *Store) DeleteExpense(ctx context.Context, expenseID string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.expenses[expenseID]
	if !ok || rec.deleted {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	rec.deleted = true
	return nil
}

// CreateSettlement stores a settlement.
func (s *Store) CreateSettlement(ctx context.Context, settlement *ledger.Settlement) error {
	_ = ctx
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settlements = append(s.settlements, *settlement)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
