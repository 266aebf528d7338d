package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitledger/splitledger/internal/ledger"
	"github.com/splitledger/splitledger/internal/money"
	"github.com/splitledger/splitledger/internal/storage"
)

// CreateExpense persists an expense and its splits in one transaction.
func (s *Store) CreateExpense(ctx context.Context, expense *ledger.Expense, splits []ledger.Split) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, payer_id, amount, currency, trip_id, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.PayerID, expense.Amount.String(),
		string(expense.Currency), nullable(expense.TripID), expense.Description, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i := range splits {
		splits[i].ExpenseID = expense.ID
		_, err = tx.ExecContext(ctx,
			"INSERT INTO splits (expense_id, user_id, amount) VALUES (?, ?, ?)",
			expense.ID, splits[i].UserID, splits[i].Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves a non-deleted expense and its splits.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*ledger.Expense, []ledger.Split, error) {
	expense := &ledger.Expense{}
	var amount, currency string
	var tripID sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, payer_id, amount, currency, trip_id, description, created_at
		 FROM expenses WHERE id = ? AND deleted_at IS NULL`,
		expenseID,
	).Scan(&expense.ID, &expense.GroupID, &expense.PayerID, &amount, &currency,
		&tripID, &expense.Description, &expense.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if expense.Amount, err = parseAmount(amount); err != nil {
		return nil, nil, err
	}
	expense.Currency = ledger.CurrencyCode(currency)
	if tripID.Valid {
		expense.TripID = tripID.String
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT expense_id, user_id, amount FROM splits WHERE expense_id = ? ORDER BY user_id",
		expenseID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	var splits []ledger.Split
	for rows.Next() {
		var split ledger.Split
		var raw string
		if err := rows.Scan(&split.ExpenseID, &split.UserID, &raw); err != nil {
			return nil, nil, fmt.Errorf("failed to scan split: %w", err)
		}
		if split.Amount, err = parseAmount(raw); err != nil {
			return nil, nil, err
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return expense, splits, nil
}

// UpdateExpenseAmount replaces the expense amount and its splits in one
// transaction.
func (s *Store) UpdateExpenseAmount(ctx context.Context, expenseID string, amount money.Money, splits []ledger.Split) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET amount = ? WHERE id = ? AND deleted_at IS NULL",
		amount.String(), expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM splits WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to clear splits: %w", err)
	}
	for _, split := range splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO splits (expense_id, user_id, amount) VALUES (?, ?, ?)",
			expenseID, split.UserID, split.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense soft-deletes an expense so the snapshot no longer returns
// it or its splits.
func (s *Store) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now().Unix(), expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

func queryExpenses(ctx context.Context, tx *sql.Tx, groupID, tripID string) ([]ledger.Expense, error) {
	clause, args := tripClause("trip_id", tripID, []any{groupID})
	rows, err := tx.QueryContext(ctx,
		`SELECT id, group_id, payer_id, amount, currency, trip_id, description, created_at
		 FROM expenses WHERE group_id = ? AND deleted_at IS NULL AND `+clause+
			" ORDER BY created_at, id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []ledger.Expense
	for rows.Next() {
		var e ledger.Expense
		var amount, currency string
		var trip sql.NullString
		if err := rows.Scan(&e.ID, &e.GroupID, &e.PayerID, &amount, &currency,
			&trip, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if e.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		e.Currency = ledger.CurrencyCode(currency)
		if trip.Valid {
			e.TripID = trip.String
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

func querySplits(ctx context.Context, tx *sql.Tx, groupID, tripID string) ([]ledger.Split, error) {
	clause, args := tripClause("e.trip_id", tripID, []any{groupID})
	rows, err := tx.QueryContext(ctx,
		`SELECT s.expense_id, s.user_id, s.amount
		 FROM splits s JOIN expenses e ON e.id = s.expense_id
		 WHERE e.group_id = ? AND e.deleted_at IS NULL AND `+clause+
			" ORDER BY s.expense_id, s.user_id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query splits: %w", err)
	}
	defer rows.Close()

	var splits []ledger.Split
	for rows.Next() {
		var split ledger.Split
		var raw string
		if err := rows.Scan(&split.ExpenseID, &split.UserID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		if split.Amount, err = parseAmount(raw); err != nil {
			return nil, err
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}
