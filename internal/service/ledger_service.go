// Package service composes the record store with the ledger fold: load a
// snapshot, aggregate it, and optionally reduce the balances to a
// settlement plan.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/splitledger/splitledger/internal/ledger"
	"github.com/splitledger/splitledger/internal/metrics"
	"github.com/splitledger/splitledger/internal/money"
	"github.com/splitledger/splitledger/internal/storage"
)

// Service exposes ledger operations over a storage backend.
type Service struct {
	store storage.Store
}

// New creates a Service with the given storage backend.
func New(store storage.Store) *Service {
	return &Service{store: store}
}

func (s *Service) snapshot(ctx context.Context, groupID, tripID string) ([]ledger.Expense, []ledger.Split, []ledger.Settlement, error) {
	start := time.Now()
	expenses, splits, settlements, err := s.store.LedgerRecords(ctx, groupID, tripID)
	metrics.SnapshotSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load ledger snapshot: %w", err)
	}
	return expenses, splits, settlements, nil
}

// Balances returns the net balances for one (group, trip) scope.
func (s *Service) Balances(ctx context.Context, groupID, tripID string) ([]ledger.Balance, error) {
	expenses, splits, settlements, err := s.snapshot(ctx, groupID, tripID)
	if err != nil {
		metrics.AggregationsTotal.WithLabelValues("error").Inc()
		slog.Error("Balances failed", "group_id", groupID, "trip_id", tripID, "error", err)
		return nil, err
	}

	balances := ledger.Aggregate(expenses, splits, settlements)
	metrics.AggregationsTotal.WithLabelValues("ok").Inc()
	slog.Debug("Balances computed",
		"group_id", groupID,
		"trip_id", tripID,
		"expenses", len(expenses),
		"balances", len(balances),
	)
	return balances, nil
}

// SettlementPlan returns the settling payments for one (group, trip)
// scope, one independent sub-plan per currency.
func (s *Service) SettlementPlan(ctx context.Context, groupID, tripID string) ([]ledger.Transaction, error) {
	balances, err := s.Balances(ctx, groupID, tripID)
	if err != nil {
		metrics.SettlementPlansTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	plan, err := ledger.Simplify(balances)
	if err != nil {
		metrics.SettlementPlansTotal.WithLabelValues("error").Inc()
		slog.Error("SettlementPlan failed", "group_id", groupID, "trip_id", tripID, "error", err)
		return nil, fmt.Errorf("simplify balances: %w", err)
	}

	metrics.SettlementPlansTotal.WithLabelValues("ok").Inc()
	metrics.PlanTransactions.Observe(float64(len(plan)))
	slog.Info("Settlement plan computed",
		"group_id", groupID,
		"trip_id", tripID,
		"transactions", len(plan),
	)
	return plan, nil
}

// NetBalance returns the two-party net between userA and userB in one
// currency. Positive means userB owes userA.
func (s *Service) NetBalance(ctx context.Context, groupID, tripID, userA, userB string, currency ledger.CurrencyCode) (money.Money, error) {
	expenses, splits, settlements, err := s.snapshot(ctx, groupID, tripID)
	if err != nil {
		slog.Error("NetBalance failed", "group_id", groupID, "error", err)
		return money.Money{}, err
	}
	return ledger.PairwiseNet(expenses, splits, settlements, userA, userB, currency), nil
}

// AddExpense records an expense paid by payerID and splits it among the
// participants: evenly when weights is nil, proportionally otherwise.
// The payer must be included in participants for their own share to
// offset their credit.
func (s *Service) AddExpense(ctx context.Context, expense *ledger.Expense, participants []string, weights []float64) error {
	if err := money.Validate(expense.Amount); err != nil {
		return fmt.Errorf("expense amount: %w", err)
	}
	if len(participants) == 0 {
		return fmt.Errorf("expense needs at least one participant")
	}

	var parts []money.Money
	var err error
	if weights == nil {
		parts, err = expense.Amount.SplitEvenly(len(participants))
	} else {
		if len(weights) != len(participants) {
			return fmt.Errorf("got %d weights for %d participants", len(weights), len(participants))
		}
		parts, err = expense.Amount.SplitWeighted(weights)
	}
	if err != nil {
		return fmt.Errorf("split expense: %w", err)
	}

	splits := make([]ledger.Split, len(participants))
	for i, userID := range participants {
		splits[i] = ledger.Split{UserID: userID, Amount: parts[i]}
	}

	if err := s.store.CreateExpense(ctx, expense, splits); err != nil {
		slog.Error("AddExpense failed", "group_id", expense.GroupID, "error", err)
		return fmt.Errorf("create expense: %w", err)
	}

	slog.Info("Expense recorded",
		"expense_id", expense.ID,
		"group_id", expense.GroupID,
		"payer_id", expense.PayerID,
		"amount", expense.Amount.String(),
		"currency", expense.Currency.Normalize(),
		"participants", len(participants),
	)
	return nil
}

// UpdateExpenseAmount changes an expense's amount and rescales its
// existing splits by newAmount/oldAmount. Every split but the last is
// rescaled independently; the last takes the exact remainder so the
// splits keep summing to the expense amount.
func (s *Service) UpdateExpenseAmount(ctx context.Context, expenseID string, newAmount money.Money) error {
	if err := money.Validate(newAmount); err != nil {
		return fmt.Errorf("expense amount: %w", err)
	}

	expense, splits, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("load expense: %w", err)
	}
	if len(splits) == 0 {
		return fmt.Errorf("expense %s has no splits to rescale", expenseID)
	}
	if expense.Amount.IsZero() {
		return fmt.Errorf("expense %s has zero amount: %w", expenseID, money.ErrDivisionByZero)
	}

	factor := float64(newAmount.MinorUnits()) / float64(expense.Amount.MinorUnits())
	var allocated money.Money
	for i := range splits {
		if i == len(splits)-1 {
			splits[i].Amount = newAmount.Sub(allocated)
			break
		}
		splits[i].Amount = splits[i].Amount.Mul(factor)
		allocated = allocated.Add(splits[i].Amount)
	}

	if err := s.store.UpdateExpenseAmount(ctx, expenseID, newAmount, splits); err != nil {
		slog.Error("UpdateExpenseAmount failed", "expense_id", expenseID, "error", err)
		return fmt.Errorf("update expense: %w", err)
	}

	slog.Info("Expense rescaled",
		"expense_id", expenseID,
		"old_amount", expense.Amount.String(),
		"new_amount", newAmount.String(),
	)
	return nil
}

// RemoveExpense soft-deletes an expense so it no longer contributes to
// balances.
func (s *Service) RemoveExpense(ctx context.Context, expenseID string) error {
	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		slog.Error("RemoveExpense failed", "expense_id", expenseID, "error", err)
		return fmt.Errorf("delete expense: %w", err)
	}
	slog.Info("Expense removed", "expense_id", expenseID)
	return nil
}

// ConfirmSettlement records a suggested transaction as an actual
// settlement once a user confirms the payment happened. The stored
// settlement feeds the next aggregation cycle, closing the loop between
// simplifier output and ledger input.
func (s *Service) ConfirmSettlement(ctx context.Context, groupID, tripID string, txn ledger.Transaction, note string) (*ledger.Settlement, error) {
	if err := money.Validate(txn.Amount); err != nil {
		return nil, fmt.Errorf("settlement amount: %w", err)
	}
	if txn.FromUserID == "" || txn.ToUserID == "" || txn.FromUserID == txn.ToUserID {
		return nil, fmt.Errorf("settlement needs two distinct users")
	}

	settlement := &ledger.Settlement{
		GroupID:    groupID,
		FromUserID: txn.FromUserID,
		ToUserID:   txn.ToUserID,
		Amount:     txn.Amount,
		Currency:   txn.Currency.Normalize(),
		TripID:     tripID,
		Note:       note,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("ConfirmSettlement failed", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("create settlement: %w", err)
	}

	slog.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"group_id", groupID,
		"from", settlement.FromUserID,
		"to", settlement.ToUserID,
		"amount", settlement.Amount.String(),
		"currency", settlement.Currency,
	)
	return settlement, nil
}
