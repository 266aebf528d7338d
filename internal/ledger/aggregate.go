package ledger

import (
	"sort"

	"github.com/splitledger/splitledger/internal/money"
)

// minMaterialUnits is the emission threshold: balances below one minor unit
// (0.01 currency units) in magnitude are not materialized.
const minMaterialUnits = 1

type balanceKey struct {
	userID   string
	currency CurrencyCode
}

// Aggregate folds raw records into per-user, per-currency net balances.
//
// Each expense credits its payer and each split debits its holder, both in
// the currency of the owning expense. Each settlement debits the sender and
// credits the receiver in its own currency. Missing currencies normalize to
// DefaultCurrency before any amount moves.
//
// Currencies never net against each other: a user can owe in EUR while
// being owed in USD, and both balances are emitted. Within each currency
// the emitted balances sum to zero, because every debit has a matching
// credit. Pairs that net below the materiality threshold are omitted.
//
// The result is sorted by currency, then user ID.
func Aggregate(expenses []Expense, splits []Split, settlements []Settlement) []Balance {
	currencies := make(map[string]CurrencyCode, len(expenses))
	totals := make(map[balanceKey]money.Money)

	credit := func(userID string, c CurrencyCode, amount money.Money) {
		key := balanceKey{userID: userID, currency: c}
		totals[key] = totals[key].Add(amount)
	}

	for _, e := range expenses {
		c := e.Currency.Normalize()
		currencies[e.ID] = c
		credit(e.PayerID, c, e.Amount)
	}

	for _, s := range splits {
		c, ok := currencies[s.ExpenseID]
		if !ok {
			// Split for an expense outside the snapshot; nothing to
			// attribute it to.
			continue
		}
		credit(s.UserID, c, s.Amount.Neg())
	}

	for _, s := range settlements {
		c := s.Currency.Normalize()
		credit(s.FromUserID, c, s.Amount)
		credit(s.ToUserID, c, s.Amount.Neg())
	}

	balances := make([]Balance, 0, len(totals))
	for key, amount := range totals {
		if amount.Abs().MinorUnits() < minMaterialUnits {
			continue
		}
		balances = append(balances, Balance{
			UserID:   key.userID,
			Currency: key.currency,
			Amount:   amount,
		})
	}

	sort.Slice(balances, func(i, j int) bool {
		if balances[i].Currency != balances[j].Currency {
			return balances[i].Currency < balances[j].Currency
		}
		return balances[i].UserID < balances[j].UserID
	})

	return balances
}

// ScopeTrip filters records to a single ledger scope. A non-empty tripID
// keeps only that trip's records; an empty tripID keeps only trip-less
// records. Splits follow their owning expense.
func ScopeTrip(tripID string, expenses []Expense, splits []Split, settlements []Settlement) ([]Expense, []Split, []Settlement) {
	keptExpenses := make([]Expense, 0, len(expenses))
	keptIDs := make(map[string]bool, len(expenses))
	for _, e := range expenses {
		if e.TripID != tripID {
			continue
		}
		keptExpenses = append(keptExpenses, e)
		keptIDs[e.ID] = true
	}

	keptSplits := make([]Split, 0, len(splits))
	for _, s := range splits {
		if keptIDs[s.ExpenseID] {
			keptSplits = append(keptSplits, s)
		}
	}

	keptSettlements := make([]Settlement, 0, len(settlements))
	for _, s := range settlements {
		if s.TripID == tripID {
			keptSettlements = append(keptSettlements, s)
		}
	}

	return keptExpenses, keptSplits, keptSettlements
}
