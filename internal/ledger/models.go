// Package ledger folds raw expense, split and settlement records into net
// balances and reduces those balances to a minimal set of settling payments.
//
// Everything in this package is a pure function over its inputs: no shared
// state, no I/O. Callers are responsible for supplying a time-consistent
// snapshot of records (e.g. loaded inside one read transaction); the fold
// cannot detect a torn read.
package ledger

import "github.com/splitledger/splitledger/internal/money"

// CurrencyCode identifies a currency, e.g. "USD" or "EUR".
// Currencies are never mixed: every balance and transaction belongs to
// exactly one currency, and each currency settles as an independent ledger.
type CurrencyCode string

// DefaultCurrency is substituted for records with no currency set.
const DefaultCurrency CurrencyCode = "USD"

// Normalize replaces an empty code with DefaultCurrency.
func (c CurrencyCode) Normalize() CurrencyCode {
	if c == "" {
		return DefaultCurrency
	}
	return c
}

// Expense is one payment made by PayerID on behalf of a group.
// Soft-deleted expenses must not be passed to the fold; the record source
// filters them out.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// PayerID is the user who paid the full amount.
	PayerID string

	// Amount is the full amount paid.
	Amount money.Money

	// Currency of the amount; empty means DefaultCurrency.
	Currency CurrencyCode

	// TripID optionally scopes the expense to a trip.
	// Trip-scoped and trip-less records form disjoint ledgers.
	TripID string

	// Description is an optional human-readable label.
	Description string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Split is the share of an expense attributed to one user.
// The creator guarantees that a given expense's splits sum to its amount.
type Split struct {
	ExpenseID string
	UserID    string
	Amount    money.Money
}

// Settlement is a direct payment made outside the expense flow, reducing
// what FromUserID owes ToUserID.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount.
	Amount money.Money

	// Currency of the amount; empty means DefaultCurrency.
	Currency CurrencyCode

	// TripID optionally scopes the settlement to a trip.
	TripID string

	// Note is an optional description for the settlement.
	Note string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}

// Balance is one user's net position in one currency.
// Positive means the group owes the user; negative means the user owes the
// group. Balances are derived, never stored.
type Balance struct {
	UserID   string
	Currency CurrencyCode
	Amount   money.Money
}

// Transaction is one suggested settling payment, produced by Simplify.
type Transaction struct {
	FromUserID string
	ToUserID   string
	Amount     money.Money
	Currency   CurrencyCode
}
