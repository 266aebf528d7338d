package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/splitledger/splitledger/internal/money"
)

// ErrUnbalancedLedger indicates that the balances for a currency do not sum
// to zero. Aggregate guarantees zero-sum output, so hitting this means the
// caller's record snapshot was inconsistent; no partial plan is returned.
var ErrUnbalancedLedger = errors.New("ledger balances do not sum to zero")

type party struct {
	userID string
	amount money.Money // always positive magnitude
}

// Simplify reduces net balances to a settlement plan: the list of
// point-to-point payments that zeroes every balance.
//
// Each currency settles independently; a cross-currency transaction is
// never produced. Within a currency the matching is greedy and
// deterministic: creditors and debtors are sorted descending by magnitude
// (ties broken by ascending user ID), then walked with two pointers, each
// step settling min(largest credit, largest debt). Greedy matching is not
// guaranteed globally minimal in transaction count, but it is the
// committed, reproducible behavior; callers depend on the exact ordering.
func Simplify(balances []Balance) ([]Transaction, error) {
	byCurrency := make(map[CurrencyCode][]Balance)
	for _, b := range balances {
		c := b.Currency.Normalize()
		byCurrency[c] = append(byCurrency[c], b)
	}

	currencies := make([]CurrencyCode, 0, len(byCurrency))
	for c := range byCurrency {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })

	var plan []Transaction
	for _, c := range currencies {
		txns, err := simplifyCurrency(c, byCurrency[c])
		if err != nil {
			return nil, err
		}
		plan = append(plan, txns...)
	}
	return plan, nil
}

func simplifyCurrency(currency CurrencyCode, balances []Balance) ([]Transaction, error) {
	var creditors, debtors []party
	var totalCredit, totalDebt money.Money

	for _, b := range balances {
		units := b.Amount.MinorUnits()
		switch {
		case units >= minMaterialUnits:
			creditors = append(creditors, party{userID: b.UserID, amount: b.Amount})
			totalCredit = totalCredit.Add(b.Amount)
		case units <= -minMaterialUnits:
			debtors = append(debtors, party{userID: b.UserID, amount: b.Amount.Neg()})
			totalDebt = totalDebt.Add(b.Amount.Neg())
		}
	}

	if !totalCredit.Equal(totalDebt) {
		return nil, fmt.Errorf("%w: %s credit %s vs debt %s",
			ErrUnbalancedLedger, currency, totalCredit, totalDebt)
	}

	sortParties(creditors)
	sortParties(debtors)

	var txns []Transaction
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		settle := creditors[i].amount
		if debtors[j].amount.LessThan(settle) {
			settle = debtors[j].amount
		}

		if settle.MinorUnits() >= minMaterialUnits {
			txns = append(txns, Transaction{
				FromUserID: debtors[j].userID,
				ToUserID:   creditors[i].userID,
				Amount:     settle,
				Currency:   currency,
			})
		}

		creditors[i].amount = creditors[i].amount.Sub(settle)
		debtors[j].amount = debtors[j].amount.Sub(settle)

		if creditors[i].amount.MinorUnits() < minMaterialUnits {
			i++
		}
		if debtors[j].amount.MinorUnits() < minMaterialUnits {
			j++
		}
	}

	return txns, nil
}

// sortParties orders by descending amount; equal magnitudes order by
// ascending user ID so equal inputs always yield the same plan.
func sortParties(parties []party) {
	sort.SliceStable(parties, func(i, j int) bool {
		if !parties[i].amount.Equal(parties[j].amount) {
			return parties[j].amount.LessThan(parties[i].amount)
		}
		return parties[i].userID < parties[j].userID
	})
}
