package ledger

import "github.com/splitledger/splitledger/internal/money"

// PairwiseNet computes the net balance between exactly two users in one
// currency:
//
//	(A paid for B - A settled to B) - (B paid for A - B settled to A)
//
// A positive result means userB owes userA; negative means userA owes
// userB; zero means the pair is settled. PairwiseNet(a, b) always equals
// PairwiseNet(b, a) negated.
//
// This is the two-node restriction of Aggregate: only the shares one user
// carries on the other's expenses count, not either user's own share.
func PairwiseNet(expenses []Expense, splits []Split, settlements []Settlement, userA, userB string, currency CurrencyCode) money.Money {
	currency = currency.Normalize()

	payers := make(map[string]string, len(expenses))
	for _, e := range expenses {
		if e.Currency.Normalize() == currency {
			payers[e.ID] = e.PayerID
		}
	}

	var net money.Money
	for _, s := range splits {
		payer, ok := payers[s.ExpenseID]
		if !ok {
			continue
		}
		switch {
		case payer == userA && s.UserID == userB:
			net = net.Add(s.Amount)
		case payer == userB && s.UserID == userA:
			net = net.Sub(s.Amount)
		}
	}

	for _, s := range settlements {
		if s.Currency.Normalize() != currency {
			continue
		}
		switch {
		case s.FromUserID == userA && s.ToUserID == userB:
			// A handing money to B raises A's claim on B.
			net = net.Add(s.Amount)
		case s.FromUserID == userB && s.ToUserID == userA:
			net = net.Sub(s.Amount)
		}
	}

	return net
}
