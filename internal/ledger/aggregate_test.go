package ledger

import (
	"testing"

	"github.com/splitledger/splitledger/internal/money"
)

func findBalance(t *testing.T, balances []Balance, userID string, currency CurrencyCode) Balance {
	t.Helper()
	for _, b := range balances {
		if b.UserID == userID && b.Currency == currency {
			return b
		}
	}
	t.Fatalf("no balance for user %s in %s", userID, currency)
	return Balance{}
}

func assertZeroSum(t *testing.T, balances []Balance) {
	t.Helper()
	sums := make(map[CurrencyCode]money.Money)
	for _, b := range balances {
		sums[b.Currency] = sums[b.Currency].Add(b.Amount)
	}
	for currency, sum := range sums {
		if !sum.IsZero() {
			t.Errorf("%s balances sum to %s, want 0.00", currency, sum)
		}
	}
}

func TestAggregateSinglePayer(t *testing.T) {
	expenses := []Expense{
		{ID: "e1", PayerID: "alice", Amount: money.MustParse("100.00"), Currency: "USD"},
	}
	splits := []Split{
		{ExpenseID: "e1", UserID: "bob", Amount: money.MustParse("100.00")},
	}

	balances := Aggregate(expenses, splits, nil)

	if len(balances) != 2 {
		t.Fatalf("got %d balances, want 2", len(balances))
	}
	assertZeroSum(t, balances)

	if got := findBalance(t, balances, "alice", "USD").Amount; !got.Equal(money.MustParse("100.00")) {
		t.Errorf("alice balance = %s, want 100.00", got)
	}
	if got := findBalance(t, balances, "bob", "USD").Amount; !got.Equal(money.MustParse("-100.00")) {
		t.Errorf("bob balance = %s, want -100.00", got)
	}
}

func TestAggregatePayerOwnShare(t *testing.T) {
	// Alice pays 90 split three ways including herself: her own share
	// cancels against her credit.
	expenses := []Expense{
		{ID: "e1", PayerID: "alice", Amount: money.MustParse("90.00"), Currency: "USD"},
	}
	splits := []Split{
		{ExpenseID: "e1", UserID: "alice", Amount: money.MustParse("30.00")},
		{ExpenseID: "e1", UserID: "bob", Amount: money.MustParse("30.00")},
		{ExpenseID: "e1", UserID: "carol", Amount: money.MustParse("30.00")},
	}

	balances := Aggregate(expenses, splits, nil)
	assertZeroSum(t, balances)

	if got := findBalance(t, balances, "alice", "USD").Amount; !got.Equal(money.MustParse("60.00")) {
		t.Errorf("alice balance = %s, want 60.00", got)
	}
	if got := findBalance(t, balances, "bob", "USD").Amount; !got.Equal(money.MustParse("-30.00")) {
		t.Errorf("bob balance = %s, want -30.00", got)
	}
}

func TestAggregateCurrenciesNeverMerge(t *testing.T) {
	// Alice pays in two currencies; Bob owes both. Four balances, two per
	// currency, no netting across them.
	expenses := []Expense{
		{ID: "e1", PayerID: "alice", Amount: money.MustParse("100.00"), Currency: "USD"},
		{ID: "e2", PayerID: "alice", Amount: money.MustParse("50.00"), Currency: "EUR"},
	}
	splits := []Split{
		{ExpenseID: "e1", UserID: "bob", Amount: money.MustParse("100.00")},
		{ExpenseID: "e2", UserID: "bob", Amount: money.MustParse("50.00")},
	}

	balances := Aggregate(expenses, splits, nil)

	if len(balances) != 4 {
		t.Fatalf("got %d balances, want 4 (two users x two currencies)", len(balances))
	}
	assertZeroSum(t, balances)

	if got := findBalance(t, balances, "bob", "EUR").Amount; !got.Equal(money.MustParse("-50.00")) {
		t.Errorf("bob EUR balance = %s, want -50.00", got)
	}
	if got := findBalance(t, balances, "bob", "USD").Amount; !got.Equal(money.MustParse("-100.00")) {
		t.Errorf("bob USD balance = %s, want -100.00", got)
	}
}

func TestAggregateOpposingCurrencies(t *testing.T) {
	// Bob owes in USD but is owed in EUR; neither side shrinks the other.
	expenses := []Expense{
		{ID: "e1", PayerID: "alice", Amount: money.MustParse("20.00"), Currency: "USD"},
		{ID: "e2", PayerID: "bob", Amount: money.MustParse("20.00"), Currency: "EUR"},
	}
	splits := []Split{
		{ExpenseID: "e1", UserID: "bob", Amount: money.MustParse("20.00")},
		{ExpenseID: "e2", UserID: "alice", Amount: money.MustParse("20.00")},
	}

	balances := Aggregate(expenses, splits, nil)

	if len(balances) != 4 {
		t.Fatalf("got %d balances, want 4", len(balances))
	}
	if got := findBalance(t, balances, "bob", "USD").Amount; !got.Equal(money.MustParse("-20.00")) {
		t.Errorf("bob USD balance = %s, want -20.00", got)
	}
	if got := findBalance(t, balances, "bob", "EUR").Amount; !got.Equal(money.MustParse("20.00")) {
		t.Errorf("bob EUR balance = %s, want 20.00", got)
	}
}

func TestAggregateSettlements(t *testing.T) {
	expenses := []Expense{
		{ID: "e1", PayerID: "alice", Amount: money.MustParse("100.00"), Currency: "USD"},
	}
	splits := []Split{
		{ExpenseID: "e1", UserID: "bob", Amount: money.MustParse("100.00")},
	}

	t.Run("partial settlement shrinks the debt", func(t *testing.T) {
		settlements := []Settlement{
			{FromUserID: "bob", ToUserID: "alice", Amount: money.MustParse("40.00"), Currency: "USD"},
		}
		balances := Aggregate(expenses, splits, settlements)
		assertZeroSum(t, balances)
		if got := findBalance(t, balances, "bob", "USD").Amount; !got.Equal(money.MustParse("-60.00")) {
			t.Errorf("bob balance = %s, want -60.00", got)
		}
	})

	t.Run("full settlement empties the ledger", func(t *testing.T) {
		settlements := []Settlement{
			{FromUserID: "bob", ToUserID: "alice", Amount: money.MustParse("100.00"), Currency: "USD"},
		}
		balances := Aggregate(expenses, splits, settlements)
		if len(balances) != 0 {
			t.Errorf("got %d balances, want none: %v", len(balances), balances)
		}
	})

	t.Run("settlement in another currency opens a new ledger", func(t *testing.T) {
		settlements := []Settlement{
			{FromUserID: "bob", ToUserID: "alice", Amount: money.MustParse("100.00"), Currency: "EUR"},
		}
		balances := Aggregate(expenses, splits, settlements)
		if len(balances) != 4 {
			t.Fatalf("got %d balances, want 4", len(balances))
		}
		if got := findBalance(t, balances, "bob", "EUR").Amount; !got.Equal(money.MustParse("100.00")) {
			t.Errorf("bob EUR balance = %s, want 100.00", got)
		}
	})
}

func TestAggregateDefaultCurrency(t *testing.T) {
	// Records without a currency fold into the default ledger.
	expenses := []Expense{
		{ID: "e1", PayerID: "alice", Amount: money.MustParse("10.00")},
		{ID: "e2", PayerID: "alice", Amount: money.MustParse("10.00"), Currency: DefaultCurrency},
	}
	splits := []Split{
		{ExpenseID: "e1", UserID: "bob", Amount: money.MustParse("10.00")},
		{ExpenseID: "e2", UserID: "bob", Amount: money.MustParse("10.00")},
	}

	balances := Aggregate(expenses, splits, nil)

	if len(balances) != 2 {
		t.Fatalf("got %d balances, want 2", len(balances))
	}
	if got := findBalance(t, balances, "bob", DefaultCurrency).Amount; !got.Equal(money.MustParse("-20.00")) {
		t.Errorf("bob balance = %s, want -20.00", got)
	}
}

func TestAggregateMaterialityThreshold(t *testing.T) {
	t.Run("one cent net is retained", func(t *testing.T) {
		expenses := []Expense{
			{ID: "e1", PayerID: "alice", Amount: money.MustParse("0.01"), Currency: "USD"},
		}
		splits := []Split{
			{ExpenseID: "e1", UserID: "bob", Amount: money.MustParse("0.01")},
		}
		balances := Aggregate(expenses, splits, nil)
		if len(balances) != 2 {
			t.Fatalf("got %d balances, want 2", len(balances))
		}
	})

	t.Run("zero net is dropped", func(t *testing.T) {
		// Sub-cent values cannot survive Money construction
		// (FromFloat(0.004) is zero units), so a zero net is the only
		// immaterial case the fold can see.
		if !money.FromFloat(0.004).IsZero() {
			t.Fatal("expected 0.004 to round to zero minor units")
		}
		expenses := []Expense{
			{ID: "e1", PayerID: "alice", Amount: money.MustParse("5.00"), Currency: "USD"},
			{ID: "e2", PayerID: "bob", Amount: money.MustParse("5.00"), Currency: "USD"},
		}
		splits := []Split{
			{ExpenseID: "e1", UserID: "bob", Amount: money.MustParse("5.00")},
			{ExpenseID: "e2", UserID: "alice", Amount: money.MustParse("5.00")},
		}
		balances := Aggregate(expenses, splits, nil)
		if len(balances) != 0 {
			t.Errorf("got %d balances, want none: %v", len(balances), balances)
		}
	})
}

func TestAggregateOrphanSplitIgnored(t *testing.T) {
	splits := []Split{
		{ExpenseID: "missing", UserID: "bob", Amount: money.MustParse("10.00")},
	}
	if balances := Aggregate(nil, splits, nil); len(balances) != 0 {
		t.Errorf("orphan split produced balances: %v", balances)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	if balances := Aggregate(nil, nil, nil); len(balances) != 0 {
		t.Errorf("empty input produced balances: %v", balances)
	}
}

func TestAggregateDeterministicOrder(t *testing.T) {
	expenses := []Expense{
		{ID: "e1", PayerID: "zoe", Amount: money.MustParse("10.00"), Currency: "USD"},
		{ID: "e2", PayerID: "alice", Amount: money.MustParse("10.00"), Currency: "EUR"},
	}
	splits := []Split{
		{ExpenseID: "e1", UserID: "alice", Amount: money.MustParse("10.00")},
		{ExpenseID: "e2", UserID: "zoe", Amount: money.MustParse("10.00")},
	}

	first := Aggregate(expenses, splits, nil)
	for range 10 {
		again := Aggregate(expenses, splits, nil)
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("order not deterministic: %v vs %v", first, again)
			}
		}
	}

	// Sorted by currency, then user.
	want := []struct {
		userID   string
		currency CurrencyCode
	}{
		{"alice", "EUR"}, {"zoe", "EUR"}, {"alice", "USD"}, {"zoe", "USD"},
	}
	for i, w := range want {
		if first[i].UserID != w.userID || first[i].Currency != w.currency {
			t.Errorf("balance %d = %s/%s, want %s/%s",
				i, first[i].UserID, first[i].Currency, w.userID, w.currency)
		}
	}
}

func TestScopeTrip(t *testing.T) {
	expenses := []Expense{
		{ID: "e1", PayerID: "alice", Amount: money.MustParse("10.00"), TripID: "trip-1"},
		{ID: "e2", PayerID: "alice", Amount: money.MustParse("20.00")},
	}
	splits := []Split{
		{ExpenseID: "e1", UserID: "bob", Amount: money.MustParse("10.00")},
		{ExpenseID: "e2", UserID: "bob", Amount: money.MustParse("20.00")},
	}
	settlements := []Settlement{
		{FromUserID: "bob", ToUserID: "alice", Amount: money.MustParse("5.00"), TripID: "trip-1"},
		{FromUserID: "bob", ToUserID: "alice", Amount: money.MustParse("7.00")},
	}

	t.Run("trip scope folds only trip records", func(t *testing.T) {
		e, s, st := ScopeTrip("trip-1", expenses, splits, settlements)
		balances := Aggregate(e, s, st)
		if got := findBalance(t, balances, "bob", DefaultCurrency).Amount; !got.Equal(money.MustParse("-5.00")) {
			t.Errorf("trip-scoped bob balance = %s, want -5.00", got)
		}
	})

	t.Run("empty scope folds only trip-less records", func(t *testing.T) {
		e, s, st := ScopeTrip("", expenses, splits, settlements)
		balances := Aggregate(e, s, st)
		if got := findBalance(t, balances, "bob", DefaultCurrency).Amount; !got.Equal(money.MustParse("-13.00")) {
			t.Errorf("trip-less bob balance = %s, want -13.00", got)
		}
	})
}
