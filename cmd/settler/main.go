// Command settler reports the state of a group ledger: net balances, an
// optional two-party net, and the settlement plan that would clear the
// group.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/splitledger/splitledger/internal/ledger"
	"github.com/splitledger/splitledger/internal/metrics"
	"github.com/splitledger/splitledger/internal/money"
	"github.com/splitledger/splitledger/internal/service"
	"github.com/splitledger/splitledger/internal/storage/sqlite"
	"github.com/splitledger/splitledger/pkg/logging"
)

type config struct {
	dbPath   string
	groupID  string
	tripID   string
	pair     string
	currency string
	timeout  time.Duration
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.dbPath, "db", getEnv("DB_PATH", "./data/ledger.db"), "path to the sqlite database")
	flag.StringVar(&cfg.groupID, "group", "", "group to report on (required)")
	flag.StringVar(&cfg.tripID, "trip", "", "trip scope; empty selects trip-less records")
	flag.StringVar(&cfg.pair, "pair", "", "two user IDs as a:b to print their net balance")
	flag.StringVar(&cfg.currency, "currency", string(ledger.DefaultCurrency), "currency for the pairwise net")
	flag.DurationVar(&cfg.timeout, "timeout", 30*time.Second, "overall timeout")
	flag.Parse()
	return cfg
}

func main() {
	// .env is optional; flags and the environment win.
	_ = godotenv.Load()
	logging.Setup(logging.Options{})
	metrics.Register()

	cfg := parseFlags()
	if cfg.groupID == "" {
		fmt.Fprintln(os.Stderr, "usage: settler -group <id> [-trip <id>] [-pair a:b] [-db <path>]")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	store, err := sqlite.New(cfg.dbPath)
	if err != nil {
		slog.Error("Failed to open storage", "db", cfg.dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	metrics.RegisterDBMetrics(store.DB())
	slog.Info("Storage opened", "db", cfg.dbPath)

	svc := service.New(store)

	if err := report(ctx, svc, cfg); err != nil {
		slog.Error("Report failed", "group_id", cfg.groupID, "error", err)
		os.Exit(1)
	}
}

func report(ctx context.Context, svc *service.Service, cfg config) error {
	balances, err := svc.Balances(ctx, cfg.groupID, cfg.tripID)
	if err != nil {
		return err
	}
	for _, b := range balances {
		slog.Info("Balance",
			"user_id", b.UserID,
			"currency", b.Currency,
			"amount", b.Amount.String(),
		)
	}
	if len(balances) == 0 {
		slog.Info("Ledger is settled", "group_id", cfg.groupID, "trip_id", cfg.tripID)
		return nil
	}

	if cfg.pair != "" {
		userA, userB, ok := strings.Cut(cfg.pair, ":")
		if !ok || userA == "" || userB == "" {
			return fmt.Errorf("invalid -pair %q, want a:b", cfg.pair)
		}
		net, err := svc.NetBalance(ctx, cfg.groupID, cfg.tripID, userA, userB, ledger.CurrencyCode(cfg.currency))
		if err != nil {
			return err
		}
		slog.Info("Pairwise net",
			"user_a", userA,
			"user_b", userB,
			"currency", cfg.currency,
			"amount", net.String(),
			"meaning", pairMeaning(net, userA, userB),
		)
	}

	plan, err := svc.SettlementPlan(ctx, cfg.groupID, cfg.tripID)
	if err != nil {
		return err
	}
	for i, txn := range plan {
		slog.Info("Suggested payment",
			"step", i+1,
			"from", txn.FromUserID,
			"to", txn.ToUserID,
			"amount", txn.Amount.String(),
			"currency", txn.Currency,
		)
	}
	return nil
}

func pairMeaning(net money.Money, userA, userB string) string {
	switch {
	case net.IsZero():
		return "settled"
	case net.IsPositive():
		return fmt.Sprintf("%s owes %s", userB, userA)
	default:
		return fmt.Sprintf("%s owes %s", userA, userB)
	}
}
