// Package metrics registers prometheus instrumentation for ledger
// operations and storage row counts.
package metrics

import (
	"database/sql"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

const prefix = "splitledger_"

var (
	// AggregationsTotal counts balance aggregations by outcome.
	AggregationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "aggregations_total",
			Help: "Balance aggregations performed",
		},
		[]string{"status"},
	)

	// SettlementPlansTotal counts settlement plan computations by outcome.
	SettlementPlansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "settlement_plans_total",
			Help: "Settlement plans computed",
		},
		[]string{"status"},
	)

	// PlanTransactions observes the size of computed settlement plans.
	PlanTransactions = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "plan_transactions",
			Help:    "Transactions per settlement plan",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		},
	)

	// SnapshotSeconds observes record snapshot load latency.
	SnapshotSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "snapshot_seconds",
			Help:    "Record snapshot load latency",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register installs the operation collectors on the default registry.
// Call once at startup.
func Register() {
	prometheus.MustRegister(AggregationsTotal, SettlementPlansTotal, PlanTransactions, SnapshotSeconds)
}

// RegisterDBMetrics exposes live row counts of the sqlite store.
func RegisterDBMetrics(db *sql.DB) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: prefix + "expenses_live",
			Help: "Non-deleted expense records",
		},
		func() float64 {
			return queryCount(db, "SELECT COUNT(*) FROM expenses WHERE deleted_at IS NULL")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: prefix + "settlements_total_rows",
			Help: "Settlement records",
		},
		func() float64 {
			return queryCount(db, "SELECT COUNT(*) FROM settlements")
		},
	))
}

func queryCount(db *sql.DB, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		slog.Warn("metrics query failed", "error", err)
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
