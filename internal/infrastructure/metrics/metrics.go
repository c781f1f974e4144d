package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application-level Prometheus metrics. HTTP-level
// request metrics are recorded by the router middleware.
type Metrics struct {
	// Transaction metrics
	TransactionsCreated  *prometheus.CounterVec
	TransactionsReversed prometheus.Counter
	TransactionErrors    *prometheus.CounterVec
	TransactionAmount    *prometheus.HistogramVec

	// Account metrics
	AccountsCreated     prometheus.Counter
	AccountsDeactivated prometheus.Counter

	// Rollback request metrics
	RollbackRequestsSubmitted prometheus.Counter
	RollbackRequestsDecided   *prometheus.CounterVec

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TransactionsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digibank_transactions_created_total",
				Help: "Total number of transactions created by type",
			},
			[]string{"type"},
		),
		TransactionsReversed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "digibank_transactions_reversed_total",
			Help: "Total number of transactions reversed",
		}),
		TransactionErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digibank_transaction_errors_total",
				Help: "Total number of transaction errors by type",
			},
			[]string{"error_type"},
		),
		TransactionAmount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "digibank_transaction_amount",
				Help:    "Transaction amounts by type",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"type"},
		),

		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "digibank_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountsDeactivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "digibank_accounts_deactivated_total",
			Help: "Total number of accounts deactivated",
		}),

		RollbackRequestsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "digibank_rollback_requests_submitted_total",
			Help: "Total number of rollback requests submitted",
		}),
		RollbackRequestsDecided: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digibank_rollback_requests_decided_total",
				Help: "Total rollback request decisions by outcome",
			},
			[]string{"decision"},
		),

		AuthAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digibank_auth_attempts_total",
				Help: "Total authentication attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}
