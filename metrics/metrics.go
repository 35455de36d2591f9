// Package metrics holds the prometheus collectors of the vending engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Purchases counts finished purchase sagas by outcome
// (success, client_input, price_failed, stock_failed, payment_failed).
var Purchases = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vending_purchases_total",
		Help: "Total number of purchase sagas by outcome",
	},
	[]string{"outcome"},
)

// Compensations counts compensating stock restores by result (ok, failed).
var Compensations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vending_compensations_total",
		Help: "Total number of compensating stock restores by result",
	},
	[]string{"result"},
)

// IdempotentCalls counts idempotency cache calls by service and how they were
// served (executed, replayed, retried).
var IdempotentCalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vending_idempotent_calls_total",
		Help: "Total number of idempotent calls by service and outcome",
	},
	[]string{"service", "outcome"},
)

// LaneJobs counts jobs submitted to each mutation lane.
var LaneJobs = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vending_lane_jobs_total",
		Help: "Total number of jobs submitted to a mutation lane",
	},
	[]string{"lane"},
)

// BankBalance tracks the value held by the bank after the last deposit.
var BankBalance = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "vending_bank_balance",
		Help: "Total value of tokens held by the bank",
	},
)

// BankTokens tracks how many tokens of each denomination the bank holds.
// Sampled periodically, not on every deposit.
var BankTokens = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "vending_bank_tokens",
		Help: "Number of tokens held by the bank per denomination",
	},
	[]string{"denomination"},
)

// StockLevels tracks the sampled quantity of each item.
var StockLevels = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "vending_stock_level",
		Help: "Units in stock per item",
	},
	[]string{"item"},
)

// PendingCompensations tracks the number of failed compensations awaiting
// an operator.
var PendingCompensations = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "vending_failed_compensations",
		Help: "Number of failed compensations recorded in the journal",
	},
)

func init() {
	prometheus.MustRegister(
		Purchases,
		Compensations,
		IdempotentCalls,
		LaneJobs,
		BankBalance,
		BankTokens,
		StockLevels,
		PendingCompensations,
	)
}
