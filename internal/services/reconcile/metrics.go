package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconciliation metrics. "outcome" distinguishes applied writes from the
// expected no-op outcomes (replays, unknown transactions, unmapped statuses)
// so that replay noise never looks like an error rate.
var (
	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciler_notifications_total",
		Help: "Inbound gateway notifications processed, by type and outcome",
	}, []string{"type", "outcome"})

	settlementTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciler_settlement_transitions_total",
		Help: "Billing attempt status transitions applied from settlement notifications",
	}, []string{"from", "to"})

	chargebacksAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_chargebacks_applied_total",
		Help: "Chargebacks applied to billing attempts",
	})

	chargebackAnomaliesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_chargeback_amount_anomalies_total",
		Help: "Chargebacks whose amount classifies into a different billing model than the original charge",
	})
)

const (
	typeSettlement = "settlement"
	typeChargeback = "chargeback"

	outcomeApplied   = "applied"
	outcomeNoop      = "noop"
	outcomeUntracked = "untracked"
	outcomeSkipped   = "skipped"
	outcomeRejected  = "rejected"
)
