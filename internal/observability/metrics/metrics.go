// Package metrics registers and exposes the Prometheus vectors for the
// settlement engine, grounded on
// internal/observability/metrics package (Init/registerOnce guarding a
// package-level prometheus.MustRegister, one CounterVec+HistogramVec
// pair per tracked operation, a single ObserveX/IncX accessor per pair)
// generalized from ingest/command/statement/alarm vectors to
// settlement/correction/inbox/outbox/process/reconciliation vectors.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "settleworkerd_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	settlementCalculateTotal   *prometheus.CounterVec
	settlementCalculateLatency *prometheus.HistogramVec
	settlementInvoiceTotal     *prometheus.CounterVec

	correctionTotal *prometheus.CounterVec

	inboxProcessedTotal *prometheus.CounterVec
	outboxSentTotal     *prometheus.CounterVec
	outboxSendAttempts  *prometheus.CounterVec

	processTransitionTotal *prometheus.CounterVec

	reconciliationRunsTotal  *prometheus.CounterVec
	reconciliationDeviation  *prometheus.GaugeVec
)

// Init registers every metrics vector exactly once.
func Init() {
	registerOnce.Do(func() {
		settlementCalculateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_calculate_total",
				Help: "Total settlement calculations by result",
			},
			[]string{"result"},
		)
		settlementCalculateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "settlement_calculate_latency_seconds",
				Help:    "Settlement calculation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		settlementInvoiceTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_invoice_total",
				Help: "Total settlements transitioned to Invoiced by result",
			},
			[]string{"result"},
		)

		correctionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "correction_total",
				Help: "Total correction settlements filed by result",
			},
			[]string{"result"},
		)

		inboxProcessedTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "inbox_processed_total",
				Help: "Total inbox messages processed by result",
			},
			[]string{"result"},
		)
		outboxSentTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "outbox_sent_total",
				Help: "Total outbox messages dispatched by result",
			},
			[]string{"result"},
		)
		outboxSendAttempts = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "outbox_send_attempts_total",
				Help: "Total outbox send attempts, including retries",
			},
			[]string{"result"},
		)

		processTransitionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "process_transition_total",
				Help: "Total BRS process state transitions by code and to-state",
			},
			[]string{"brs_code", "to_state"},
		)

		reconciliationRunsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconciliation_runs_total",
				Help: "Total reconciliation runs by status",
			},
			[]string{"status"},
		)
		reconciliationDeviation = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "reconciliation_difference_percent",
				Help: "Most recent reconciliation difference percent by grid area",
			},
			[]string{"grid_area"},
		)

		prometheus.MustRegister(
			settlementCalculateTotal,
			settlementCalculateLatency,
			settlementInvoiceTotal,
			correctionTotal,
			inboxProcessedTotal,
			outboxSentTotal,
			outboxSendAttempts,
			processTransitionTotal,
			reconciliationRunsTotal,
			reconciliationDeviation,
		)
	})
}

// ObserveSettlementCalculate records calculation latency and result.
func ObserveSettlementCalculate(result string, duration time.Duration) {
	result = orUnknown(result)
	if settlementCalculateTotal != nil {
		settlementCalculateTotal.WithLabelValues(result).Inc()
	}
	if settlementCalculateLatency != nil {
		settlementCalculateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncSettlementInvoiced increments the invoice transition counter.
func IncSettlementInvoiced(result string) {
	if settlementInvoiceTotal != nil {
		settlementInvoiceTotal.WithLabelValues(orUnknown(result)).Inc()
	}
}

// IncCorrection increments the correction counter.
func IncCorrection(result string) {
	if correctionTotal != nil {
		correctionTotal.WithLabelValues(orUnknown(result)).Inc()
	}
}

// IncInboxProcessed increments the inbox processing counter.
func IncInboxProcessed(result string) {
	if inboxProcessedTotal != nil {
		inboxProcessedTotal.WithLabelValues(orUnknown(result)).Inc()
	}
}

// IncOutboxSent increments the outbox dispatch counter.
func IncOutboxSent(result string) {
	if outboxSentTotal != nil {
		outboxSentTotal.WithLabelValues(orUnknown(result)).Inc()
	}
	if outboxSendAttempts != nil {
		outboxSendAttempts.WithLabelValues(orUnknown(result)).Inc()
	}
}

// IncProcessTransition increments the BRS process transition counter.
func IncProcessTransition(brsCode, toState string) {
	if processTransitionTotal != nil {
		processTransitionTotal.WithLabelValues(orUnknown(brsCode), orUnknown(toState)).Inc()
	}
}

// ObserveReconciliation records a reconciliation run's status and
// difference percent for the given grid area.
func ObserveReconciliation(gridArea, status string, differencePercent float64) {
	if reconciliationRunsTotal != nil {
		reconciliationRunsTotal.WithLabelValues(orUnknown(status)).Inc()
	}
	if reconciliationDeviation != nil {
		reconciliationDeviation.WithLabelValues(orUnknown(gridArea)).Set(differencePercent)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
