// Package metrics defines and registers the Prometheus metrics of the
// checkpoint service. Metrics are registered with the default registry on
// package init through promauto and exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "checkpoint"

// ── Token metrics ─────────────────────────────────────────────────────────────

// TokensIssuedTotal counts tokens sold to companies.
var TokensIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of prepaid tokens issued.",
	},
)

// TokenVerificationsTotal counts verification attempts.
// Label:
//   - result: invalid, mismatch, used, expired or valid
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of token verifications, by result.",
	},
	[]string{"result"},
)

// ── Ledger metrics ────────────────────────────────────────────────────────────

// VehicleLogsTotal counts appended vehicle log rows.
// Label:
//   - source: "entry" (manual payment) or "token" (redemption)
var VehicleLogsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vehicle_logs_total",
		Help:      "Total number of checkpoint crossings recorded.",
	},
	[]string{"source"},
)

// ── Report metrics ────────────────────────────────────────────────────────────

// ReportsGeneratedTotal counts rendered exports.
// Labels:
//   - kind: "revenue" or "officer_performance"
//   - format: excel, csv or pdf
var ReportsGeneratedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_generated_total",
		Help:      "Total number of report files rendered, by kind and format.",
	},
	[]string{"kind", "format"},
)

// ReportEmailsTotal counts report e-mail jobs by outcome.
// Label:
//   - result: queued, sent or failed
var ReportEmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "report_emails_total",
		Help:      "Total number of report e-mail jobs, by outcome.",
	},
	[]string{"result"},
)
