package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records outcomes of ledger mutations by operation.
type LedgerMetrics struct {
	success *prometheus.CounterVec
	failure *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operation_success",
		Help: "Successful ledger mutations.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operation_failure",
		Help: "Rejected or failed ledger mutations.",
	}, []string{"operation"})
	reg.MustRegister(success, failure)
	return &LedgerMetrics{
		success: success,
		failure: failure,
	}
}

// IncSuccess increments the success counter for the named operation.
func (l *LedgerMetrics) IncSuccess(operation string) {
	if l == nil || l.success == nil {
		return
	}
	l.success.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (l *LedgerMetrics) IncFailure(operation string) {
	if l == nil || l.failure == nil {
		return
	}
	l.failure.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}
