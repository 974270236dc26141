// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the launcher's Prometheus metrics. It implements
// auth.Recorder.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	CreditsTotal      *prometheus.CounterVec
	CreditedAmount    *prometheus.CounterVec
}

// NewMetrics creates and registers the launcher metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_operations_total",
				Help: "Total number of service operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "launcher_operation_duration_seconds",
				Help:    "Duration of service operations including all store calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		CreditsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_credits_total",
				Help: "Total number of successful currency credits by currency",
			},
			[]string{"currency"},
		),
		CreditedAmount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_credited_amount_total",
				Help: "Sum of credited currency by currency",
			},
			[]string{"currency"},
		),
	}

	reg.MustRegister(m.OperationsTotal, m.OperationDuration, m.CreditsTotal, m.CreditedAmount)
	return m
}

// RecordOperation counts one finished operation.
func (m *Metrics) RecordOperation(operation, result string, duration time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCredit counts one successful credit.
func (m *Metrics) RecordCredit(currency string, amount int32) {
	m.CreditsTotal.WithLabelValues(currency).Inc()
	m.CreditedAmount.WithLabelValues(currency).Add(float64(amount))
}
