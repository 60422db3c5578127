// Package metrics registers the service's prometheus collectors.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "billing_"

var (
	registerOnce sync.Once

	claimsSubmitted     *prometheus.CounterVec
	remittancesReceived *prometheus.CounterVec
	patientPayments     *prometheus.CounterVec
	requestLatency      *prometheus.HistogramVec
)

// Init registers all collectors with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		claimsSubmitted = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "claims_submitted_total",
				Help: "Claim submissions by result",
			},
			[]string{"result"},
		)
		remittancesReceived = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "remittances_total",
				Help: "Remittance notifications by result",
			},
			[]string{"result"},
		)
		patientPayments = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "patient_payments_total",
				Help: "Patient payment attempts by outcome",
			},
			[]string{"outcome"},
		)
		requestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_seconds",
				Help:    "HTTP request latency by route and status class",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		)

		prometheus.MustRegister(claimsSubmitted, remittancesReceived, patientPayments, requestLatency)
	})
}

// ObserveClaimSubmitted counts one claim submission.
func ObserveClaimSubmitted(result string) {
	if claimsSubmitted != nil {
		claimsSubmitted.WithLabelValues(strings.ToLower(result)).Inc()
	}
}

// ObserveRemittance counts one remittance notification.
func ObserveRemittance(result string) {
	if remittancesReceived != nil {
		remittancesReceived.WithLabelValues(strings.ToLower(result)).Inc()
	}
}

// ObservePatientPayment counts one patient payment attempt.
func ObservePatientPayment(outcome string) {
	if patientPayments != nil {
		patientPayments.WithLabelValues(strings.ToLower(outcome)).Inc()
	}
}

// ObserveRequest records one HTTP request's latency.
func ObserveRequest(route, status string, elapsed time.Duration) {
	if requestLatency != nil {
		requestLatency.WithLabelValues(route, status).Observe(elapsed.Seconds())
	}
}
