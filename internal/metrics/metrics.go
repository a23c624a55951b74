// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kpr"

// Calculations counts simulator and affordability runs by kind and outcome.
var Calculations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "calculations_total",
	Help:      "Loan calculations by kind (simulate, affordability, schedule) and result.",
}, []string{"kind", "result"})

// WizardTransitions counts draft actions.
var WizardTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "wizard_transitions_total",
	Help:      "Wizard draft actions by name.",
}, []string{"action"})

// DraftsDiscarded counts drafts dropped by the session guard.
var DraftsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "wizard_drafts_discarded_total",
	Help:      "Drafts reset because they belonged to another user or property.",
})

// ApplicationsSubmitted counts successful submissions.
var ApplicationsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "applications_submitted_total",
	Help:      "Loan applications submitted.",
})

// OTPIssued counts one-time passwords sent, by purpose.
var OTPIssued = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "otp_issued_total",
	Help:      "One-time passwords issued by purpose.",
}, []string{"purpose"})

// RateCatalogReloads counts catalog reload attempts by result.
var RateCatalogReloads = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "rate_catalog_reloads_total",
	Help:      "Interest-rate catalog reloads by result.",
}, []string{"result"})

// HTTPRequestDuration observes request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request latency by method, route and status.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
