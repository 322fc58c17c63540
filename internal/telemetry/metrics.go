package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor_checkout",
		Name:      "backend_requests_total",
		Help:      "Requests sent to the remote backend, by operation and result.",
	}, []string{"operation", "result"})

	BackendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "advisor_checkout",
		Name:      "backend_request_duration_seconds",
		Help:      "Remote backend round-trip latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	CheckoutTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor_checkout",
		Name:      "checkout_transitions_total",
		Help:      "Checkout orchestrator state transitions.",
	}, []string{"from", "to"})

	CheckoutOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor_checkout",
		Name:      "checkout_outcomes_total",
		Help:      "Checkout submissions by outcome.",
	}, []string{"outcome"})

	CouponApplications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor_checkout",
		Name:      "coupon_applications_total",
		Help:      "Coupon applications by outcome.",
	}, []string{"outcome"})

	PasswordResets = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor_checkout",
		Name:      "password_reset_requests_total",
		Help:      "Password reset requests by outcome.",
	}, []string{"outcome"})

	ActiveViews = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "advisor_checkout",
		Name:      "active_views",
		Help:      "Live checkout sessions and recovery views.",
	}, []string{"kind"})
)
