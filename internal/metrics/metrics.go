// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ScenariosRendered counts rendered scenarios by trigger. The label set is
	// bounded by the scenario table, never by user input.
	ScenariosRendered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dormbot_scenarios_rendered_total",
			Help: "Scenarios rendered, by trigger.",
		},
		[]string{"trigger"},
	)

	Fallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dormbot_fallback_total",
			Help: "Inbound texts that matched no trigger.",
		},
	)

	DeliveryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dormbot_delivery_failures_total",
			Help: "Failed LINE API calls (push or reply).",
		},
		[]string{"kind"},
	)

	WebhookRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dormbot_webhook_rejected_total",
			Help: "Callbacks rejected before processing (signature or malformed).",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(ScenariosRendered)
	prometheus.MustRegister(Fallbacks)
	prometheus.MustRegister(DeliveryFailures)
	prometheus.MustRegister(WebhookRejected)
}
