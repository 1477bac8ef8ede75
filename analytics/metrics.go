package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_pipeline_turns_total",
			Help: "Total pipeline invocations by triage level and outcome",
		},
		[]string{"triage_level", "outcome"},
	)

	emergencyDetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_emergency_detections_total",
			Help: "Total independent emergency detector fires by category",
		},
		[]string{"category"},
	)

	aiBlockedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "triage_ai_blocked_total",
			Help: "Total turns where the AI response was blocked for safety",
		},
	)

	providerRoutedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "triage_provider_routed_total",
			Help: "Total turns routed to a human provider",
		},
	)
)

// ObservePipelineOutcome counts one pipeline turn.
func ObservePipelineOutcome(triageLevel string, failed bool) {
	outcome := "normalized"
	if failed {
		outcome = "fallback"
	}
	pipelineTurnsTotal.WithLabelValues(triageLevel, outcome).Inc()
}

// ObserveEmergencyDetection counts one detector fire.
func ObserveEmergencyDetection(category string) {
	emergencyDetectionsTotal.WithLabelValues(category).Inc()
}

// ObserveAIBlocked counts one blocked AI turn.
func ObserveAIBlocked() {
	aiBlockedTotal.Inc()
}

// ObserveProviderRouted counts one provider-routed turn.
func ObserveProviderRouted() {
	providerRoutedTotal.Inc()
}
