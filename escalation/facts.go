package escalation

import (
	"github.com/carelayer/triage/clinical"
	"github.com/carelayer/triage/emergency"
)

// Fact document roots available to rule expressions. The schema is
// fixed: the pipeline owns the fact shape, deployments only write
// expressions over it.
const (
	FactTriage    = "Triage"
	FactEmergency = "Emergency"
	FactQuery     = "Query"
)

// BuildFacts flattens pipeline output into the CEL fact document.
// Example expressions over it:
//
//	Triage.Level == "urgent" && Emergency.IsEmergency
//	Query.SymptomCount >= 3 && Triage.Level != "emergency"
func BuildFacts(ctx *clinical.LayerContext, em emergency.Assessment) map[string]any {
	active := ctx.ActiveSymptoms()
	names := make([]any, 0, len(active))
	for _, s := range active {
		names = append(names, s.Name)
	}

	return map[string]any{
		FactTriage: map[string]any{
			"Level":         string(ctx.Triage.Level),
			"Reasons":       toAnyList(ctx.Triage.Reasons),
			"CriticalFlags": toAnyList(ctx.Triage.CriticalFlags),
			"FlagCount":     len(ctx.Triage.CriticalFlags),
		},
		FactEmergency: map[string]any{
			"IsEmergency": em.IsEmergency,
			"Type":        em.EmergencyType,
			"Severity":    em.Severity,
		},
		FactQuery: map[string]any{
			"SymptomCount":     len(active),
			"SymptomNames":     names,
			"MaxSeverity":      string(ctx.MaxSeverity()),
			"IntentType":       string(ctx.Intent.Type),
			"IntentConfidence": ctx.Intent.Confidence,
			"BodySystem":       ctx.Metadata.BodySystem,
		},
	}
}

func toAnyList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
