// Package atd aggregates the triage result and the independent
// emergency assessment into a clinical routing decision for the
// human-review collaborator.
package atd

import (
	"time"

	"github.com/carelayer/triage/clinical"
	"github.com/carelayer/triage/emergency"
)

// Priority score contributions. The score is an ordinal: higher is more
// urgent, but the numeric range is a per-deployment tunable and carries
// no cross-version meaning.
const (
	baseNonUrgent     = 10
	baseUrgent        = 40
	baseEmergency     = 80
	bumpDetectorFired = 15
	bumpCriticalFlag  = 10
	bumpPerSymptom    = 2
)

// criticalFlagThreshold is the number of critical safety flags that
// forces provider routing on its own.
const criticalFlagThreshold = 2

// Decision is the router's output.
type Decision struct {
	RouteToProvider bool                  `json:"routeToProvider"`
	PriorityScore   int                   `json:"priorityScore"`
	StructuredData  StructuredMedicalData `json:"structuredData"`
}

// StructuredMedicalData is a read-only snapshot assembled for a
// downstream human reviewer. It is never persisted by this core.
type StructuredMedicalData struct {
	PatientInfo         PatientInfo           `json:"patientInfo"`
	ChiefComplaint      string                `json:"chiefComplaint"`
	SymptomAnalysis     SymptomAnalysis       `json:"symptomAnalysis"`
	EmergencyAssessment emergency.Assessment  `json:"emergencyAssessment"`
	RiskAssessment      RiskAssessment        `json:"riskAssessment"`
	SystemContext       SystemContext         `json:"systemContext"`
}

type PatientInfo struct {
	Age  int    `json:"age,omitempty"`
	Sex  string `json:"sex,omitempty"`
	Role string `json:"role,omitempty"`
}

type SymptomAnalysis struct {
	Symptoms     []clinical.Symptom `json:"symptoms"`
	DeniedCount  int                `json:"deniedCount"`
	HighestTier  clinical.Severity  `json:"highestTier"`
	SymptomCount int                `json:"symptomCount"`
}

type RiskAssessment struct {
	TriageLevel   clinical.TriageLevel `json:"triageLevel"`
	Reasons       []string             `json:"reasons"`
	CriticalFlags []string             `json:"criticalFlags"`
}

type SystemContext struct {
	BodySystem  string    `json:"bodySystem,omitempty"`
	IntentType  string    `json:"intentType"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Route aggregates the triage result, the emergency assessment, and the
// raw query into a routing decision. Provider routing triggers on an
// urgent or emergency triage level, an independent detector fire, or
// two or more critical safety flags.
func Route(ctx *clinical.LayerContext, em emergency.Assessment) Decision {
	t := ctx.Triage

	route := t.Level == clinical.Urgent || t.Level == clinical.Emergency ||
		em.IsEmergency ||
		len(t.CriticalFlags) >= criticalFlagThreshold

	score := priorityScore(ctx, em)

	active := ctx.ActiveSymptoms()
	denied := len(ctx.Symptoms) - len(active)

	return Decision{
		RouteToProvider: route,
		PriorityScore:   score,
		StructuredData: StructuredMedicalData{
			PatientInfo:    patientInfo(ctx.Demographics),
			ChiefComplaint: chiefComplaint(ctx),
			SymptomAnalysis: SymptomAnalysis{
				Symptoms:     ctx.Symptoms,
				DeniedCount:  denied,
				HighestTier:  ctx.MaxSeverity(),
				SymptomCount: len(active),
			},
			EmergencyAssessment: em,
			RiskAssessment: RiskAssessment{
				TriageLevel:   t.Level,
				Reasons:       t.Reasons,
				CriticalFlags: t.CriticalFlags,
			},
			SystemContext: SystemContext{
				BodySystem:  ctx.Metadata.BodySystem,
				IntentType:  string(ctx.Intent.Type),
				GeneratedAt: time.Now().UTC(),
			},
		},
	}
}

func priorityScore(ctx *clinical.LayerContext, em emergency.Assessment) int {
	score := baseNonUrgent
	switch ctx.Triage.Level {
	case clinical.Urgent:
		score = baseUrgent
	case clinical.Emergency:
		score = baseEmergency
	}
	if em.IsEmergency {
		score += bumpDetectorFired
	}
	score += bumpCriticalFlag * len(ctx.Triage.CriticalFlags)
	score += bumpPerSymptom * len(ctx.ActiveSymptoms())
	return score
}

func patientInfo(d *clinical.Demographics) PatientInfo {
	if d == nil {
		return PatientInfo{}
	}
	return PatientInfo{Age: d.Age, Sex: d.Sex, Role: string(d.Role)}
}

// chiefComplaint picks the most severe active symptom, falling back to
// the raw query for symptom-free turns.
func chiefComplaint(ctx *clinical.LayerContext) string {
	best := ""
	bestRank := -1
	for _, s := range ctx.ActiveSymptoms() {
		if s.Severity.Rank() > bestRank {
			best = s.Name
			bestRank = s.Severity.Rank()
		}
	}
	if best == "" {
		return ctx.UserInput
	}
	return best
}
