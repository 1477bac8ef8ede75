// Package fallback produces pre-approved safe responses for turns where
// an AI answer was blocked, failed, or cannot be trusted. Every reason
// yields a non-empty response and disclaimer; there is no empty output
// path.
package fallback

import "github.com/carelayer/triage/clinical"

// Reason identifies why a fallback is being generated.
type Reason string

const (
	ReasonAIFailure      Reason = "ai_failure"
	ReasonSafetyConcern  Reason = "safety_concern"
	ReasonAmbiguousInput Reason = "ambiguous_input"
	ReasonTechnicalError Reason = "technical_error"
)

// Request carries everything the engine needs to pick a response.
type Request struct {
	OriginalQuery  string
	Reason         Reason
	TriageLevel    clinical.TriageLevel
	IsEmergency    bool
	IsMentalHealth bool
}

// Response is a canned, safety-reviewed substitute for an AI answer.
type Response struct {
	Response                  string   `json:"response"`
	Disclaimer                string   `json:"disclaimer"`
	Suggestions               []string `json:"suggestions"`
	RequiresHumanIntervention bool     `json:"requiresHumanIntervention"`
}

const (
	fallbackDisclaimer = "This is a general safety message, not medical advice. " +
		"Please consult a qualified healthcare provider."

	emergencyBody = "Based on what you described, this could be an emergency. " +
		"Please contact emergency services or go to the nearest emergency department right away rather than waiting for an online answer."
	crisisBody = "Thank you for reaching out. What you are feeling matters, and you do not have to face it alone. " +
		"Please contact a crisis line right now - in the US you can call or text 988 - or reach your local emergency number."
)

var reasonBodies = map[Reason]string{
	ReasonAIFailure: "We could not generate a reliable answer for your question just now. " +
		"For anything concerning your health, a clinician is the safest source of guidance.",
	ReasonSafetyConcern: "We are not able to provide an AI-generated answer for this question. " +
		"Please discuss it directly with a healthcare provider who can review your full situation.",
	ReasonAmbiguousInput: "We could not confidently understand your question. " +
		"Try describing your main symptom, when it started, and how severe it feels.",
	ReasonTechnicalError: "Something went wrong on our side while handling your question. " +
		"Please try again shortly, and see a healthcare provider if your symptoms are worrying you.",
}

var reasonSuggestions = map[Reason][]string{
	ReasonAIFailure:      {"Try rephrasing your question", "Contact your healthcare provider"},
	ReasonSafetyConcern:  {"Speak with a healthcare provider", "Seek urgent care if symptoms worsen"},
	ReasonAmbiguousInput: {"Describe your main symptom", "Mention when it started", "Mention how severe it feels"},
	ReasonTechnicalError: {"Try again in a moment", "Contact your healthcare provider if concerned"},
}

// Generate builds the fallback for a blocked or failed turn. Emergency
// and crisis conditions override the per-reason body; unknown reasons
// fall back to the technical-error body so the output is never empty.
func Generate(req Request) Response {
	body, ok := reasonBodies[req.Reason]
	if !ok {
		body = reasonBodies[ReasonTechnicalError]
	}
	suggestions := reasonSuggestions[req.Reason]
	if suggestions == nil {
		suggestions = reasonSuggestions[ReasonTechnicalError]
	}

	switch {
	case req.IsMentalHealth:
		body = crisisBody
		suggestions = []string{"Call or text 988 (US)", "Reach out to someone you trust"}
	case req.IsEmergency || req.TriageLevel == clinical.Emergency:
		body = emergencyBody
		suggestions = []string{"Contact emergency services now"}
	}

	return Response{
		Response:                  body,
		Disclaimer:                fallbackDisclaimer,
		Suggestions:               suggestions,
		RequiresHumanIntervention: req.IsEmergency || req.IsMentalHealth,
	}
}
