package pipeline

import (
	"time"

	"github.com/carelayer/triage/clinical"
)

// SafeGuidancePrompt is the fixed prompt used whenever a real enhanced
// prompt is unavailable. It steers the model toward low-risk general
// guidance.
const SafeGuidancePrompt = "Provide brief, low-risk general health guidance. Do not diagnose. " +
	"Recommend consulting a qualified healthcare provider for any specific concern."

// LayeredResponse is the wire contract returned to the UI collaborator.
// Every field has a non-null, correctly typed default; this is the only
// entity guaranteed to exist after every invocation regardless of
// internal failure.
type LayeredResponse struct {
	UserInput      string           `json:"userInput"`
	EnhancedPrompt string           `json:"enhancedPrompt"`
	SystemPrompt   string           `json:"systemPrompt"`
	IsHighRisk     bool             `json:"isHighRisk"`
	Disclaimers    []string         `json:"disclaimers"`
	Suggestions    []string         `json:"suggestions"`
	Metadata       ResponseMetadata `json:"metadata"`
	ATD            []string         `json:"atd"`
}

// ResponseMetadata carries diagnostics about how the response was built.
type ResponseMetadata struct {
	ProcessingTime   string             `json:"processingTime"`
	IntentConfidence float64            `json:"intentConfidence"`
	TriageLevel      string             `json:"triageLevel,omitempty"`
	Symptoms         []clinical.Symptom `json:"symptoms,omitempty"`
	StageTimings     map[string]string  `json:"stageTimings,omitempty"`
	State            string             `json:"state,omitempty"`
}

// RawResult is the untrusted intermediate that stages hand to the
// normalizer. Its loosely typed fields model partial results from a
// failed pipeline run; nothing outside this package ever sees one.
type RawResult struct {
	UserInput        any
	SystemPrompt     any
	EnhancedPrompt   any
	IsHighRisk       any
	Disclaimers      any
	Suggestions      any
	ATD              any
	IntentConfidence any
	TriageLevel      any
	Symptoms         []clinical.Symptom
	ProcessingTime   time.Duration
	StageTimings     map[string]time.Duration
	State            State
}
