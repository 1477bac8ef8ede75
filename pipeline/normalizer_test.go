package pipeline

import (
	"testing"
	"time"

	"github.com/carelayer/triage/clinical"
)

func TestNormalizeEmptyRawResult(t *testing.T) {
	n := NormalizeRouterResult(RawResult{})

	if n.OK {
		t.Error("fully missing input should report OK=false")
	}
	if len(n.Errors) == 0 {
		t.Error("coercion errors should be recorded")
	}

	r := n.Result
	if r.UserInput != "" || r.SystemPrompt != "" {
		t.Error("missing strings should coerce to empty")
	}
	if r.EnhancedPrompt != SafeGuidancePrompt {
		t.Errorf("empty enhanced prompt should be replaced, got %q", r.EnhancedPrompt)
	}
	if r.IsHighRisk {
		t.Error("missing bool should coerce to false")
	}
	if r.Disclaimers == nil || r.Suggestions == nil || r.ATD == nil {
		t.Error("missing lists should coerce to empty slices, not nil")
	}
	if r.Metadata.IntentConfidence != 0 {
		t.Errorf("missing confidence should coerce to 0, got %v", r.Metadata.IntentConfidence)
	}
	if r.Metadata.Symptoms == nil {
		t.Error("symptoms should be an empty slice, not nil")
	}
}

func TestNormalizeWellFormedResult(t *testing.T) {
	raw := RawResult{
		UserInput:        "I have a headache",
		SystemPrompt:     "system",
		EnhancedPrompt:   "enhanced",
		IsHighRisk:       false,
		Disclaimers:      []string{"d1"},
		Suggestions:      []string{"s1"},
		ATD:              []string{},
		IntentConfidence: 0.7,
		TriageLevel:      clinical.NonUrgent,
		Symptoms:         []clinical.Symptom{{Name: "headache"}},
		ProcessingTime:   1500 * time.Microsecond,
		State:            StateNormalized,
	}

	n := NormalizeRouterResult(raw)
	if !n.OK {
		t.Errorf("well-formed input should pass cleanly, errors: %v", n.Errors)
	}
	if n.Result.EnhancedPrompt != "enhanced" {
		t.Errorf("EnhancedPrompt = %q", n.Result.EnhancedPrompt)
	}
	if n.Result.Metadata.TriageLevel != "non_urgent" {
		t.Errorf("TriageLevel = %q, want non_urgent", n.Result.Metadata.TriageLevel)
	}
	if n.Result.Metadata.State != "NORMALIZED" {
		t.Errorf("State = %q, want NORMALIZED", n.Result.Metadata.State)
	}
}

func TestNormalizeTruthinessCoercions(t *testing.T) {
	testCases := []struct {
		name  string
		value any
		want  bool
	}{
		{"Non-empty string", "yes", true},
		{"Empty string", "", false},
		{"Nonzero int", 3, true},
		{"Zero int", 0, false},
		{"Nonzero float", 0.5, true},
		{"Zero float", 0.0, false},
		{"Unknown type", struct{}{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n := NormalizeRouterResult(RawResult{IsHighRisk: tc.value})
			if n.Result.IsHighRisk != tc.want {
				t.Errorf("IsHighRisk(%v) = %v, want %v", tc.value, n.Result.IsHighRisk, tc.want)
			}
			if n.OK {
				t.Error("coerced bool should mark the result not OK")
			}
		})
	}
}

func TestNormalizeConfidenceClamping(t *testing.T) {
	n := NormalizeRouterResult(RawResult{IntentConfidence: 2.5})
	if n.Result.Metadata.IntentConfidence != 1 {
		t.Errorf("confidence above 1 should clamp to 1, got %v", n.Result.Metadata.IntentConfidence)
	}

	n = NormalizeRouterResult(RawResult{IntentConfidence: -0.4})
	if n.Result.Metadata.IntentConfidence != 0 {
		t.Errorf("negative confidence should clamp to 0, got %v", n.Result.Metadata.IntentConfidence)
	}
}

func TestNormalizeListCoercions(t *testing.T) {
	raw := RawResult{
		Disclaimers: []string{"keep", "", "also keep"},
		Suggestions: []any{"a", nil, "", 7},
		ATD:         "not a list",
	}

	n := NormalizeRouterResult(raw)

	if len(n.Result.Disclaimers) != 2 {
		t.Errorf("Disclaimers = %v, want empties dropped", n.Result.Disclaimers)
	}
	if len(n.Result.Suggestions) != 2 {
		t.Errorf("Suggestions = %v, want [a 7]", n.Result.Suggestions)
	}
	if len(n.Result.ATD) != 0 {
		t.Errorf("ATD = %v, want empty for a non-list", n.Result.ATD)
	}
}

func TestNormalizeNonStringPrompts(t *testing.T) {
	n := NormalizeRouterResult(RawResult{
		UserInput:      42,
		EnhancedPrompt: 7,
	})

	if n.Result.UserInput != "42" {
		t.Errorf("UserInput = %q, want stringified 42", n.Result.UserInput)
	}
	if n.Result.EnhancedPrompt != "7" {
		t.Errorf("EnhancedPrompt = %q, want stringified 7", n.Result.EnhancedPrompt)
	}
	if n.OK {
		t.Error("stringified fields should mark the result not OK")
	}
}

func TestNormalizeStageTimings(t *testing.T) {
	n := NormalizeRouterResult(RawResult{
		StageTimings: map[string]time.Duration{"parse": 2 * time.Millisecond},
	})

	if n.Result.Metadata.StageTimings["parse"] != "2ms" {
		t.Errorf("timings = %v, want parse rendered as 2ms", n.Result.Metadata.StageTimings)
	}
}
