package clinical

import (
	"testing"
	"time"
)

func TestCanonicalizeInput(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"Trims whitespace", "  chest pain  ", "chest pain"},
		{"Newlines become spaces", "chest\npain", "chest pain"},
		{"Tabs become spaces", "chest\tpain", "chest pain"},
		{"Control characters dropped", "chest\x00\x07 pain", "chest pain"},
		{"Empty input", "", ""},
		{"Only whitespace", "  \n\t ", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanonicalizeInput(tc.input); got != tc.want {
				t.Errorf("CanonicalizeInput(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNewLayerContextDefaults(t *testing.T) {
	c := NewLayerContext("  hello ")

	if c.UserInput != "hello" {
		t.Errorf("UserInput = %q, want %q", c.UserInput, "hello")
	}
	if c.Triage.Level != NonUrgent {
		t.Errorf("initial triage level = %q, want %q", c.Triage.Level, NonUrgent)
	}
	if c.Triage.Reasons == nil || c.Triage.SymptomNames == nil {
		t.Error("initial triage slices should be empty, not nil")
	}
	if c.Metadata.StageTimings == nil {
		t.Error("StageTimings map should be initialized")
	}
}

func TestSetIntentClampsConfidence(t *testing.T) {
	c := NewLayerContext("x")

	c.SetIntent(Intent{Type: IntentGeneral, Confidence: 1.7})
	if c.Intent.Confidence != 1 {
		t.Errorf("confidence above 1 should clamp to 1, got %v", c.Intent.Confidence)
	}

	c.SetIntent(Intent{Type: IntentGeneral, Confidence: -0.2})
	if c.Intent.Confidence != 0 {
		t.Errorf("confidence below 0 should clamp to 0, got %v", c.Intent.Confidence)
	}
}

func TestApplyTriageNeverDowngradesEmergency(t *testing.T) {
	c := NewLayerContext("x")

	c.ApplyTriage(TriageResult{Level: Emergency, Reasons: []string{"crisis detected"}})
	if c.Triage.Level != Emergency {
		t.Fatalf("level = %q, want %q", c.Triage.Level, Emergency)
	}

	c.ApplyTriage(TriageResult{Level: NonUrgent, Reasons: []string{"no urgent indicators"}})
	if c.Triage.Level != Emergency {
		t.Errorf("emergency level was downgraded to %q", c.Triage.Level)
	}

	// Reasons from both merges are kept.
	if len(c.Triage.Reasons) != 2 {
		t.Errorf("reasons = %v, want both merge reasons retained", c.Triage.Reasons)
	}
}

func TestApplyTriageUpgrades(t *testing.T) {
	c := NewLayerContext("x")

	c.ApplyTriage(TriageResult{Level: Urgent})
	if c.Triage.Level != Urgent {
		t.Fatalf("level = %q, want %q", c.Triage.Level, Urgent)
	}

	c.ApplyTriage(TriageResult{Level: Emergency})
	if c.Triage.Level != Emergency {
		t.Errorf("level = %q, want %q", c.Triage.Level, Emergency)
	}
}

func TestApplyTriageDeduplicatesMergedFields(t *testing.T) {
	c := NewLayerContext("x")

	c.ApplyTriage(TriageResult{Level: Urgent, Reasons: []string{"a"}, CriticalFlags: []string{"f1"}})
	c.ApplyTriage(TriageResult{Level: Urgent, Reasons: []string{"a", "b"}, CriticalFlags: []string{"f1"}})

	if len(c.Triage.Reasons) != 2 {
		t.Errorf("reasons = %v, want deduplicated [a b]", c.Triage.Reasons)
	}
	if len(c.Triage.CriticalFlags) != 1 {
		t.Errorf("flags = %v, want deduplicated [f1]", c.Triage.CriticalFlags)
	}
}

func TestActiveSymptomsExcludesNegated(t *testing.T) {
	c := NewLayerContext("x")
	c.SetSymptoms([]Symptom{
		{Name: "fever"},
		{Name: "chest pain", Negated: true},
		{Name: "cough"},
	})

	active := c.ActiveSymptoms()
	if len(active) != 2 {
		t.Fatalf("got %d active symptoms, want 2", len(active))
	}
	for _, s := range active {
		if s.Negated {
			t.Errorf("negated symptom %q returned as active", s.Name)
		}
	}
}

func TestMaxSeverity(t *testing.T) {
	c := NewLayerContext("x")

	if got := c.MaxSeverity(); got != SeverityUnknown {
		t.Errorf("empty context MaxSeverity = %q, want unknown", got)
	}

	c.SetSymptoms([]Symptom{
		{Name: "headache", Severity: SeverityMild},
		{Name: "chest pain", Severity: SeverityEmergency, Negated: true},
		{Name: "nausea", Severity: SeverityModerate},
	})

	// The negated emergency symptom must not win.
	if got := c.MaxSeverity(); got != SeverityModerate {
		t.Errorf("MaxSeverity = %q, want %q", got, SeverityModerate)
	}
}

func TestRecordStageTiming(t *testing.T) {
	c := &LayerContext{}
	c.RecordStageTiming("parse", 5*time.Millisecond)

	if got := c.Metadata.StageTimings["parse"]; got != 5*time.Millisecond {
		t.Errorf("timing = %v, want 5ms", got)
	}
}

func TestTriageLevelOrdering(t *testing.T) {
	if !(NonUrgent.Rank() < Urgent.Rank() && Urgent.Rank() < Emergency.Rank()) {
		t.Error("triage levels must order non_urgent < urgent < emergency")
	}
	if MaxLevel(Urgent, Emergency) != Emergency {
		t.Error("MaxLevel should pick the higher level")
	}
	if MaxLevel(NonUrgent, Urgent) != Urgent {
		t.Error("MaxLevel should pick the higher level")
	}
}

func TestCrisisSymptomClassification(t *testing.T) {
	if !IsCrisisSymptom(SymptomSuicidalIdeation) {
		t.Error("suicidal ideation should be a crisis symptom")
	}
	if !IsCrisisSymptom(SymptomSelfHarm) {
		t.Error("self harm should be a crisis symptom")
	}
	if IsCrisisSymptom(SymptomDepression) {
		t.Error("depression alone is not a crisis symptom")
	}
	if !IsMentalHealthSymptom(SymptomDepression) {
		t.Error("depression should be a mental health symptom")
	}
}
