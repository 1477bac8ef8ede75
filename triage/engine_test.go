package triage

import (
	"testing"

	"github.com/carelayer/triage/clinical"
)

func contextWith(input string, symptoms ...clinical.Symptom) *clinical.LayerContext {
	ctx := clinical.NewLayerContext(input)
	ctx.SetSymptoms(symptoms)
	return ctx
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

func TestAssessCountsTiers(t *testing.T) {
	a := Assess([]clinical.Symptom{
		{Name: "headache", Severity: clinical.SeverityMild},
		{Name: "nausea", Severity: clinical.SeverityUnknown},
		{Name: "back pain", Severity: clinical.SeveritySevere},
		{Name: "chest pain", Severity: clinical.SeverityEmergency, Negated: true},
	})

	if a.Mild != 1 {
		t.Errorf("Mild = %d, want 1", a.Mild)
	}
	if a.Moderate != 1 {
		t.Errorf("unknown severity should count as moderate, Moderate = %d", a.Moderate)
	}
	if a.Severe != 1 {
		t.Errorf("Severe = %d, want 1", a.Severe)
	}
	if a.Emergency != 0 {
		t.Errorf("negated symptom counted, Emergency = %d", a.Emergency)
	}
	if a.Total != 3 {
		t.Errorf("Total = %d, want 3", a.Total)
	}
}

func TestPerformTriageLevels(t *testing.T) {
	testCases := []struct {
		name     string
		symptoms []clinical.Symptom
		want     clinical.TriageLevel
	}{
		{
			name: "No symptoms",
			want: clinical.NonUrgent,
		},
		{
			name:     "Single mild symptom",
			symptoms: []clinical.Symptom{{Name: "headache", Severity: clinical.SeverityMild}},
			want:     clinical.NonUrgent,
		},
		{
			name:     "Single moderate symptom alone",
			symptoms: []clinical.Symptom{{Name: "headache", Severity: clinical.SeverityModerate}},
			want:     clinical.NonUrgent,
		},
		{
			name: "Moderate plus company rounds up",
			symptoms: []clinical.Symptom{
				{Name: "headache", Severity: clinical.SeverityModerate},
				{Name: "nausea", Severity: clinical.SeverityMild},
			},
			want: clinical.Urgent,
		},
		{
			name: "Two moderates",
			symptoms: []clinical.Symptom{
				{Name: "headache", Severity: clinical.SeverityModerate},
				{Name: "abdominal pain", Severity: clinical.SeverityModerate},
			},
			want: clinical.Urgent,
		},
		{
			name:     "Single severe",
			symptoms: []clinical.Symptom{{Name: "back pain", Severity: clinical.SeveritySevere}},
			want:     clinical.Urgent,
		},
		{
			name:     "Single sharp",
			symptoms: []clinical.Symptom{{Name: "abdominal pain", Severity: clinical.SeveritySharp}},
			want:     clinical.Urgent,
		},
		{
			name:     "Emergency tier symptom",
			symptoms: []clinical.Symptom{{Name: "chest pain", Severity: clinical.SeverityEmergency}},
			want:     clinical.Emergency,
		},
		{
			name: "Negated emergency symptom is ignored",
			symptoms: []clinical.Symptom{
				{Name: "chest pain", Severity: clinical.SeverityEmergency, Negated: true},
				{Name: "headache", Severity: clinical.SeverityMild},
			},
			want: clinical.NonUrgent,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := PerformTriage(contextWith("test input", tc.symptoms...))
			if err != nil {
				t.Fatalf("PerformTriage() failed: %v", err)
			}
			if result.Level != tc.want {
				t.Errorf("level = %q, want %q (reasons: %v)", result.Level, tc.want, result.Reasons)
			}
			if len(result.Reasons) == 0 {
				t.Error("reasons must never be empty")
			}
		})
	}
}

func TestPerformTriageCrisisLanguage(t *testing.T) {
	// Crisis patterns run on raw text even when the parser extracted
	// nothing.
	result, err := PerformTriage(contextWith("I want to die"))
	if err != nil {
		t.Fatalf("PerformTriage() failed: %v", err)
	}

	if result.Level != clinical.Emergency {
		t.Errorf("level = %q, want emergency", result.Level)
	}
	if !hasFlag(result.CriticalFlags, FlagMentalHealthCrisis) {
		t.Errorf("flags = %v, want %s", result.CriticalFlags, FlagMentalHealthCrisis)
	}
}

func TestPerformTriageCrisisSymptomName(t *testing.T) {
	ctx := contextWith("help", clinical.Symptom{
		Name:     clinical.SymptomSuicidalIdeation,
		Severity: clinical.SeverityEmergency,
	})
	result, err := PerformTriage(ctx)
	if err != nil {
		t.Fatalf("PerformTriage() failed: %v", err)
	}

	if result.Level != clinical.Emergency {
		t.Errorf("level = %q, want emergency", result.Level)
	}
	if !hasFlag(result.CriticalFlags, FlagMentalHealthCrisis) {
		t.Errorf("flags = %v, want crisis flag", result.CriticalFlags)
	}
}

func TestPerformTriageConservativeRoundUpFlag(t *testing.T) {
	ctx := contextWith("test",
		clinical.Symptom{Name: "headache", Severity: clinical.SeverityModerate},
		clinical.Symptom{Name: "fatigue", Severity: clinical.SeverityMild},
	)
	result, err := PerformTriage(ctx)
	if err != nil {
		t.Fatalf("PerformTriage() failed: %v", err)
	}

	if result.Level != clinical.Urgent {
		t.Fatalf("level = %q, want urgent", result.Level)
	}
	if !hasFlag(result.CriticalFlags, FlagConservativeRoundUp) {
		t.Errorf("flags = %v, want round-up flag", result.CriticalFlags)
	}
}

func TestPerformTriageCardiorespiratoryPair(t *testing.T) {
	ctx := contextWith("test",
		clinical.Symptom{Name: "chest pain", Severity: clinical.SeverityModerate},
		clinical.Symptom{Name: "shortness of breath", Severity: clinical.SeverityModerate},
	)
	result, err := PerformTriage(ctx)
	if err != nil {
		t.Fatalf("PerformTriage() failed: %v", err)
	}

	if !hasFlag(result.CriticalFlags, FlagCardiorespiratory) {
		t.Errorf("flags = %v, want cardiorespiratory pair flag", result.CriticalFlags)
	}
	if result.Level != clinical.Urgent {
		t.Errorf("level = %q, want urgent for two moderates", result.Level)
	}
}

func TestPerformTriageMultipleSevereFlag(t *testing.T) {
	ctx := contextWith("test",
		clinical.Symptom{Name: "back pain", Severity: clinical.SeveritySevere},
		clinical.Symptom{Name: "abdominal pain", Severity: clinical.SeveritySharp},
	)
	result, err := PerformTriage(ctx)
	if err != nil {
		t.Fatalf("PerformTriage() failed: %v", err)
	}

	if !hasFlag(result.CriticalFlags, FlagMultipleSevere) {
		t.Errorf("flags = %v, want multiple severe flag", result.CriticalFlags)
	}
}

func TestPerformTriageSymptomNamesExcludeNegated(t *testing.T) {
	// SymptomNames lists active symptoms only; negated ones are dropped
	// before naming.
	ctx := contextWith("test",
		clinical.Symptom{Name: "headache", Severity: clinical.SeverityMild},
		clinical.Symptom{Name: "fever", Negated: true},
	)
	result, err := PerformTriage(ctx)
	if err != nil {
		t.Fatalf("PerformTriage() failed: %v", err)
	}

	if len(result.SymptomNames) != 1 || result.SymptomNames[0] != "headache" {
		t.Errorf("symptom names = %v, want [headache]", result.SymptomNames)
	}
}
