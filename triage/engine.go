// Package triage maps extracted symptoms and crisis patterns to an
// urgency level. Under-triage is the unsafe failure mode, so every
// ambiguity in this package resolves upward: unknown severities count as
// moderate and boundary ties round up one level, never down.
package triage

import (
	"fmt"
	"regexp"

	"github.com/carelayer/triage/clinical"
)

// Critical safety flags attached to triage results. The ATD router
// treats two or more of these as grounds for provider routing on its own.
const (
	FlagMentalHealthCrisis  = "mental_health_crisis"
	FlagEmergencyTier       = "emergency_tier_symptom"
	FlagMultipleSevere      = "multiple_severe_symptoms"
	FlagCardiorespiratory   = "cardiorespiratory_pair"
	FlagConservativeRoundUp = "conservative_round_up"
)

// crisisPatterns run against the raw text in addition to the parsed
// symptom list, so a parser miss cannot hide suicidal or homicidal
// ideation from triage.
var crisisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsuicid`),
	regexp.MustCompile(`(?i)\bkill (?:myself|themselves|himself|herself)\b`),
	regexp.MustCompile(`(?i)\bend (?:my|their) life\b`),
	regexp.MustCompile(`(?i)\bwant(?:s)? to die\b`),
	regexp.MustCompile(`(?i)\bhomicid`),
	regexp.MustCompile(`(?i)\bhurt (?:myself|someone)\b`),
}

// SeverityAssessment is the per-tier census of non-negated symptoms.
// Unknown severities are counted in the moderate tier.
type SeverityAssessment struct {
	Mild      int
	Moderate  int
	Severe    int
	Sharp     int
	Emergency int
	Total     int
}

// Assess counts non-negated symptoms into severity tiers.
func Assess(symptoms []clinical.Symptom) SeverityAssessment {
	var a SeverityAssessment
	for _, s := range symptoms {
		if s.Negated {
			continue
		}
		a.Total++
		switch s.Severity {
		case clinical.SeverityMild:
			a.Mild++
		case clinical.SeveritySevere:
			a.Severe++
		case clinical.SeveritySharp:
			a.Sharp++
		case clinical.SeverityEmergency:
			a.Emergency++
		default:
			// Unknown severity rounds up to moderate.
			a.Moderate++
		}
	}
	return a
}

// PerformTriage classifies a turn. Rules, highest first:
//
//   - any emergency-tier symptom or a crisis pattern in the raw text
//     yields Emergency;
//   - any severe or sharp symptom, or two or more moderate symptoms,
//     yields Urgent;
//   - a single moderate symptom accompanied by any other complaint sits
//     on the urgent boundary and rounds up to Urgent;
//   - everything else is NonUrgent.
//
// Negated symptoms never contribute. The error return exists for
// orchestrator uniformity; classification itself cannot fail.
func PerformTriage(ctx *clinical.LayerContext) (clinical.TriageResult, error) {
	active := ctx.ActiveSymptoms()
	assessment := Assess(active)

	result := clinical.TriageResult{
		Level:        clinical.NonUrgent,
		Reasons:      []string{},
		SymptomNames: symptomNames(active),
	}

	crisis := hasCrisis(ctx.UserInput, active)
	if crisis {
		result.Level = clinical.Emergency
		result.Reasons = append(result.Reasons, "mental health crisis language detected")
		result.CriticalFlags = append(result.CriticalFlags, FlagMentalHealthCrisis)
	}

	if assessment.Emergency > 0 {
		result.Level = clinical.Emergency
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("%d emergency-tier symptom(s) reported", assessment.Emergency))
		result.CriticalFlags = append(result.CriticalFlags, FlagEmergencyTier)
	}

	if result.Level != clinical.Emergency {
		switch {
		case assessment.Severe+assessment.Sharp > 0:
			result.Level = clinical.Urgent
			result.Reasons = append(result.Reasons,
				fmt.Sprintf("%d severe or sharp symptom(s) reported", assessment.Severe+assessment.Sharp))
		case assessment.Moderate >= 2:
			result.Level = clinical.Urgent
			result.Reasons = append(result.Reasons,
				fmt.Sprintf("%d moderate symptoms reported together", assessment.Moderate))
		case assessment.Moderate == 1 && assessment.Total >= 2:
			// Boundary tie: one moderate complaint plus company. Round up.
			result.Level = clinical.Urgent
			result.Reasons = append(result.Reasons,
				"moderate symptom with additional complaints, rounded up")
			result.CriticalFlags = append(result.CriticalFlags, FlagConservativeRoundUp)
		default:
			result.Reasons = append(result.Reasons, "no urgent indicators found")
		}
	}

	if assessment.Severe+assessment.Sharp >= 2 {
		result.CriticalFlags = append(result.CriticalFlags, FlagMultipleSevere)
	}
	if hasCardiorespiratoryPair(active) {
		result.CriticalFlags = append(result.CriticalFlags, FlagCardiorespiratory)
	}

	return result, nil
}

func hasCrisis(rawText string, symptoms []clinical.Symptom) bool {
	for _, s := range symptoms {
		if clinical.IsCrisisSymptom(s.Name) {
			return true
		}
	}
	for _, p := range crisisPatterns {
		if p.MatchString(rawText) {
			return true
		}
	}
	return false
}

// hasCardiorespiratoryPair reports chest pain and breathing difficulty
// occurring together, a pairing treated as critical regardless of the
// individual severities.
func hasCardiorespiratoryPair(symptoms []clinical.Symptom) bool {
	var chest, breath bool
	for _, s := range symptoms {
		switch s.Name {
		case "chest pain":
			chest = true
		case "shortness of breath":
			breath = true
		}
	}
	return chest && breath
}

func symptomNames(symptoms []clinical.Symptom) []string {
	names := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		names = append(names, s.Name)
	}
	return names
}
