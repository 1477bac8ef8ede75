// Package parser extracts structured symptom entities and an intent
// classification from raw user text. Extraction is keyword and pattern
// based with no external calls: it is synchronous and its only failure
// mode is returning an empty result, which keeps the safety-critical
// path free of latency and dependency risk.
package parser

import (
	"regexp"
	"strings"

	"github.com/carelayer/triage/clinical"
)

// ParseResult is the parser's complete output for one turn.
type ParseResult struct {
	Intent     clinical.Intent
	Symptoms   []clinical.Symptom
	BodySystem string
}

// symptomEntry describes one recognizable symptom: its canonical name,
// the phrases that surface it, the body system it belongs to, whether it
// is a red flag (severe/sharp qualifiers escalate it to emergency tier),
// and an intrinsic severity that applies regardless of qualifiers.
type symptomEntry struct {
	name      string
	aliases   []string
	system    string
	redFlag   bool
	intrinsic clinical.Severity
}

var symptomCatalog = []symptomEntry{
	{name: clinical.SymptomSuicidalIdeation, system: "mental_health", intrinsic: clinical.SeverityEmergency,
		aliases: []string{"suicidal", "suicide", "kill myself", "end my life", "want to die", "better off dead"}},
	{name: clinical.SymptomHomicidalIdeation, system: "mental_health", intrinsic: clinical.SeverityEmergency,
		aliases: []string{"homicidal", "kill someone", "hurt someone"}},
	{name: clinical.SymptomSelfHarm, system: "mental_health", intrinsic: clinical.SeverityEmergency,
		aliases: []string{"hurt myself", "harm myself", "cutting myself", "self harm", "self-harm"}},
	{name: "loss of consciousness", system: "neurological", intrinsic: clinical.SeverityEmergency,
		aliases: []string{"loss of consciousness", "passed out", "blacked out", "fainted", "unconscious"}},
	{name: "seizure", system: "neurological", intrinsic: clinical.SeverityEmergency,
		aliases: []string{"seizure", "convulsion"}},
	{name: "chest pain", system: "cardiovascular", redFlag: true,
		aliases: []string{"chest pain", "chest pressure", "chest tightness", "pain in my chest"}},
	{name: "shortness of breath", system: "respiratory", redFlag: true,
		aliases: []string{"shortness of breath", "short of breath", "difficulty breathing", "trouble breathing", "can't breathe", "cannot breathe", "struggling to breathe"}},
	{name: "palpitations", system: "cardiovascular", redFlag: true,
		aliases: []string{"palpitations", "heart racing", "irregular heartbeat"}},
	{name: "bleeding", system: "trauma", redFlag: true,
		aliases: []string{"bleeding", "blood loss", "coughing up blood", "vomiting blood"}},
	{name: "numbness", system: "neurological", redFlag: true,
		aliases: []string{"numbness", "numb", "tingling", "can't feel"}},
	{name: "confusion", system: "neurological", redFlag: true,
		aliases: []string{"confusion", "confused", "disoriented", "slurred speech"}},
	{name: "headache", system: "neurological",
		aliases: []string{"headache", "migraine", "head hurts", "head is pounding"}},
	{name: "dizziness", system: "neurological",
		aliases: []string{"dizziness", "dizzy", "lightheaded", "light-headed", "vertigo"}},
	{name: "abdominal pain", system: "gastrointestinal",
		aliases: []string{"abdominal pain", "stomach pain", "stomach ache", "stomachache", "belly pain", "pain in my stomach"}},
	{name: "nausea", system: "gastrointestinal",
		aliases: []string{"nausea", "nauseous", "queasy"}},
	{name: "vomiting", system: "gastrointestinal",
		aliases: []string{"vomiting", "throwing up", "vomit"}},
	{name: "diarrhea", system: "gastrointestinal",
		aliases: []string{"diarrhea", "diarrhoea", "loose stools"}},
	{name: "fever", system: "general",
		aliases: []string{"fever", "high temperature", "feverish", "chills"}},
	{name: "cough", system: "respiratory",
		aliases: []string{"cough", "coughing"}},
	{name: "sore throat", system: "respiratory",
		aliases: []string{"sore throat", "throat hurts"}},
	{name: "back pain", system: "musculoskeletal",
		aliases: []string{"back pain", "backache", "back hurts", "pain in my back"}},
	{name: "joint pain", system: "musculoskeletal",
		aliases: []string{"joint pain", "joints hurt", "knee pain", "shoulder pain"}},
	{name: "rash", system: "dermatological",
		aliases: []string{"rash", "hives", "skin irritation", "itchy skin"}},
	{name: "fatigue", system: "general",
		aliases: []string{"fatigue", "exhausted", "tired all the time", "no energy"}},
	{name: "swelling", system: "general",
		aliases: []string{"swelling", "swollen"}},
	{name: clinical.SymptomDepression, system: "mental_health",
		aliases: []string{"depression", "depressed", "hopeless", "feeling down", "no interest in anything"}},
	{name: clinical.SymptomAnxiety, system: "mental_health",
		aliases: []string{"anxiety", "anxious", "panic attack", "panic attacks", "constant worry"}},
}

var negationMarkers = []string{
	"no ", "not ", "without ", "denies ", "deny ", "never had ",
	"don't have ", "dont have ", "doesn't have ", "doesnt have ",
	"haven't had ", "havent had ", "free of ",
}

var severityQualifiers = []struct {
	terms []string
	sev   clinical.Severity
}{
	{terms: []string{"sharp", "stabbing", "piercing"}, sev: clinical.SeveritySharp},
	{terms: []string{"severe", "intense", "unbearable", "excruciating", "crushing", "worst", "terrible", "really bad"}, sev: clinical.SeveritySevere},
	{terms: []string{"moderate", "bad", "persistent", "constant"}, sev: clinical.SeverityModerate},
	{terms: []string{"mild", "slight", "minor", "a little", "a bit of"}, sev: clinical.SeverityMild},
}

var (
	durationPattern = regexp.MustCompile(`(?:for|since|over)\s+(?:the\s+)?((?:\d+|a|an|a few|couple of|several)\s+(?:minute|hour|day|week|month|year)s?|yesterday|last night|this morning|this week)`)
	locationPattern = regexp.MustCompile(`(?:in|on|under|behind|around) my ([a-z]+(?: [a-z]+)?)`)
)

var medicationKeywords = []string{
	"medication", "medicine", "drug", "dose", "dosage", "pill", "tablet",
	"prescription", "prescribed", "side effect", "side effects", "interact",
	"ibuprofen", "acetaminophen", "paracetamol", "aspirin", "antibiotic",
	"antidepressant", "insulin", "statin",
}

var educationalKeywords = []string{
	"what is", "what are", "what causes", "explain", "tell me about",
	"how does", "how do", "why does", "why do", "difference between",
	"is it normal", "learn about",
}

// Parse extracts symptoms and an intent from raw text. It never fails:
// empty or unrecognized input produces zero-confidence general intent
// and an empty symptom list.
func Parse(raw string) ParseResult {
	text := strings.ToLower(clinical.CanonicalizeInput(raw))
	if text == "" {
		return ParseResult{
			Intent:   clinical.Intent{Type: clinical.IntentGeneral, Confidence: 0},
			Symptoms: []clinical.Symptom{},
		}
	}

	symptoms, bodySystem := extractSymptoms(text)
	intent := classifyIntent(text, symptoms)

	return ParseResult{Intent: intent, Symptoms: symptoms, BodySystem: bodySystem}
}

func extractSymptoms(text string) ([]clinical.Symptom, string) {
	symptoms := make([]clinical.Symptom, 0, 4)
	seen := make(map[string]bool)
	systemHits := make(map[string]int)

	globalDuration := ""
	if m := durationPattern.FindStringSubmatch(text); m != nil {
		globalDuration = m[1]
	}
	globalLocation := ""
	if m := locationPattern.FindStringSubmatch(text); m != nil {
		globalLocation = m[1]
	}

	for _, entry := range symptomCatalog {
		idx := matchAlias(text, entry.aliases)
		if idx < 0 || seen[entry.name] {
			continue
		}
		seen[entry.name] = true

		s := clinical.Symptom{
			Name:     entry.name,
			Negated:  isNegated(text, idx),
			Duration: globalDuration,
			Location: globalLocation,
		}

		if entry.intrinsic != clinical.SeverityUnknown {
			s.Severity = entry.intrinsic
		} else {
			s.Severity = qualifiedSeverity(text, idx)
			// Red-flag symptoms described as severe or sharp belong in
			// the emergency tier: chest pain that is "crushing" is not a
			// clinic appointment.
			if entry.redFlag && s.Severity.Rank() >= clinical.SeveritySevere.Rank() {
				s.Severity = clinical.SeverityEmergency
			}
		}

		if !s.Negated {
			systemHits[entry.system]++
		}
		symptoms = append(symptoms, s)
	}

	dominant := ""
	best := 0
	for system, n := range systemHits {
		if n > best || (n == best && system < dominant) {
			dominant = system
			best = n
		}
	}

	return symptoms, dominant
}

// matchAlias returns the index of the first alias found in text, or -1.
func matchAlias(text string, aliases []string) int {
	for _, alias := range aliases {
		if idx := strings.Index(text, alias); idx >= 0 {
			return idx
		}
	}
	return -1
}

// isNegated checks the window immediately before the match for a
// negation marker ("no chest pain", "denies fever").
func isNegated(text string, idx int) bool {
	start := idx - 24
	if start < 0 {
		start = 0
	}
	window := text[start:idx]
	for _, marker := range negationMarkers {
		if strings.Contains(window, marker) {
			return true
		}
	}
	return false
}

// qualifiedSeverity scans a window around the match for an explicit
// severity qualifier. Absent any qualifier the severity stays unknown;
// the triage engine rounds unknown up to moderate.
func qualifiedSeverity(text string, idx int) clinical.Severity {
	start := idx - 32
	if start < 0 {
		start = 0
	}
	end := idx + 32
	if end > len(text) {
		end = len(text)
	}
	window := text[start:end]

	for _, q := range severityQualifiers {
		for _, term := range q.terms {
			if strings.Contains(window, term) {
				return q.sev
			}
		}
	}
	return clinical.SeverityUnknown
}

func classifyIntent(text string, symptoms []clinical.Symptom) clinical.Intent {
	medHits := countHits(text, medicationKeywords)
	eduHits := countHits(text, educationalKeywords)

	activeSymptoms := 0
	for _, s := range symptoms {
		if !s.Negated {
			activeSymptoms++
		}
	}

	switch {
	case medHits > 0:
		return clinical.Intent{Type: clinical.IntentMedication, Confidence: confidence(medHits)}
	case activeSymptoms > 0:
		return clinical.Intent{Type: clinical.IntentSymptomReport, Confidence: confidence(activeSymptoms)}
	case eduHits > 0:
		return clinical.Intent{Type: clinical.IntentEducational, Confidence: confidence(eduHits)}
	default:
		return clinical.Intent{Type: clinical.IntentGeneral, Confidence: 0.3}
	}
}

func countHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

// confidence maps a hit count onto [0.5, 0.9]. The parser is a pattern
// matcher, not a statistical classifier, so it never claims certainty.
func confidence(hits int) float64 {
	c := 0.5 + 0.1*float64(hits)
	if c > 0.9 {
		c = 0.9
	}
	return c
}
