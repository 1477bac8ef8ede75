// Package emergency is an independent, narrower pattern matcher run on
// raw text beside the structured triage engine. It is deliberately
// redundant: a parser miss must not silently disable emergency handling.
package emergency

import "regexp"

// Category names for the fixed pattern table.
const (
	CategoryCardiovascular = "cardiovascular"
	CategoryRespiratory    = "respiratory"
	CategoryNeurological   = "neurological"
	CategoryMentalHealth   = "mental_health"
	CategoryTrauma         = "trauma"
)

// Assessment is the detector's full output for one turn.
type Assessment struct {
	IsEmergency       bool     `json:"isEmergency"`
	EmergencyType     string   `json:"emergencyType,omitempty"`
	Severity          string   `json:"severity,omitempty"`
	TriggeredPatterns []string `json:"triggeredPatterns,omitempty"`
	EmergencyContacts []string `json:"emergencyContacts,omitempty"`
	ImmediateActions  []string `json:"immediateActions,omitempty"`
	EmergencyMessage  string   `json:"emergencyMessage,omitempty"`
}

type patternEntry struct {
	category string
	pattern  *regexp.Regexp
	severity string
}

// The pattern table is fixed at build time. Categories are checked in
// declaration order and all matches are reported; the first match
// determines the primary emergency type.
var patternTable = []patternEntry{
	{CategoryCardiovascular, regexp.MustCompile(`(?i)(crushing|severe|sharp|stabbing).{0,20}chest`), "critical"},
	{CategoryCardiovascular, regexp.MustCompile(`(?i)chest (pain|pressure|tightness).{0,30}(arm|jaw|sweat|minutes)`), "critical"},
	{CategoryCardiovascular, regexp.MustCompile(`(?i)heart attack`), "critical"},
	{CategoryRespiratory, regexp.MustCompile(`(?i)(can'?t|cannot|unable to|struggling to) breathe`), "critical"},
	{CategoryRespiratory, regexp.MustCompile(`(?i)(choking|gasping for air|turning blue|lips.{0,10}blue)`), "critical"},
	{CategoryNeurological, regexp.MustCompile(`(?i)(stroke|face droop|slurred speech|sudden.{0,20}(numbness|weakness))`), "critical"},
	{CategoryNeurological, regexp.MustCompile(`(?i)(seizure|convulsion|unconscious|passed out|won'?t wake)`), "critical"},
	{CategoryNeurological, regexp.MustCompile(`(?i)worst headache of (my|their) life`), "critical"},
	{CategoryMentalHealth, regexp.MustCompile(`(?i)(suicid|kill (myself|himself|herself|themselves)|end (my|their) life|want(s)? to die)`), "critical"},
	{CategoryMentalHealth, regexp.MustCompile(`(?i)(homicid|kill someone|plan to hurt)`), "critical"},
	{CategoryTrauma, regexp.MustCompile(`(?i)(severe bleeding|bleeding (won'?t|will not) stop|blood everywhere)`), "critical"},
	{CategoryTrauma, regexp.MustCompile(`(?i)(gunshot|stab wound|major (accident|injury)|head (injury|trauma))`), "critical"},
	{CategoryTrauma, regexp.MustCompile(`(?i)(overdose|swallowed.{0,20}(pills|poison))`), "critical"},
}

var categoryActions = map[string][]string{
	CategoryCardiovascular: {
		"Call emergency services now",
		"Stop all activity, sit or lie down",
		"Chew aspirin if available and not allergic",
	},
	CategoryRespiratory: {
		"Call emergency services now",
		"Sit upright and loosen tight clothing",
		"Use a prescribed rescue inhaler if available",
	},
	CategoryNeurological: {
		"Call emergency services now",
		"Note the time symptoms started",
		"Do not give food or drink",
	},
	CategoryMentalHealth: {
		"Contact a crisis line now - in the US call or text 988",
		"Do not stay alone; reach someone you trust",
		"Remove access to means of self-harm if possible",
	},
	CategoryTrauma: {
		"Call emergency services now",
		"Apply firm pressure to any bleeding wound",
		"Do not move someone with a suspected head or neck injury",
	},
}

var categoryContacts = map[string][]string{
	CategoryCardiovascular: {"Emergency services: 911 (US) / 112 (EU)"},
	CategoryRespiratory:    {"Emergency services: 911 (US) / 112 (EU)"},
	CategoryNeurological:   {"Emergency services: 911 (US) / 112 (EU)"},
	CategoryMentalHealth:   {"988 Suicide & Crisis Lifeline (US)", "Emergency services: 911 (US) / 112 (EU)"},
	CategoryTrauma:         {"Emergency services: 911 (US) / 112 (EU)"},
}

var categoryMessages = map[string]string{
	CategoryCardiovascular: "Your description may indicate a heart emergency. Please seek emergency care immediately.",
	CategoryRespiratory:    "Your description may indicate a breathing emergency. Please seek emergency care immediately.",
	CategoryNeurological:   "Your description may indicate a neurological emergency such as a stroke. Please seek emergency care immediately.",
	CategoryMentalHealth:   "You are not alone. Please reach out to a crisis line or emergency services right now.",
	CategoryTrauma:         "Your description may indicate a serious injury. Please seek emergency care immediately.",
}

// Detect scans raw text against the fixed emergency pattern table.
// A non-match returns a zero-valued Assessment with IsEmergency false.
func Detect(rawText string) Assessment {
	var a Assessment
	for _, entry := range patternTable {
		if !entry.pattern.MatchString(rawText) {
			continue
		}
		if !a.IsEmergency {
			a.IsEmergency = true
			a.EmergencyType = entry.category
			a.Severity = entry.severity
			a.EmergencyContacts = categoryContacts[entry.category]
			a.ImmediateActions = categoryActions[entry.category]
			a.EmergencyMessage = categoryMessages[entry.category]
		}
		a.TriggeredPatterns = append(a.TriggeredPatterns, entry.category+": "+entry.pattern.String())
	}
	return a
}
