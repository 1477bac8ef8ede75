package clinical

import (
	"strings"
	"time"
)

// LayerContext is the per-turn record threaded through every pipeline
// stage. It is owned exclusively by one invocation: constructed at turn
// start, mutated in place by each stage, discarded at turn end.
type LayerContext struct {
	UserInput    string
	Intent       Intent
	Symptoms     []Symptom
	Triage       TriageResult
	Prompt       PromptBundle
	Demographics *Demographics
	Metadata     Metadata
}

// Metadata carries derived annotations and per-stage wall-clock timings.
type Metadata struct {
	BodySystem   string
	StageTimings map[string]time.Duration
}

// NewLayerContext canonicalizes the raw input and builds a fresh context.
// Input is trimmed; control characters are dropped so downstream pattern
// matching sees printable text only.
func NewLayerContext(userInput string) *LayerContext {
	return &LayerContext{
		UserInput: CanonicalizeInput(userInput),
		Triage:    TriageResult{Level: NonUrgent, Reasons: []string{}, SymptomNames: []string{}},
		Metadata:  Metadata{StageTimings: make(map[string]time.Duration)},
	}
}

// CanonicalizeInput trims surrounding whitespace and strips
// non-printable runes from raw user text.
func CanonicalizeInput(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, raw)
	return strings.TrimSpace(cleaned)
}

// SetIntent records the parser's intent classification, clamping
// confidence into [0,1].
func (c *LayerContext) SetIntent(in Intent) {
	if in.Confidence < 0 {
		in.Confidence = 0
	}
	if in.Confidence > 1 {
		in.Confidence = 1
	}
	c.Intent = in
}

// SetSymptoms replaces the extracted symptom list.
func (c *LayerContext) SetSymptoms(symptoms []Symptom) {
	c.Symptoms = symptoms
}

// ApplyTriage merges a triage result into the context. Once any rule has
// raised the level to Emergency it can never be lowered again; a merge
// that would downgrade keeps the existing level and accumulates the new
// reasons and flags.
func (c *LayerContext) ApplyTriage(t TriageResult) {
	t.Level = MaxLevel(c.Triage.Level, t.Level)
	t.Reasons = appendUnique(c.Triage.Reasons, t.Reasons...)
	t.SymptomNames = appendUnique(c.Triage.SymptomNames, t.SymptomNames...)
	t.CriticalFlags = appendUnique(c.Triage.CriticalFlags, t.CriticalFlags...)
	c.Triage = t
}

// SetPrompt records the enhancer's output.
func (c *LayerContext) SetPrompt(p PromptBundle) {
	c.Prompt = p
}

// RecordStageTiming stores the wall-clock duration of one stage.
// Timings are recorded for failed stages too.
func (c *LayerContext) RecordStageTiming(stage string, d time.Duration) {
	if c.Metadata.StageTimings == nil {
		c.Metadata.StageTimings = make(map[string]time.Duration)
	}
	c.Metadata.StageTimings[stage] = d
}

// ActiveSymptoms returns the symptoms that contribute to triage,
// excluding explicitly negated ones.
func (c *LayerContext) ActiveSymptoms() []Symptom {
	active := make([]Symptom, 0, len(c.Symptoms))
	for _, s := range c.Symptoms {
		if !s.Negated {
			active = append(active, s)
		}
	}
	return active
}

// MaxSeverity returns the highest severity among non-negated symptoms.
func (c *LayerContext) MaxSeverity() Severity {
	max := SeverityUnknown
	found := false
	for _, s := range c.ActiveSymptoms() {
		if !found || s.Severity.Rank() > max.Rank() {
			max = s.Severity
			found = true
		}
	}
	if !found {
		return SeverityUnknown
	}
	return max
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]bool, len(dst)+len(values))
	out := make([]string, 0, len(dst)+len(values))
	for _, v := range dst {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range values {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
