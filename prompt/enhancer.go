// Package prompt selects and renders the machine-facing prompt for the
// language-model collaborator: a response-mode template keyed by triage
// severity, context injection, and role- and mode-specific policy
// wrapping. Expansion follow-ups short-circuit through session state.
package prompt

import (
	"fmt"
	"strings"

	"github.com/carelayer/triage/clinical"
	"github.com/carelayer/triage/config"
	"github.com/carelayer/triage/disclaimer"
)

// Enhancement is the enhancer's complete output for one turn.
type Enhancement struct {
	SystemPrompt    string
	EnhancedPrompt  string
	ATDNotices      []string
	Disclaimers     []string
	Suggestions     []string
	ExpansionPrompt string
}

// Enhancer renders prompts under a fixed set of feature flags with a
// session-scoped store for expansion state. It holds no per-turn state.
type Enhancer struct {
	flags    config.Flags
	sessions *SessionStore
}

// NewEnhancer builds an enhancer. A nil session store disables the
// expansion short-circuit regardless of flags.
func NewEnhancer(flags config.Flags, sessions *SessionStore) *Enhancer {
	return &Enhancer{flags: flags, sessions: sessions}
}

var expansionRequestMarkers = []string{
	"tell me more", "more detail", "more details", "more information",
	"expand on that", "elaborate", "go deeper", "what else",
	"can you explain further",
}

// Enhance runs the full enhancement sequence for a turn. The error
// return exists for orchestrator uniformity; template rendering cannot
// fail because every template is embedded.
func (e *Enhancer) Enhance(ctx *clinical.LayerContext, role clinical.UserRole, sessionID string) (Enhancement, error) {
	if role == "" {
		role = clinical.RolePublic
	}

	// Expansion requests bypass normal triage templating entirely and
	// render against the previous question's classification.
	if e.flags.ExpansionPrompts && e.sessions != nil && isExpansionRequest(ctx.UserInput) {
		if state, ok := e.sessions.Get(sessionID); ok {
			e.sessions.Clear(sessionID)
			return e.renderExpansion(ctx, state), nil
		}
	}

	qt := e.classifyQuestion(ctx)
	kind := TemplateKindFor(ctx.Triage.Level, ctx.MaxSeverity())
	contextBlock := buildContextBlock(ctx)

	systemPrompt := systemPrompts[kind]
	enhanced := renderTemplate(baseTemplates[kind], contextBlock)

	pack := disclaimer.Select(ctx.Triage.Level, ctx.Triage.SymptomNames)
	disclaimers := pack.Disclaimers

	if qt == QuestionMedication && e.flags.RolePrompts {
		if role == clinical.RoleClinician {
			enhanced = medicationPolicyClinician + "\n\n" + enhanced
			disclaimers = append(disclaimers, medicationDisclaimerClinician)
		} else {
			enhanced = medicationPolicyPublic + "\n\n" + enhanced
			disclaimers = append(disclaimers, medicationDisclaimerPublic)
		}
	}

	expansionPrompt := ""
	if qt != QuestionEducational {
		if e.flags.ConciseMode {
			enhanced += "\n\n" + conciseDirective
		}
		if e.flags.ExpansionPrompts {
			expansionPrompt = expansionQuestionFor(role)
			enhanced += "\n" + expansionPrompt
			if e.sessions != nil {
				e.sessions.Put(sessionID, ctx.UserInput, qt)
			}
		}
	}

	if ctx.Triage.Level == clinical.Emergency || ctx.Triage.Level == clinical.Urgent {
		enhanced = atdHeader + enhanced
	}

	return Enhancement{
		SystemPrompt:    systemPrompt,
		EnhancedPrompt:  enhanced,
		ATDNotices:      pack.ATDNotices,
		Disclaimers:     disclaimers,
		Suggestions:     suggestionsFor(qt, ctx),
		ExpansionPrompt: expansionPrompt,
	}, nil
}

func (e *Enhancer) renderExpansion(ctx *clinical.LayerContext, state ExpansionState) Enhancement {
	tpl, ok := expansionTemplates[state.QuestionType]
	if !ok {
		tpl = expansionTemplates[QuestionGeneral]
	}

	contextBlock := fmt.Sprintf("Previous question: %s\nFollow-up: %s", state.LastQuery, ctx.UserInput)
	pack := disclaimer.Select(ctx.Triage.Level, ctx.Triage.SymptomNames)

	return Enhancement{
		SystemPrompt:   systemPrompts[TemplateMild],
		EnhancedPrompt: renderTemplate(tpl, contextBlock),
		ATDNotices:     pack.ATDNotices,
		Disclaimers:    pack.Disclaimers,
		Suggestions:    []string{},
	}
}

// classifyQuestion maps the parsed intent onto a question type. With
// the classifier flag off every turn renders as a general question.
func (e *Enhancer) classifyQuestion(ctx *clinical.LayerContext) QuestionType {
	if !e.flags.QuestionClassifier {
		return QuestionGeneral
	}
	switch ctx.Intent.Type {
	case clinical.IntentMedication:
		return QuestionMedication
	case clinical.IntentEducational:
		return QuestionEducational
	case clinical.IntentSymptomReport:
		return QuestionSymptom
	default:
		return QuestionGeneral
	}
}

// TemplateKindFor maps a triage level and the highest symptom severity
// onto a template band. The mapping only ever widens caution: a
// non-urgent turn with a moderate symptom still renders moderately.
func TemplateKindFor(level clinical.TriageLevel, maxSeverity clinical.Severity) TemplateKind {
	switch level {
	case clinical.Emergency:
		return TemplateSevere
	case clinical.Urgent:
		if maxSeverity.Rank() >= clinical.SeveritySevere.Rank() {
			return TemplateSevere
		}
		return TemplateModerate
	default:
		if maxSeverity.Rank() >= clinical.SeverityModerate.Rank() {
			return TemplateModerate
		}
		return TemplateMild
	}
}

func isExpansionRequest(input string) bool {
	lowered := strings.ToLower(input)
	for _, marker := range expansionRequestMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func buildContextBlock(ctx *clinical.LayerContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User question: %s\n", ctx.UserInput)
	fmt.Fprintf(&b, "Triage level: %s\n", ctx.Triage.Level)

	if active := ctx.ActiveSymptoms(); len(active) > 0 {
		b.WriteString("Reported symptoms:\n")
		for _, s := range active {
			fmt.Fprintf(&b, "- %s", s.Name)
			if s.Severity != clinical.SeverityUnknown {
				fmt.Fprintf(&b, " (severity: %s)", s.Severity)
			}
			if s.Duration != "" {
				fmt.Fprintf(&b, " (duration: %s)", s.Duration)
			}
			b.WriteString("\n")
		}
	}
	if denied := deniedSymptoms(ctx.Symptoms); len(denied) > 0 {
		fmt.Fprintf(&b, "Explicitly denied: %s\n", strings.Join(denied, ", "))
	}
	if ctx.Metadata.BodySystem != "" {
		fmt.Fprintf(&b, "Body system: %s\n", ctx.Metadata.BodySystem)
	}
	if d := ctx.Demographics; d != nil {
		if d.Age > 0 {
			fmt.Fprintf(&b, "Age: %d\n", d.Age)
		}
		if d.Sex != "" {
			fmt.Fprintf(&b, "Sex: %s\n", d.Sex)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func deniedSymptoms(symptoms []clinical.Symptom) []string {
	var denied []string
	for _, s := range symptoms {
		if s.Negated {
			denied = append(denied, s.Name)
		}
	}
	return denied
}

func expansionQuestionFor(role clinical.UserRole) string {
	if role == clinical.RoleClinician {
		return expansionQuestionClinician
	}
	return expansionQuestionPublic
}

// suggestionsFor produces the short user-facing follow-up tips shown
// beside a response.
func suggestionsFor(qt QuestionType, ctx *clinical.LayerContext) []string {
	switch {
	case ctx.Triage.Level == clinical.Emergency:
		return []string{"Contact emergency services now"}
	case ctx.Triage.Level == clinical.Urgent:
		return []string{
			"Arrange to see a healthcare provider within 24 hours",
			"Note any change or worsening of your symptoms",
		}
	case qt == QuestionSymptom:
		return []string{
			"Note how long the symptom has lasted",
			"Track anything that seems to trigger or relieve it",
			"See a healthcare provider if it persists or worsens",
		}
	case qt == QuestionMedication:
		return []string{
			"Confirm specifics with your prescriber or pharmacist",
			"Mention all other medications you take",
		}
	default:
		return []string{
			"Ask a follow-up if anything is unclear",
			"Consult a healthcare provider for personal advice",
		}
	}
}
