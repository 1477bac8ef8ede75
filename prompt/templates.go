package prompt

import "strings"

// templates.go holds every template the enhancer can render. All
// templates are embedded so template selection can never fail on a
// missing external file; rendering is plain substitution of the
// {{CONTEXT}} token.

// QuestionType is the enhancer's classification of what kind of answer
// the user is asking for.
type QuestionType string

const (
	QuestionEducational QuestionType = "educational"
	QuestionMedication  QuestionType = "medication"
	QuestionSymptom     QuestionType = "symptom"
	QuestionGeneral     QuestionType = "general"
)

// TemplateKind selects the base template by response severity band.
type TemplateKind int

const (
	TemplateMild TemplateKind = iota
	TemplateModerate
	TemplateSevere
)

func (k TemplateKind) String() string {
	switch k {
	case TemplateModerate:
		return "moderate"
	case TemplateSevere:
		return "severe"
	default:
		return "mild"
	}
}

const contextToken = "{{CONTEXT}}"

var systemPrompts = map[TemplateKind]string{
	TemplateMild: "You are a careful health information assistant. Provide general, " +
		"educational information only. Never diagnose. Encourage routine care " +
		"with a healthcare provider where appropriate.",
	TemplateModerate: "You are a careful health information assistant. The user describes " +
		"symptoms that may need timely medical attention. Provide general information, " +
		"clearly recommend seeing a healthcare provider soon, and never diagnose.",
	TemplateSevere: "You are a careful health information assistant. The user describes " +
		"symptoms that may be serious. Open by urging prompt professional or emergency " +
		"care, keep information brief and calm, and never diagnose.",
}

var baseTemplates = map[TemplateKind]string{
	TemplateMild: "Answer the following health question with general educational information. " +
		"Be clear and reassuring without dismissing the concern.\n\n" + contextToken,
	TemplateModerate: "Answer the following health question. Recommend a timely visit to a " +
		"healthcare provider and explain what information to bring to that visit.\n\n" + contextToken,
	TemplateSevere: "The following description may involve serious symptoms. Urge the user to " +
		"seek professional or emergency care promptly before giving any general information.\n\n" + contextToken,
}

var expansionTemplates = map[QuestionType]string{
	QuestionEducational: "The user asked for more detail on the previous educational topic. " +
		"Expand with deeper background, common misconceptions, and reputable directions for further reading.\n\n" + contextToken,
	QuestionMedication: "The user asked for more detail on the previous medication question. " +
		"Expand on usage considerations and common side effects in general terms, and restate that " +
		"their prescriber or pharmacist must confirm anything specific.\n\n" + contextToken,
	QuestionSymptom: "The user asked for more detail about the previously discussed symptom. " +
		"Expand on typical courses and self-care considerations, and restate when to seek care.\n\n" + contextToken,
	QuestionGeneral: "The user asked for more detail on the previous answer. " +
		"Expand on the same topic with additional general information.\n\n" + contextToken,
}

const (
	medicationPolicyClinician = "AUDIENCE: The user is a clinician. Professional terminology is appropriate. " +
		"Reference general prescribing considerations; do not provide patient-specific dosing."
	medicationPolicyPublic = "AUDIENCE: The user is a member of the public. Use plain language, avoid dosing " +
		"specifics, and direct them to their prescriber or pharmacist for anything about their own regimen."

	medicationDisclaimerClinician = "Medication information is general reference material, not a prescribing decision."
	medicationDisclaimerPublic    = "Never start, stop, or change a medication without talking to your prescriber or pharmacist."

	conciseDirective = "STYLE: Keep the answer under 150 words, focused on the most relevant points."

	expansionQuestionPublic    = "Close by asking: \"Would you like more detail on any part of this?\""
	expansionQuestionClinician = "Close by asking: \"Would you like the extended clinical detail?\""

	atdHeader = "PRIORITY NOTICE: This query was triaged as potentially urgent. Open the response by " +
		"directing the user to appropriate medical care before any other content.\n\n"
)

// renderTemplate substitutes the context block into a template.
func renderTemplate(tpl, contextBlock string) string {
	return strings.ReplaceAll(tpl, contextToken, contextBlock)
}
