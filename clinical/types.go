package clinical

// TriageLevel is the ordinal urgency classification for a user turn.
// Levels are strictly ordered: NonUrgent < Urgent < Emergency.
type TriageLevel string

const (
	NonUrgent TriageLevel = "non_urgent"
	Urgent    TriageLevel = "urgent"
	Emergency TriageLevel = "emergency"
)

// Rank returns the ordering position of a triage level. Unknown values
// rank below NonUrgent so they can never mask a real classification.
func (l TriageLevel) Rank() int {
	switch l {
	case NonUrgent:
		return 1
	case Urgent:
		return 2
	case Emergency:
		return 3
	default:
		return 0
	}
}

// MaxLevel returns the more urgent of two triage levels.
func MaxLevel(a, b TriageLevel) TriageLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Severity is the per-symptom severity tier reported by the parser.
type Severity string

const (
	SeverityUnknown   Severity = ""
	SeverityMild      Severity = "mild"
	SeverityModerate  Severity = "moderate"
	SeveritySevere    Severity = "severe"
	SeveritySharp     Severity = "sharp"
	SeverityEmergency Severity = "emergency"
)

// Rank returns the ordering position of a severity tier. The unknown
// tier ranks between mild and moderate; the triage engine rounds it up
// to moderate when counting.
func (s Severity) Rank() int {
	switch s {
	case SeverityMild:
		return 1
	case SeverityModerate:
		return 3
	case SeveritySevere:
		return 4
	case SeveritySharp:
		return 5
	case SeverityEmergency:
		return 6
	default:
		return 2
	}
}

// Symptom is a single extracted symptom entity. Negated marks symptoms
// the user explicitly denied ("no chest pain"); negated symptoms carry
// no weight in triage.
type Symptom struct {
	Name     string   `json:"name"`
	Location string   `json:"location,omitempty"`
	Severity Severity `json:"severity,omitempty"`
	Duration string   `json:"duration,omitempty"`
	Negated  bool     `json:"negated,omitempty"`
}

// IntentType classifies what the user is asking for.
type IntentType string

const (
	IntentSymptomReport IntentType = "symptom_report"
	IntentMedication    IntentType = "medication_question"
	IntentEducational   IntentType = "educational"
	IntentGeneral       IntentType = "general"
)

// Intent is the parser's classification of the user turn.
// Confidence is in [0,1]; empty input yields confidence 0.
type Intent struct {
	Type       IntentType `json:"type"`
	Confidence float64    `json:"confidence"`
}

// TriageResult is the triage engine's output for one turn.
type TriageResult struct {
	Level         TriageLevel `json:"level"`
	Reasons       []string    `json:"reasons"`
	SymptomNames  []string    `json:"symptomNames"`
	CriticalFlags []string    `json:"criticalFlags,omitempty"`
}

// PromptBundle holds the two strings handed to the language-model client.
type PromptBundle struct {
	SystemPrompt   string `json:"systemPrompt"`
	EnhancedPrompt string `json:"enhancedPrompt"`
}

// UserRole distinguishes clinician-facing from public-facing phrasing.
type UserRole string

const (
	RolePublic    UserRole = "public"
	RoleClinician UserRole = "clinician"
)

// Demographics are caller-supplied and never inferred from text.
type Demographics struct {
	Age  int      `json:"age,omitempty"`
	Sex  string   `json:"sex,omitempty"`
	Role UserRole `json:"role,omitempty"`
}

// DisclaimerPack is the selector's output: user-facing disclaimers plus
// advice-to-doctor notices. Immutable by convention once built.
type DisclaimerPack struct {
	Disclaimers []string `json:"disclaimers"`
	ATDNotices  []string `json:"atdNotices"`
}

// Crisis symptom names emitted by the parser. The disclaimer selector
// and fallback engine key their mental-health overrides off these.
const (
	SymptomSuicidalIdeation  = "suicidal ideation"
	SymptomHomicidalIdeation = "homicidal ideation"
	SymptomSelfHarm          = "self-harm"
	SymptomDepression        = "depression"
	SymptomAnxiety           = "anxiety"
)

// IsCrisisSymptom reports whether a symptom name denotes a mental-health
// crisis that overrides ordinary triage-level handling.
func IsCrisisSymptom(name string) bool {
	switch name {
	case SymptomSuicidalIdeation, SymptomHomicidalIdeation, SymptomSelfHarm:
		return true
	}
	return false
}

// IsMentalHealthSymptom reports whether a symptom name belongs to the
// mental-health domain at all, crisis or not.
func IsMentalHealthSymptom(name string) bool {
	switch name {
	case SymptomDepression, SymptomAnxiety:
		return true
	}
	return IsCrisisSymptom(name)
}
