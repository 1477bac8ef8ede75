package safety

import (
	"fmt"

	"github.com/carelayer/triage/analytics"
	"github.com/carelayer/triage/atd"
	"github.com/carelayer/triage/clinical"
	"github.com/carelayer/triage/disclaimer"
	"github.com/carelayer/triage/emergency"
	"github.com/carelayer/triage/escalation"
	"github.com/carelayer/triage/fallback"
	"github.com/carelayer/triage/internal/logger"
	"github.com/carelayer/triage/parser"
	"github.com/carelayer/triage/triage"
)

// Options carries per-request inputs for safety processing.
type Options struct {
	Region       string
	SessionID    string
	Demographics *clinical.Demographics
}

// Result is the full safety verdict for one user turn. When
// ShouldBlockAI is set the caller must show FallbackResponse instead of
// any model-generated text.
type Result struct {
	SafetyContext       *clinical.LayerContext
	SafetyNotices       []string
	TriageWarning       string
	FallbackResponse    *fallback.Response
	ShouldBlockAI       bool
	RequiresHumanReview bool
	EmergencyProtocol   *emergency.Assessment
	RouteToProvider     bool
	PriorityScore       int
	MatchedRules        []string
}

// Processor runs the safety path: parse, triage, emergency detection,
// routing, region escalation rules, and analytics emission.
type Processor struct {
	regions  *escalation.RegionManager
	recorder analytics.Recorder
}

// NewProcessor builds a processor. regions may be nil when no rule
// database is configured; recorder must not be nil (use NopRecorder).
func NewProcessor(regions *escalation.RegionManager, recorder analytics.Recorder) *Processor {
	return &Processor{regions: regions, recorder: recorder}
}

// ProcessMedicalSafety evaluates one turn and never returns an error:
// any internal failure degrades to a blocked, human-review result.
func (p *Processor) ProcessMedicalSafety(userInput string, opts Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.StageFailure("safety_panic", fmt.Errorf("panic: %v", r))
			res = conservativeResult(userInput)
		}
	}()

	lc := clinical.NewLayerContext(userInput)
	lc.Demographics = opts.Demographics

	parsed := parser.Parse(lc.UserInput)
	lc.SetIntent(parsed.Intent)
	lc.SetSymptoms(parsed.Symptoms)
	lc.Metadata.BodySystem = parsed.BodySystem

	tr, err := triage.PerformTriage(lc)
	if err != nil {
		logger.StageFailure("safety_triage", err)
		return conservativeResult(userInput)
	}
	lc.ApplyTriage(tr)

	em := emergency.Detect(lc.UserInput)
	if em.IsEmergency {
		lc.ApplyTriage(clinical.TriageResult{
			Level:   clinical.Emergency,
			Reasons: []string{"emergency pattern detected: " + em.EmergencyType},
		})
		analytics.ObserveEmergencyDetection(em.EmergencyType)
	}

	decision := atd.Route(lc, em)

	res = Result{
		SafetyContext:   lc,
		RouteToProvider: decision.RouteToProvider,
		PriorityScore:   decision.PriorityScore,
	}
	if em.IsEmergency {
		assessment := em
		res.EmergencyProtocol = &assessment
	}

	p.applyEscalationRules(lc, em, opts.Region, &res)

	crisis := hasFlag(lc.Triage.CriticalFlags, triage.FlagMentalHealthCrisis)
	if em.IsEmergency || lc.Triage.Level == clinical.Emergency || crisis {
		res.ShouldBlockAI = true
		res.RequiresHumanReview = true
	}

	pack := disclaimer.Select(lc.Triage.Level, lc.Triage.SymptomNames)
	res.SafetyNotices = append(pack.Disclaimers, pack.ATDNotices...)
	res.TriageWarning = triageWarning(lc.Triage.Level)

	if res.ShouldBlockAI {
		fb := fallback.Generate(fallback.Request{
			OriginalQuery:  lc.UserInput,
			Reason:         fallback.ReasonSafetyConcern,
			TriageLevel:    lc.Triage.Level,
			IsEmergency:    em.IsEmergency || lc.Triage.Level == clinical.Emergency,
			IsMentalHealth: crisis,
		})
		res.FallbackResponse = &fb
		res.RequiresHumanReview = res.RequiresHumanReview || fb.RequiresHumanIntervention
		analytics.ObserveAIBlocked()
	}
	if res.RouteToProvider {
		analytics.ObserveProviderRouted()
	}

	p.recordEvent(lc, em, opts.Region, res)
	return res
}

// applyEscalationRules evaluates the region's CEL rules and folds the
// aggregated outcome into res. Rule evaluation only escalates; a failed
// engine lookup or evaluation leaves res untouched.
func (p *Processor) applyEscalationRules(lc *clinical.LayerContext, em emergency.Assessment, region string, res *Result) {
	if p.regions == nil || region == "" {
		return
	}

	engine, err := p.regions.GetEngine(region)
	if err != nil {
		logger.Warn("escalation engine unavailable", "region", region, "error", err)
		return
	}

	outcomes, err := engine.EvaluateAll(escalation.BuildFacts(lc, em))
	if err != nil {
		logger.Warn("escalation evaluation failed", "region", region, "error", err)
		return
	}

	outcome := escalation.Aggregate(outcomes)
	res.RouteToProvider = res.RouteToProvider || outcome.RouteToProvider
	res.PriorityScore += outcome.PriorityBoost
	res.ShouldBlockAI = res.ShouldBlockAI || outcome.BlockAI
	res.RequiresHumanReview = res.RequiresHumanReview || outcome.HumanReview
	res.MatchedRules = outcome.MatchedRules
}

// recordEvent emits the sanitized analytics row for this turn. Failures
// are logged and never affect the safety result.
func (p *Processor) recordEvent(lc *clinical.LayerContext, em emergency.Assessment, region string, res Result) {
	event := analytics.Event{
		Region:            region,
		TriageLevel:       string(lc.Triage.Level),
		IntentType:        string(lc.Intent.Type),
		EmergencyDetected: em.IsEmergency,
		EmergencyCategory: em.EmergencyType,
		RoutedToProvider:  res.RouteToProvider,
		AIBlocked:         res.ShouldBlockAI,
		SymptomCount:      len(lc.Symptoms),
		DisclaimerCount:   len(res.SafetyNotices),
		SanitizedQuery:    analytics.SanitizeForPrivacy(lc.UserInput),
	}
	if err := p.recorder.Record(event); err != nil {
		logger.Warn("analytics record failed", "error", err)
	}
}

// conservativeResult is the degraded verdict used when the safety path
// itself fails: the AI is blocked and a human must look.
func conservativeResult(userInput string) Result {
	fb := fallback.Generate(fallback.Request{
		OriginalQuery: userInput,
		Reason:        fallback.ReasonTechnicalError,
		TriageLevel:   clinical.Urgent,
	})
	return Result{
		SafetyContext:       clinical.NewLayerContext(userInput),
		SafetyNotices:       []string{fb.Disclaimer},
		FallbackResponse:    &fb,
		ShouldBlockAI:       true,
		RequiresHumanReview: true,
	}
}

func triageWarning(level clinical.TriageLevel) string {
	switch level {
	case clinical.Emergency:
		return "Emergency indicators detected. Call 911 or your local emergency number now."
	case clinical.Urgent:
		return "Your symptoms may need prompt medical attention. Contact a healthcare provider soon."
	default:
		return ""
	}
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
