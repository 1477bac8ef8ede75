// Package pipeline sequences the interpretation stages for one user
// turn and coerces whatever they produce into the strict response
// contract. The central guarantee: no failure of any stage may escape
// to the caller; the worst outcome is a generic, deliberately
// conservative response.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/carelayer/triage/analytics"
	"github.com/carelayer/triage/clinical"
	"github.com/carelayer/triage/config"
	"github.com/carelayer/triage/internal/logger"
	"github.com/carelayer/triage/parser"
	"github.com/carelayer/triage/prompt"
	"github.com/carelayer/triage/triage"
)

// State names the orchestrator's position in its state machine.
type State string

const (
	StateInit               State = "INIT"
	StateParsed             State = "PARSED"
	StateTriaged            State = "TRIAGED"
	StateEnhanced           State = "ENHANCED"
	StateNormalized         State = "NORMALIZED"
	StateFailed             State = "FAILED"
	StateFallbackNormalized State = "FALLBACK_NORMALIZED"
)

// Request carries one user turn into the pipeline. Demographics are
// caller-supplied and never inferred.
type Request struct {
	UserInput    string
	SessionID    string
	Role         clinical.UserRole
	Demographics *clinical.Demographics
}

// Router is the pipeline entry point used by the UI collaborator.
type Router struct {
	enhancer *prompt.Enhancer
}

// NewRouter wires the orchestrator with its prompt enhancer.
func NewRouter(flags config.Flags, sessions *prompt.SessionStore) *Router {
	return &Router{enhancer: prompt.NewEnhancer(flags, sessions)}
}

// RouteMedicalQuery runs the full pipeline for one turn. It always
// returns a structurally valid LayeredResponse: stage errors and panics
// divert to the failure-safe path, and a final recover guards the
// normalizer itself. Per-stage timings are recorded regardless of
// outcome.
func (r *Router) RouteMedicalQuery(ctx context.Context, req Request) (resp LayeredResponse) {
	start := time.Now()
	lc := clinical.NewLayerContext(req.UserInput)
	lc.Demographics = req.Demographics

	defer func() {
		if rec := recover(); rec != nil {
			logger.StageFailure("normalize_panic", fmt.Errorf("%v", rec))
			resp = minimalSafeResponse(req.UserInput, time.Since(start))
		}
	}()

	var enh prompt.Enhancement
	state := StateInit

	err := runStage(lc, "parse", func() error {
		parsed := parser.Parse(lc.UserInput)
		lc.SetIntent(parsed.Intent)
		lc.SetSymptoms(parsed.Symptoms)
		lc.Metadata.BodySystem = parsed.BodySystem
		return nil
	})
	if err == nil {
		state = StateParsed
		err = runStage(lc, "triage", func() error {
			result, terr := triage.PerformTriage(lc)
			if terr != nil {
				return terr
			}
			lc.ApplyTriage(result)
			return nil
		})
	}
	if err == nil {
		state = StateTriaged
		err = runStage(lc, "enhance", func() error {
			enhanced, eerr := r.enhancer.Enhance(lc, req.Role, req.SessionID)
			if eerr != nil {
				return eerr
			}
			enh = enhanced
			lc.SetPrompt(clinical.PromptBundle{
				SystemPrompt:   enhanced.SystemPrompt,
				EnhancedPrompt: enhanced.EnhancedPrompt,
			})
			return nil
		})
	}

	var raw RawResult
	if err != nil {
		// Failure-safe path: keep whatever the earlier stages produced,
		// substitute the fixed safe prompt, and leave disclaimers to the
		// safety processor. Stages are pure, so a retry is pointless.
		logger.StageFailure("stage_"+string(state)+"_failed", err)
		state = StateFailed
		raw = failSafeRaw(lc)
		raw.State = StateFallbackNormalized
	} else {
		state = StateEnhanced
		raw = RawResult{
			UserInput:        lc.UserInput,
			SystemPrompt:     enh.SystemPrompt,
			EnhancedPrompt:   enh.EnhancedPrompt,
			IsHighRisk:       lc.Triage.Level.Rank() >= clinical.Urgent.Rank(),
			Disclaimers:      enh.Disclaimers,
			Suggestions:      enh.Suggestions,
			ATD:              enh.ATDNotices,
			IntentConfidence: lc.Intent.Confidence,
			TriageLevel:      lc.Triage.Level,
			Symptoms:         lc.Symptoms,
			State:            StateNormalized,
		}
	}

	normStart := time.Now()
	raw.StageTimings = lc.Metadata.StageTimings
	raw.ProcessingTime = time.Since(start)
	normalized := NormalizeRouterResult(raw)

	// The normalizer stringifies the timing map before its own duration
	// is known, so the normalize entry is patched into the response.
	normDur := time.Since(normStart)
	lc.RecordStageTiming("normalize", normDur)
	normalized.Result.Metadata.StageTimings["normalize"] = normDur.String()

	if !normalized.OK {
		logger.Warn("router result needed coercion", "errors", normalized.Errors, "state", string(state))
	}
	analytics.ObservePipelineOutcome(string(lc.Triage.Level), state == StateFailed)

	return normalized.Result
}

// runStage times a stage and converts its panics into errors so the
// orchestrator's failure path is ordinary data flow.
func runStage(lc *clinical.LayerContext, name string, fn func() error) (err error) {
	stageStart := time.Now()
	defer func() {
		lc.RecordStageTiming(name, time.Since(stageStart))
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s stage panic: %v", name, rec)
		}
	}()
	return fn()
}

// failSafeRaw synthesizes the minimal safe partial result after a
// stage failure, preserving any triage outcome already applied.
func failSafeRaw(lc *clinical.LayerContext) RawResult {
	return RawResult{
		UserInput:        lc.UserInput,
		SystemPrompt:     SafeGuidancePrompt,
		EnhancedPrompt:   SafeGuidancePrompt,
		IsHighRisk:       lc.Triage.Level.Rank() >= clinical.Urgent.Rank(),
		Disclaimers:      []string{},
		Suggestions:      []string{},
		ATD:              []string{},
		IntentConfidence: lc.Intent.Confidence,
		TriageLevel:      lc.Triage.Level,
		Symptoms:         lc.Symptoms,
	}
}

// minimalSafeResponse is the last line of defense, used only if the
// normalizer itself panics. It is a fixed literal with every contract
// field populated.
func minimalSafeResponse(userInput string, elapsed time.Duration) LayeredResponse {
	return LayeredResponse{
		UserInput:      clinical.CanonicalizeInput(userInput),
		SystemPrompt:   SafeGuidancePrompt,
		EnhancedPrompt: SafeGuidancePrompt,
		IsHighRisk:     false,
		Disclaimers:    []string{},
		Suggestions:    []string{},
		ATD:            []string{},
		Metadata: ResponseMetadata{
			ProcessingTime: elapsed.Round(time.Microsecond).String(),
			TriageLevel:    string(clinical.NonUrgent),
			State:          string(StateFallbackNormalized),
		},
	}
}
