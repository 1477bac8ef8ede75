package pipeline

import (
	"fmt"
	"time"

	"github.com/carelayer/triage/clinical"
)

// NormalizedResult wraps the coerced response with validation
// diagnostics. Validation failures never block returning the result.
type NormalizedResult struct {
	OK     bool
	Errors []string
	Result LayeredResponse
}

// NormalizeRouterResult coerces a partial result into a structurally
// valid LayeredResponse. Non-string fields are stringified with a
// missing value becoming ""; non-array fields become empty slices after
// falsy entries are dropped; booleans follow truthiness coercion; an
// empty enhanced prompt falls back to the fixed safe-guidance string.
// OK=false means some field needed coercion - diagnostic, not fatal.
func NormalizeRouterResult(raw RawResult) NormalizedResult {
	var errs []string

	userInput, err := coerceString(raw.UserInput, "userInput")
	errs = appendErr(errs, err)
	systemPrompt, err := coerceString(raw.SystemPrompt, "systemPrompt")
	errs = appendErr(errs, err)
	enhanced, err := coerceString(raw.EnhancedPrompt, "enhancedPrompt")
	errs = appendErr(errs, err)
	if enhanced == "" {
		errs = append(errs, "enhancedPrompt empty, substituted safe guidance prompt")
		enhanced = SafeGuidancePrompt
	}

	highRisk, err := coerceBool(raw.IsHighRisk, "isHighRisk")
	errs = appendErr(errs, err)
	disclaimers, err := coerceStringSlice(raw.Disclaimers, "disclaimers")
	errs = appendErr(errs, err)
	suggestions, err := coerceStringSlice(raw.Suggestions, "suggestions")
	errs = appendErr(errs, err)
	atdNotices, err := coerceStringSlice(raw.ATD, "atd")
	errs = appendErr(errs, err)
	confidence, err := coerceFloat(raw.IntentConfidence, "intentConfidence")
	errs = appendErr(errs, err)
	triageLevel, err := coerceString(raw.TriageLevel, "triageLevel")
	errs = appendErr(errs, err)

	symptoms := raw.Symptoms
	if symptoms == nil {
		symptoms = []clinical.Symptom{}
	}

	timings := make(map[string]string, len(raw.StageTimings))
	for stage, d := range raw.StageTimings {
		timings[stage] = d.String()
	}

	return NormalizedResult{
		OK:     len(errs) == 0,
		Errors: errs,
		Result: LayeredResponse{
			UserInput:      userInput,
			SystemPrompt:   systemPrompt,
			EnhancedPrompt: enhanced,
			IsHighRisk:     highRisk,
			Disclaimers:    disclaimers,
			Suggestions:    suggestions,
			ATD:            atdNotices,
			Metadata: ResponseMetadata{
				ProcessingTime:   raw.ProcessingTime.Round(time.Microsecond).String(),
				IntentConfidence: confidence,
				TriageLevel:      triageLevel,
				Symptoms:         symptoms,
				StageTimings:     timings,
				State:            string(raw.State),
			},
		},
	}
}

func appendErr(errs []string, err error) []string {
	if err != nil {
		return append(errs, err.Error())
	}
	return errs
}

func coerceString(v any, field string) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", fmt.Errorf("%s missing, coerced to empty string", field)
	case string:
		return s, nil
	case clinical.TriageLevel:
		return string(s), nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return fmt.Sprint(v), fmt.Errorf("%s was %T, stringified", field, v)
	}
}

func coerceBool(v any, field string) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, fmt.Errorf("%s missing, coerced to false", field)
	case bool:
		return b, nil
	case string:
		return b != "", fmt.Errorf("%s was string, coerced by truthiness", field)
	case int:
		return b != 0, fmt.Errorf("%s was int, coerced by truthiness", field)
	case float64:
		return b != 0, fmt.Errorf("%s was float64, coerced by truthiness", field)
	default:
		return true, fmt.Errorf("%s was %T, coerced to true", field, v)
	}
}

func coerceFloat(v any, field string) (float64, error) {
	switch f := v.(type) {
	case nil:
		return 0, fmt.Errorf("%s missing, coerced to 0", field)
	case float64:
		return clampUnit(f), nil
	case float32:
		return clampUnit(float64(f)), nil
	case int:
		return clampUnit(float64(f)), nil
	default:
		return 0, fmt.Errorf("%s was %T, coerced to 0", field, v)
	}
}

func clampUnit(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func coerceStringSlice(v any, field string) ([]string, error) {
	switch s := v.(type) {
	case nil:
		return []string{}, fmt.Errorf("%s missing, coerced to empty list", field)
	case []string:
		return dropEmpty(s), nil
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if item == nil {
				continue
			}
			if str := fmt.Sprint(item); str != "" {
				out = append(out, str)
			}
		}
		return out, fmt.Errorf("%s was []any, entries stringified", field)
	default:
		return []string{}, fmt.Errorf("%s was %T, coerced to empty list", field, v)
	}
}

func dropEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
