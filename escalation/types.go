// Package escalation evaluates deployment-tunable safety rules on top
// of the built-in triage layers. Rules are CEL expressions over a fixed
// fact document built from pipeline output; matched rules can only
// escalate a turn (route it, boost its priority, block the AI answer,
// or demand human review), never soften it.
package escalation

import "time"

// Action is what a matched rule does to the turn.
type Action string

const (
	ActionRouteToProvider Action = "route_to_provider"
	ActionRaisePriority   Action = "raise_priority"
	ActionBlockAI         Action = "block_ai"
	ActionHumanReview     Action = "human_review"
)

// ValidActions lists every recognized action.
var ValidActions = []Action{
	ActionRouteToProvider,
	ActionRaisePriority,
	ActionBlockAI,
	ActionHumanReview,
}

// Rule is a single escalation rule scoped to one region.
type Rule struct {
	ID         string
	Region     string
	Name       string
	Expression string
	Action     Action
	Weight     int
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RuleOutcome is the evaluation result for one rule.
type RuleOutcome struct {
	RuleID   string
	RuleName string
	Action   Action
	Weight   int
	Matched  bool
	Err      error
}

// Outcome aggregates every matched rule for a turn. Booleans only ever
// flip to true and the priority boost only accumulates upward, so the
// rule layer preserves the conservative bias of the layers below it.
type Outcome struct {
	RouteToProvider bool
	PriorityBoost   int
	BlockAI         bool
	HumanReview     bool
	MatchedRules    []string
}

// Aggregate folds rule outcomes into a single escalation outcome.
// Evaluation errors are skipped; a broken custom rule must not disable
// the others.
func Aggregate(results []*RuleOutcome) Outcome {
	var out Outcome
	for _, r := range results {
		if r == nil || r.Err != nil || !r.Matched {
			continue
		}
		out.MatchedRules = append(out.MatchedRules, r.RuleName)
		switch r.Action {
		case ActionRouteToProvider:
			out.RouteToProvider = true
		case ActionRaisePriority:
			out.PriorityBoost += r.Weight
		case ActionBlockAI:
			out.BlockAI = true
		case ActionHumanReview:
			out.HumanReview = true
		}
	}
	return out
}
