package escalation

import (
	"errors"
	"strings"
	"testing"
)

func validRule() *Rule {
	return &Rule{
		ID:         "r1",
		Region:     "us-east",
		Name:       "urgent routes",
		Expression: `Triage.Level == "urgent"`,
		Action:     ActionRouteToProvider,
		Weight:     0,
		Active:     true,
	}
}

func TestValidateRuleAccepts(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Rule)
	}{
		{"Baseline", func(r *Rule) {}},
		{"Name with hyphen and space", func(r *Rule) { r.Name = "high-risk turns" }},
		{"Underscore prefix", func(r *Rule) { r.Name = "_internal" }},
		{"Raise priority with weight", func(r *Rule) { r.Action = ActionRaisePriority; r.Weight = 25 }},
		{"Max weight", func(r *Rule) { r.Action = ActionRaisePriority; r.Weight = 100 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRule()
			tc.mutate(r)
			if err := ValidateRule(r); err != nil {
				t.Errorf("ValidateRule() failed: %v", err)
			}
		})
	}
}

func TestValidateRuleRejects(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Rule)
		wantErr string
	}{
		{"Nil rule", nil, "cannot be nil"},
		{"Empty name", func(r *Rule) { r.Name = "" }, "name cannot be empty"},
		{"Name too long", func(r *Rule) { r.Name = strings.Repeat("a", 101) }, "exceeds maximum"},
		{"Name starts with digit", func(r *Rule) { r.Name = "1rule" }, "must start with"},
		{"Name with invalid chars", func(r *Rule) { r.Name = "rule;drop" }, "must start with"},
		{"Empty expression", func(r *Rule) { r.Expression = "  " }, "expression cannot be empty"},
		{"Expression too long", func(r *Rule) { r.Expression = strings.Repeat("x", 2001) }, "exceeds maximum"},
		{"Unknown action", func(r *Rule) { r.Action = "deescalate" }, "unknown action"},
		{"Negative weight", func(r *Rule) { r.Weight = -5 }, "negative"},
		{"Weight too large", func(r *Rule) { r.Weight = 101 }, "exceeds maximum"},
		{"Raise priority with zero weight", func(r *Rule) { r.Action = ActionRaisePriority; r.Weight = 0 }, "positive weight"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var r *Rule
			if tc.mutate != nil {
				r = validRule()
				tc.mutate(r)
			}
			err := ValidateRule(r)
			if err == nil {
				t.Fatal("ValidateRule() should have failed")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	results := []*RuleOutcome{
		{RuleID: "1", RuleName: "route", Action: ActionRouteToProvider, Matched: true},
		{RuleID: "2", RuleName: "boost-a", Action: ActionRaisePriority, Weight: 10, Matched: true},
		{RuleID: "3", RuleName: "boost-b", Action: ActionRaisePriority, Weight: 15, Matched: true},
		{RuleID: "4", RuleName: "review", Action: ActionHumanReview, Matched: false},
		{RuleID: "5", RuleName: "block", Action: ActionBlockAI, Matched: true, Err: errors.New("eval failed")},
		nil,
	}

	out := Aggregate(results)

	if !out.RouteToProvider {
		t.Error("matched route rule should set RouteToProvider")
	}
	if out.PriorityBoost != 25 {
		t.Errorf("PriorityBoost = %d, want summed 25", out.PriorityBoost)
	}
	if out.HumanReview {
		t.Error("unmatched rule must not set HumanReview")
	}
	if out.BlockAI {
		t.Error("errored rule must be skipped even if marked matched")
	}
	if len(out.MatchedRules) != 3 {
		t.Errorf("MatchedRules = %v, want the three clean matches", out.MatchedRules)
	}
}

func TestAggregateEmpty(t *testing.T) {
	out := Aggregate(nil)
	if out.RouteToProvider || out.BlockAI || out.HumanReview || out.PriorityBoost != 0 {
		t.Errorf("empty aggregation should be zero-valued, got %+v", out)
	}
}
