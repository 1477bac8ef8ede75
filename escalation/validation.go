package escalation

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation bounds for rule definitions.
const (
	maxNameLength       = 100
	maxExpressionLength = 2000
	maxWeight           = 100
)

var validName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_\- ]*$`)

// ValidateRule checks a rule definition before it is compiled or
// stored: name shape, expression presence and size, a recognized
// action, and a non-negative weight. Weights cannot be negative because
// escalation rules may only push urgency upward.
func ValidateRule(r *Rule) error {
	if r == nil {
		return fmt.Errorf("rule cannot be nil")
	}

	if err := validateRuleName(r.Name); err != nil {
		return fmt.Errorf("invalid rule name %q: %w", r.Name, err)
	}

	expr := strings.TrimSpace(r.Expression)
	if expr == "" {
		return fmt.Errorf("rule expression cannot be empty")
	}
	if len(expr) > maxExpressionLength {
		return fmt.Errorf("rule expression length %d exceeds maximum of %d", len(expr), maxExpressionLength)
	}

	if !isValidAction(r.Action) {
		return fmt.Errorf("unknown action %q (must be one of: %s)", r.Action, actionList())
	}

	if r.Weight < 0 {
		return fmt.Errorf("weight %d is negative; escalation rules can only raise priority", r.Weight)
	}
	if r.Weight > maxWeight {
		return fmt.Errorf("weight %d exceeds maximum of %d", r.Weight, maxWeight)
	}
	if r.Action == ActionRaisePriority && r.Weight == 0 {
		return fmt.Errorf("raise_priority rules must carry a positive weight")
	}

	return nil
}

func validateRuleName(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("name length %d exceeds maximum of %d characters", len(name), maxNameLength)
	}
	if !validName.MatchString(name) {
		return fmt.Errorf("must start with a letter or underscore and contain only letters, digits, underscores, hyphens, or spaces")
	}
	return nil
}

func isValidAction(a Action) bool {
	for _, valid := range ValidActions {
		if a == valid {
			return true
		}
	}
	return false
}

func actionList() string {
	parts := make([]string, len(ValidActions))
	for i, a := range ValidActions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}
