package escalation

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Engine compiles and evaluates one region's escalation rules.
// Thread-safe: evaluation takes read locks, rule mutations take write
// locks.
type Engine struct {
	env      *cel.Env
	store    RuleStore
	cache    RulesCache
	programs map[string]cel.Program // ruleID -> compiled program
	mu       sync.RWMutex
}

// newFactEnv declares the fixed fact document roots. Rules can only
// reference Triage, Emergency, and Query.
func newFactEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable(FactTriage, cel.DynType),
		cel.Variable(FactEmergency, cel.DynType),
		cel.Variable(FactQuery, cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// NewEngine builds an engine over the given store and compiles every
// active rule up front, so a malformed stored rule surfaces at startup
// rather than mid-turn.
func NewEngine(store RuleStore) (*Engine, error) {
	env, err := newFactEnv()
	if err != nil {
		return nil, err
	}

	en := &Engine{
		env:      env,
		store:    store,
		cache:    NewInMemoryRulesCache(DefaultCacheConfig()),
		programs: make(map[string]cel.Program),
	}

	if err := en.CompileAllRules(); err != nil {
		return nil, fmt.Errorf("failed to compile escalation rules: %w", err)
	}

	return en, nil
}

// CompileRule compiles a single rule expression. A cost limit caps
// runaway expressions from a misconfigured deployment.
func (en *Engine) CompileRule(ruleID, expression string) error {
	ast, issues := en.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("compile error: %w", issues.Err())
	}

	prog, err := en.env.Program(ast,
		cel.EvalOptions(cel.OptTrackState),
		cel.CostLimit(1000000),
	)
	if err != nil {
		return fmt.Errorf("program creation error: %w", err)
	}

	en.mu.Lock()
	en.programs[ruleID] = prog
	en.mu.Unlock()

	return nil
}

// CompileAllRules compiles every active rule and primes the cache.
func (en *Engine) CompileAllRules() error {
	rules, err := en.store.ListActive()
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if err := en.CompileRule(rule.ID, rule.Expression); err != nil {
			return fmt.Errorf("failed to compile rule %s (%s): %w", rule.ID, rule.Name, err)
		}
	}

	en.cache.Set(rules)
	return nil
}

// AddRule validates, compiles, and stores a new rule. If the store
// rejects it the compiled program is removed again.
func (en *Engine) AddRule(r *Rule) error {
	if _, err := en.store.Get(r.ID); err == nil {
		return fmt.Errorf("escalation rule with ID %s already exists", r.ID)
	}

	if err := ValidateRule(r); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}
	if err := en.CompileRule(r.ID, r.Expression); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.store.Add(r); err != nil {
		en.mu.Lock()
		delete(en.programs, r.ID)
		en.mu.Unlock()
		return err
	}

	en.cache.Invalidate()
	return nil
}

// UpdateRule validates and recompiles an existing rule.
func (en *Engine) UpdateRule(r *Rule) error {
	if err := ValidateRule(r); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}
	if err := en.CompileRule(r.ID, r.Expression); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.store.Update(r); err != nil {
		return err
	}

	en.cache.Invalidate()
	return nil
}

// DeleteRule removes a rule from the store and the compiled set.
func (en *Engine) DeleteRule(ruleID string) error {
	if err := en.store.Delete(ruleID); err != nil {
		return err
	}

	en.mu.Lock()
	delete(en.programs, ruleID)
	en.mu.Unlock()

	en.cache.Invalidate()
	return nil
}

// EvaluateAll evaluates every active rule against the facts. A rule
// that errors is reported with its error and skipped by aggregation;
// one broken rule never disables the rest.
func (en *Engine) EvaluateAll(facts map[string]any) ([]*RuleOutcome, error) {
	rules := en.cache.Get()
	if rules == nil {
		var err error
		rules, err = en.store.ListActive()
		if err != nil {
			return nil, err
		}
		en.cache.Set(rules)
	}

	results := make([]*RuleOutcome, 0, len(rules))
	for _, rule := range rules {
		en.mu.RLock()
		prog, exists := en.programs[rule.ID]
		en.mu.RUnlock()

		outcome := &RuleOutcome{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Action:   rule.Action,
			Weight:   rule.Weight,
		}

		if !exists {
			outcome.Err = fmt.Errorf("rule %s is not compiled", rule.ID)
			results = append(results, outcome)
			continue
		}

		out, _, err := prog.Eval(facts)
		if err != nil {
			outcome.Err = err
			results = append(results, outcome)
			continue
		}

		// Non-boolean expressions are treated as non-matches.
		if matched, ok := out.Value().(bool); ok {
			outcome.Matched = matched
		}
		results = append(results, outcome)
	}

	return results, nil
}
