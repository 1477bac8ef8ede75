package escalation

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresRuleStore implements RuleStore backed by PostgreSQL, scoped
// to one region.
type PostgresRuleStore struct {
	db     *sql.DB
	region string
}

// NewPostgresRuleStore creates a Postgres-backed store for a region.
func NewPostgresRuleStore(db *sql.DB, region string) *PostgresRuleStore {
	return &PostgresRuleStore{db: db, region: region}
}

// Add inserts a new rule.
func (s *PostgresRuleStore) Add(rule *Rule) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM escalation_rules WHERE id = $1 AND region = $2)
	`, rule.ID, s.region).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check rule existence: %w", err)
	}
	if exists {
		return fmt.Errorf("escalation rule with ID %s already exists", rule.ID)
	}

	_, err = s.db.Exec(`
		INSERT INTO escalation_rules (id, region, name, expression, action, weight, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rule.ID, s.region, rule.Name, rule.Expression, string(rule.Action), rule.Weight,
		rule.Active, rule.CreatedAt, rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert escalation rule: %w", err)
	}
	return nil
}

// Get retrieves a rule by ID.
func (s *PostgresRuleStore) Get(id string) (*Rule, error) {
	var rule Rule
	var action string
	err := s.db.QueryRow(`
		SELECT id, region, name, expression, action, weight, active, created_at, updated_at
		FROM escalation_rules
		WHERE id = $1 AND region = $2
	`, id, s.region).Scan(
		&rule.ID,
		&rule.Region,
		&rule.Name,
		&rule.Expression,
		&action,
		&rule.Weight,
		&rule.Active,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("escalation rule %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escalation rule: %w", err)
	}

	rule.Action = Action(action)
	return &rule, nil
}

// ListActive returns all active rules for the region.
func (s *PostgresRuleStore) ListActive() ([]*Rule, error) {
	rows, err := s.db.Query(`
		SELECT id, region, name, expression, action, weight, active, created_at, updated_at
		FROM escalation_rules
		WHERE region = $1 AND active = true
		ORDER BY created_at ASC
	`, s.region)
	if err != nil {
		return nil, fmt.Errorf("failed to list active escalation rules: %w", err)
	}
	defer rows.Close()

	var rulesList []*Rule
	for rows.Next() {
		var r Rule
		var action string
		if err := rows.Scan(&r.ID, &r.Region, &r.Name, &r.Expression, &action,
			&r.Weight, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan escalation rule: %w", err)
		}
		r.Action = Action(action)
		rulesList = append(rulesList, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating escalation rules: %w", err)
	}

	return rulesList, nil
}

// Update modifies an existing rule.
func (s *PostgresRuleStore) Update(rule *Rule) error {
	if _, err := s.Get(rule.ID); err != nil {
		return err
	}

	rule.UpdatedAt = time.Now()

	result, err := s.db.Exec(`
		UPDATE escalation_rules
		SET name = $1, expression = $2, action = $3, weight = $4, active = $5, updated_at = $6
		WHERE id = $7 AND region = $8
	`, rule.Name, rule.Expression, string(rule.Action), rule.Weight, rule.Active,
		rule.UpdatedAt, rule.ID, s.region)

	if err != nil {
		return fmt.Errorf("failed to update escalation rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("escalation rule %s not found", rule.ID)
	}

	return nil
}

// Delete removes a rule.
func (s *PostgresRuleStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM escalation_rules
		WHERE id = $1 AND region = $2
	`, id, s.region)

	if err != nil {
		return fmt.Errorf("failed to delete escalation rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("escalation rule %s not found", id)
	}

	return nil
}
