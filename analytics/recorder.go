package analytics

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is one non-PII turn summary. SanitizedQuery has already passed
// through SanitizeForPrivacy; no other text field may carry user input.
type Event struct {
	ID                string
	Region            string
	TriageLevel       string
	IntentType        string
	EmergencyDetected bool
	EmergencyCategory string
	RoutedToProvider  bool
	AIBlocked         bool
	SymptomCount      int
	DisclaimerCount   int
	SanitizedQuery    string
	CreatedAt         time.Time
}

// Recorder persists turn summaries. Implementations must tolerate being
// handed events concurrently.
type Recorder interface {
	Record(event Event) error
}

// PostgresRecorder writes events to the analytics_events table.
type PostgresRecorder struct {
	db *sql.DB
}

// NewPostgresRecorder creates a Postgres-backed recorder.
func NewPostgresRecorder(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// Record inserts one event, assigning an id and timestamp if unset.
func (r *PostgresRecorder) Record(event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO analytics_events
			(id, region, triage_level, intent_type, emergency_detected, emergency_category,
			 routed_to_provider, ai_blocked, symptom_count, disclaimer_count, sanitized_query, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, event.ID, event.Region, event.TriageLevel, event.IntentType, event.EmergencyDetected,
		event.EmergencyCategory, event.RoutedToProvider, event.AIBlocked,
		event.SymptomCount, event.DisclaimerCount, event.SanitizedQuery, event.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert analytics event: %w", err)
	}
	return nil
}

// NopRecorder drops events; used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) Record(Event) error { return nil }
