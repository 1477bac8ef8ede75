// Package config collects the static configuration the pipeline runs
// under. Values are read from the environment once at startup; pipeline
// stages receive them as plain values and never touch the environment
// themselves.
package config

import (
	"os"
	"strconv"
	"time"
)

// Flags are the feature gates consulted by the prompt enhancer.
type Flags struct {
	// ConciseMode appends an output-length directive to non-educational
	// prompts.
	ConciseMode bool
	// RolePrompts enables the role-specific medication policy block.
	RolePrompts bool
	// ExpansionPrompts enables follow-up expansion questions and the
	// session-scoped expansion short-circuit.
	ExpansionPrompts bool
	// QuestionClassifier enables keyword question classification; when
	// off every question renders through the general template.
	QuestionClassifier bool
}

// Config is the full server configuration.
type Config struct {
	Port        string
	DatabaseURL string
	SessionTTL  time.Duration
	Flags       Flags
}

// Load reads configuration from the environment, applying defaults for
// anything unset. Feature flags default to enabled; the session TTL
// defaults to five minutes.
func Load() Config {
	cfg := Config{
		Port:        envOr("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SessionTTL:  5 * time.Minute,
		Flags: Flags{
			ConciseMode:        envBool("FEATURE_CONCISE_MODE", true),
			RolePrompts:        envBool("FEATURE_ROLE_PROMPTS", true),
			ExpansionPrompts:   envBool("FEATURE_EXPANSION_PROMPTS", true),
			QuestionClassifier: envBool("FEATURE_QUESTION_CLASSIFIER", true),
		},
	}

	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if ttl, err := time.ParseDuration(raw); err == nil && ttl > 0 {
			cfg.SessionTTL = ttl
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
