// Package analytics emits non-PII summary records about pipeline turns
// to the analytics collaborator: Prometheus counters for operational
// visibility plus an optional persisted event stream. Raw user text
// never leaves this package unsanitized.
package analytics

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{6,}\d`)
	digitPattern = regexp.MustCompile(`\d+`)
	namePattern  = regexp.MustCompile(`(?i)\bmy name is\s+\S+(?:\s+\S+)?`)
)

// sanitizedMaxLen caps how much redacted text an analytics record may
// carry.
const sanitizedMaxLen = 120

// SanitizeForPrivacy redacts direct identifiers from free text before
// it leaves the core: email addresses, phone-like digit runs, stated
// names, and any remaining digits. Output is truncated; redaction is
// best effort and analytics records should prefer counts over text.
func SanitizeForPrivacy(text string) string {
	out := emailPattern.ReplaceAllString(text, "[email]")
	out = namePattern.ReplaceAllString(out, "[name]")
	out = phonePattern.ReplaceAllString(out, "[phone]")
	out = digitPattern.ReplaceAllString(out, "[number]")
	out = strings.TrimSpace(out)

	return truncateRunes(out, sanitizedMaxLen)
}

// truncateRunes cuts at the last rune boundary at or before max bytes,
// so a multi-byte character is never split.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
