// Package telemetry keeps user content out of logs and spans.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// PIILevel defines how much user content may be recorded.
type PIILevel string

const (
	// PIILevelNone records no user content at all
	PIILevelNone PIILevel = "none"
	// PIILevelHashed records content with detected PII replaced by salted hashes
	PIILevelHashed PIILevel = "hashed"
	// PIILevelFull records content unchanged
	PIILevelFull PIILevel = "full"
)

// ParseLevel validates a configured level. Empty means hashed.
func ParseLevel(raw string) (PIILevel, error) {
	switch PIILevel(strings.ToLower(strings.TrimSpace(raw))) {
	case PIILevelNone:
		return PIILevelNone, nil
	case PIILevelHashed, "":
		return PIILevelHashed, nil
	case PIILevelFull:
		return PIILevelFull, nil
	default:
		return "", fmt.Errorf("unknown PII level %q", raw)
	}
}

const defaultMaxQueryRunes = 200

type piiPattern struct {
	label  string
	re     *regexp.Regexp
	redact bool // replace with a fixed marker instead of a hash
}

// Sanitizer prepares queries for logging.
type Sanitizer struct {
	level    PIILevel
	salt     string
	maxRunes int
	patterns []piiPattern
}

// NewSanitizer creates a sanitizer. salt keeps hashes from being comparable
// across deployments.
func NewSanitizer(level PIILevel, salt string) *Sanitizer {
	return &Sanitizer{
		level:    level,
		salt:     salt,
		maxRunes: defaultMaxQueryRunes,
		// Order matters: the most specific number shapes go first.
		patterns: []piiPattern{
			{label: "EMAIL", re: regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
			{label: "CC", re: regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`), redact: true},
			{label: "SSN", re: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), redact: true},
			{label: "PHONE", re: regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
			{label: "IP", re: regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
			{label: "KEY", re: regexp.MustCompile(`\b(?:sk|gsk|csk)-[A-Za-z0-9_-]{8,}\b`), redact: true},
		},
	}
}

// Level reports the configured level.
func (s *Sanitizer) Level() PIILevel {
	return s.level
}

// Query returns the form of q that may be logged. Long queries are
// truncated.
func (s *Sanitizer) Query(q string) string {
	switch s.level {
	case PIILevelNone:
		return fmt.Sprintf("[REDACTED len=%d]", utf8.RuneCountInString(q))
	case PIILevelFull:
		return s.truncate(q)
	default:
		return s.truncate(s.hashPII(q))
	}
}

// Fingerprint returns a short salted hash of q so repeated queries can be
// correlated without recording them.
func (s *Sanitizer) Fingerprint(q string) string {
	return s.hash(q)
}

func (s *Sanitizer) hashPII(input string) string {
	result := input
	for _, p := range s.patterns {
		result = p.re.ReplaceAllStringFunc(result, func(match string) string {
			if p.redact {
				return fmt.Sprintf("[%s:REDACTED]", p.label)
			}
			return fmt.Sprintf("[%s:%s]", p.label, s.hash(match))
		})
	}
	return result
}

func (s *Sanitizer) truncate(q string) string {
	if s.maxRunes <= 0 || utf8.RuneCountInString(q) <= s.maxRunes {
		return q
	}
	runes := []rune(q)
	return string(runes[:s.maxRunes]) + "…"
}

// hash returns the first 8 hex chars of a salted SHA-256.
func (s *Sanitizer) hash(data string) string {
	h := sha256.Sum256([]byte(data + s.salt))
	return hex.EncodeToString(h[:])[:8]
}
