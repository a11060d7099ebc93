package domain

import (
	"fmt"
	"strings"
)

// Severity is the impact of an unmet obligation.
// This is a value object that enforces valid severity values.
type Severity string

// Valid severities, highest first
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// AllSeverities lists every severity from highest to lowest
func AllSeverities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
}

// NewSeverity creates a Severity from a case-insensitive string with validation
func NewSeverity(value string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(value)))
	if err := s.Validate(); err != nil {
		return "", err
	}
	return s, nil
}

// Validate checks if the severity is valid
func (s Severity) Validate() error {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return nil
	default:
		return fmt.Errorf("invalid severity %q: must be critical, high, medium, low, or info", string(s))
	}
}

// String returns the string representation
func (s Severity) String() string {
	return string(s)
}

// Rank returns the numeric rank of a severity (higher = more severe, 0 = invalid)
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Priority returns the remediation priority of a failed check: 1 for critical down to 5 for info.
func (s Severity) Priority() int {
	if s.Rank() == 0 {
		return 0
	}
	return 6 - s.Rank()
}

// IsHigherThan checks if this severity outranks another
func (s Severity) IsHigherThan(other Severity) bool {
	return s.Rank() > other.Rank()
}

// IsLowerThan checks if this severity is outranked by another
func (s Severity) IsLowerThan(other Severity) bool {
	return s.Rank() < other.Rank()
}
