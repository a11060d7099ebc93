package domain

import "fmt"

// ConfidenceLevel is the discrete bucket of a 0..100 confidence score.
// Confidence measures how likely a check is satisfied, so PASS sits at the top.
type ConfidenceLevel string

const (
	LevelPass       ConfidenceLevel = "PASS"
	LevelLikelyPass ConfidenceLevel = "LIKELY_PASS"
	LevelUncertain  ConfidenceLevel = "UNCERTAIN"
	LevelLikelyFail ConfidenceLevel = "LIKELY_FAIL"
	LevelFail       ConfidenceLevel = "FAIL"
)

// AllLevels lists every level from lowest confidence to highest
func AllLevels() []ConfidenceLevel {
	return []ConfidenceLevel{LevelFail, LevelLikelyFail, LevelUncertain, LevelLikelyPass, LevelPass}
}

// Validate checks if the level is valid
func (l ConfidenceLevel) Validate() error {
	if l.Ordinal() < 0 {
		return fmt.Errorf("invalid confidence level %q", string(l))
	}
	return nil
}

// Ordinal positions the level in the total order FAIL < LIKELY_FAIL < UNCERTAIN < LIKELY_PASS < PASS.
// Invalid levels return -1.
func (l ConfidenceLevel) Ordinal() int {
	switch l {
	case LevelFail:
		return 0
	case LevelLikelyFail:
		return 1
	case LevelUncertain:
		return 2
	case LevelLikelyPass:
		return 3
	case LevelPass:
		return 4
	default:
		return -1
	}
}

// String returns the string representation
func (l ConfidenceLevel) String() string {
	return string(l)
}
