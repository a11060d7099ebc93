package domain

import "fmt"

// VerdictType is the outcome of one check
type VerdictType string

const (
	VerdictPass VerdictType = "pass"
	VerdictFail VerdictType = "fail"
	VerdictSkip VerdictType = "skip"
)

// Validate checks if the verdict type is valid
func (v VerdictType) Validate() error {
	switch v {
	case VerdictPass, VerdictFail, VerdictSkip:
		return nil
	default:
		return fmt.Errorf("invalid verdict %q: must be pass, fail, or skip", string(v))
	}
}

// String returns the string representation
func (v VerdictType) String() string {
	return string(v)
}
