package check

import (
	"fmt"

	"github.com/felixgeelhaar/complyscan/internal/domain"
)

// Meta describes a rule. ID is stable across runs.
type Meta struct {
	ID           string          `json:"id" yaml:"id"`
	Layer        domain.Layer    `json:"layer" yaml:"layer"`
	Category     string          `json:"category" yaml:"category"`
	ObligationID string          `json:"obligationId,omitempty" yaml:"obligation_id,omitempty"`
	Article      string          `json:"article,omitempty" yaml:"article,omitempty"`
	Severity     domain.Severity `json:"severity" yaml:"severity"`
	Description  string          `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate checks that the metadata is usable by the runner
func (m Meta) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("rule id is required")
	}
	if m.Layer < domain.LayerFilePresence || m.Layer > domain.LayerPattern {
		return fmt.Errorf("rule %s: layer %s is not a detection layer", m.ID, m.Layer)
	}
	if m.Category == "" {
		return fmt.Errorf("rule %s: category is required", m.ID)
	}
	if err := m.Severity.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", m.ID, err)
	}
	return nil
}

// Describer is anything that carries rule metadata
type Describer interface {
	Meta() Meta
}

// Unit is a stateless, side-effect-free check evaluated directly against a FileSet.
// It must not perform I/O; a panic is treated as a rule bug.
type Unit interface {
	Describer
	Check(fs FileSet) []Verdict
}

// UnitFunc adapts a plain function into a Unit
type UnitFunc struct {
	meta Meta
	fn   func(FileSet) []Verdict
}

// NewUnit wraps fn as a Unit with the given metadata
func NewUnit(meta Meta, fn func(FileSet) []Verdict) *UnitFunc {
	return &UnitFunc{meta: meta, fn: fn}
}

// Meta implements Describer
func (u *UnitFunc) Meta() Meta { return u.meta }

// Check implements Unit
func (u *UnitFunc) Check(fs FileSet) []Verdict { return u.fn(fs) }
