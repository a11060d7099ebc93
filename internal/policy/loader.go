package policy

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/complyscan/internal/confidence"
	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/errors"
)

// LoadPolicy reads a Policy from a YAML file. Fields missing from the file keep
// their defaults; a weights map in the file replaces the default weights entirely.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewPolicyNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read policy file", err)
	}

	return ParsePolicy(data, path)
}

// ParsePolicy decodes policy YAML on top of the defaults
func ParsePolicy(data []byte, source string) (*Policy, error) {
	p := DefaultPolicy()
	defaultWeights := p.Scoring.Weights
	p.Scoring.Weights = nil

	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, errors.NewFileUnmarshalError(source, "YAML", err)
	}

	if p.Scoring.Weights == nil {
		p.Scoring.Weights = defaultWeights
	}

	return p, nil
}

// DefaultPolicy returns a policy with sensible defaults
func DefaultPolicy() *Policy {
	return &Policy{
		Version: "1",
		Scoring: Scoring{
			Weights: map[string]float64{
				"transparency":    30,
				"documentation":   25,
				"data_governance": 20,
				"human_oversight": 15,
				"record_keeping":  10,
			},
			CriticalCap: CriticalCap{
				Enabled: true,
				Ceiling: 79,
			},
		},
		Escalation: Escalation{
			Enabled:         true,
			BandLow:         40,
			BandHigh:        70,
			Concurrency:     4,
			Timeout:         30 * time.Second,
			Provider:        "anthropic",
			Model:           "claude-haiku-3.5",
			BudgetUSD:       0.50,
			MaxFindings:     25,
			MaxSnippets:     5,
			MaxSnippetLines: 500,
			CacheDir:        ".complyscan/cache",
		},
		Confidence: confidence.DefaultModel(),
	}
}

// SavePolicy writes a Policy to a YAML file
func SavePolicy(policy *Policy, path string) error {
	data, err := yaml.Marshal(policy)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "marshal policy", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeFileWriteFailed, "create policy directory", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "write policy file", err)
	}

	return nil
}

// Validate checks the whole policy. Scoring problems are reported but the
// scan still runs on the fallback scorer.
func (p *Policy) Validate() error {
	var errs []error
	if err := p.Scoring.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.Escalation.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.Confidence.Validate(); err != nil {
		errs = append(errs, errors.Wrap(errors.ErrCodePolicyBands, "confidence", err))
	}
	return stderrors.Join(errs...)
}

// Validate checks that weights are usable by the weighted scorer
func (s *Scoring) Validate() error {
	if s == nil || len(s.Weights) == 0 {
		return errors.New(errors.ErrCodePolicyWeights, "scoring.weights is empty")
	}
	var sum float64
	for category, w := range s.Weights {
		if w < 0 {
			return errors.New(errors.ErrCodePolicyWeights, fmt.Sprintf("scoring.weights.%s is negative (%g)", category, w))
		}
		sum += w
	}
	if sum == 0 {
		return errors.New(errors.ErrCodePolicyWeights, "scoring.weights sum to zero")
	}
	if s.CriticalCap.Ceiling < 0 || s.CriticalCap.Ceiling > 100 {
		return errors.NewPolicyInvalidError(fmt.Sprintf("scoring.critical_cap.ceiling must be within 0..100, got %d", s.CriticalCap.Ceiling))
	}
	// a capped score must never read as green
	if s.CriticalCap.Enabled && s.CriticalCap.Ceiling >= domain.GreenThreshold {
		return errors.NewPolicyInvalidError(fmt.Sprintf("scoring.critical_cap.ceiling must be below the green threshold %d, got %d",
			domain.GreenThreshold, s.CriticalCap.Ceiling))
	}
	return nil
}

// Validate checks escalation bounds
func (e Escalation) Validate() error {
	if e.BandLow < 0 || e.BandHigh > 100 || e.BandLow > e.BandHigh {
		return errors.NewPolicyInvalidError(fmt.Sprintf("escalation band [%d,%d] must satisfy 0 <= low <= high <= 100", e.BandLow, e.BandHigh))
	}
	if e.Concurrency < 0 {
		return errors.NewPolicyInvalidError("escalation.concurrency must not be negative")
	}
	if e.Timeout < 0 {
		return errors.NewPolicyInvalidError("escalation.timeout must not be negative")
	}
	if e.BudgetUSD < 0 || e.MaxFindings < 0 {
		return errors.NewPolicyInvalidError("escalation budget and max_findings must not be negative")
	}
	return nil
}

// CategoryFor resolves the scoring category of a check: an obligation override
// wins over the rule's own category.
func (s *Scoring) CategoryFor(obligationID, ruleCategory string) string {
	if s != nil && obligationID != "" {
		if c, ok := s.Obligations[obligationID]; ok && c != "" {
			return c
		}
	}
	return ruleCategory
}
