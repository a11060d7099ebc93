package policy

import (
	"time"

	"github.com/felixgeelhaar/complyscan/internal/confidence"
)

// DefaultPath is where the CLI looks for a policy file
const DefaultPath = ".complyscan/policy.yaml"

// Policy represents the complete policy configuration
type Policy struct {
	Version    string           `yaml:"version"`
	Scoring    Scoring          `yaml:"scoring"`
	Escalation Escalation       `yaml:"escalation"`
	Confidence confidence.Model `yaml:"confidence"`
	Rules      RulesPolicy      `yaml:"rules"`
}

// Scoring defines the weighted scorer
type Scoring struct {
	// Weights maps obligation category to weight. Weights are normalised over
	// the categories that have applicable checks.
	Weights map[string]float64 `yaml:"weights"`

	// Obligations overrides the category of individual obligation ids
	Obligations map[string]string `yaml:"obligations,omitempty"`

	CriticalCap CriticalCap `yaml:"critical_cap"`
}

// CriticalCap bounds the score when a critical obligation fails
type CriticalCap struct {
	Enabled bool `yaml:"enabled"`
	// Ceiling is the highest score a scan with a failed critical check can reach
	Ceiling int `yaml:"ceiling"`
}

// Escalation defines when and how uncertain findings go to the judgment oracle
type Escalation struct {
	Enabled bool `yaml:"enabled"`

	// BandLow and BandHigh bound the closed confidence band that is escalated
	BandLow  int `yaml:"band_low"`
	BandHigh int `yaml:"band_high"`

	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`

	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	// BudgetUSD caps the estimated spend of one scan; 0 disables the cap
	BudgetUSD float64 `yaml:"budget_usd"`
	// MaxFindings caps how many findings one scan escalates; 0 disables the cap
	MaxFindings int `yaml:"max_findings"`

	MaxSnippets     int `yaml:"max_snippets"`
	MaxSnippetLines int `yaml:"max_snippet_lines"`

	// CacheDir stores oracle responses keyed by prompt hash; empty disables caching
	CacheDir string `yaml:"cache_dir"`
}

// RulesPolicy enables or disables individual rules
type RulesPolicy struct {
	Disabled []string `yaml:"disabled,omitempty"`
}

// IsDisabled reports whether a rule id is disabled
func (r RulesPolicy) IsDisabled(id string) bool {
	for _, d := range r.Disabled {
		if d == id {
			return true
		}
	}
	return false
}
