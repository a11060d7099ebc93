package confidence

import "fmt"

// DocPresence is the graded status an L2 document analyzer reports
type DocPresence string

const (
	DocPresent DocPresence = "present"
	DocPartial DocPresence = "partial"
	DocAbsent  DocPresence = "absent"
)

// ConfigStatus is the status an L3 dependency/config analyzer reports
type ConfigStatus string

const (
	// ConfigConfigured means the obligation is met by explicit configuration
	ConfigConfigured ConfigStatus = "configured"
	// ConfigDetected means supporting evidence exists but is not conclusive
	ConfigDetected ConfigStatus = "detected"
	// ConfigMissing means the required configuration is absent
	ConfigMissing ConfigStatus = "missing"
)

// Specificity grades how unambiguous an L4 pattern is
type Specificity string

const (
	SpecificityNarrow Specificity = "narrow"
	SpecificityBroad  Specificity = "broad"
)

// BoolSignal is the L1 signal: did the file-presence check pass
type BoolSignal bool

// ConfigSignal is the L3 signal. Explicitness in [0,1] grades how explicit the evidence is.
type ConfigSignal struct {
	Status       ConfigStatus
	Explicitness float64
}

// PatternSignal is the L4 signal
type PatternSignal struct {
	Specificity Specificity
	Matched     bool
	// Corroborated is set when L3 facts support the same conclusion
	Corroborated bool
}

// Passed reports the verdict a signal implies
func (s DocPresence) Passed() bool { return s == DocPresent }

// Passed reports the verdict a signal implies
func (s ConfigStatus) Passed() bool { return s != ConfigMissing }

func (s DocPresence) validate() error {
	switch s {
	case DocPresent, DocPartial, DocAbsent:
		return nil
	}
	return fmt.Errorf("invalid document status %q", string(s))
}

func (s ConfigStatus) validate() error {
	switch s {
	case ConfigConfigured, ConfigDetected, ConfigMissing:
		return nil
	}
	return fmt.Errorf("invalid config status %q", string(s))
}
