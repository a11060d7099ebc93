package confidence

import (
	"fmt"
	"math"

	"github.com/felixgeelhaar/complyscan/internal/domain"
)

// Result is the confidence attached to one non-skip verdict
type Result struct {
	Confidence   int                    `json:"confidence"`
	Level        domain.ConfidenceLevel `json:"level"`
	ObligationID string                 `json:"obligationId,omitempty"`
}

// Bands holds the lower bound of each level. FAIL covers everything below LikelyFail.
type Bands struct {
	Pass       int `yaml:"pass" json:"pass"`
	LikelyPass int `yaml:"likely_pass" json:"likelyPass"`
	Uncertain  int `yaml:"uncertain" json:"uncertain"`
	LikelyFail int `yaml:"likely_fail" json:"likelyFail"`
}

// L1Anchors maps the boolean file-presence signal
type L1Anchors struct {
	Pass int `yaml:"pass" json:"pass"`
	Fail int `yaml:"fail" json:"fail"`
}

// L2Anchors maps the graded document status
type L2Anchors struct {
	Present int `yaml:"present" json:"present"`
	Partial int `yaml:"partial" json:"partial"`
	Absent  int `yaml:"absent" json:"absent"`
}

// Span is the confidence range an L3 status covers, from implicit to explicit evidence
type Span struct {
	Implicit int `yaml:"implicit" json:"implicit"`
	Explicit int `yaml:"explicit" json:"explicit"`
}

// L3Anchors maps config status and explicitness
type L3Anchors struct {
	Configured Span `yaml:"configured" json:"configured"`
	Detected   Span `yaml:"detected" json:"detected"`
	Missing    Span `yaml:"missing" json:"missing"`
}

// L4Anchors maps pattern specificity and match status
type L4Anchors struct {
	NarrowMatch        int `yaml:"narrow_match" json:"narrowMatch"`
	NarrowMiss         int `yaml:"narrow_miss" json:"narrowMiss"`
	BroadMatch         int `yaml:"broad_match" json:"broadMatch"`
	BroadMiss          int `yaml:"broad_miss" json:"broadMiss"`
	CorroborationBonus int `yaml:"corroboration_bonus" json:"corroborationBonus"`
}

// Model converts layer signals into confidence results. All values are policy.
type Model struct {
	Bands Bands     `yaml:"bands" json:"bands"`
	L1    L1Anchors `yaml:"l1" json:"l1"`
	L2    L2Anchors `yaml:"l2" json:"l2"`
	L3    L3Anchors `yaml:"l3" json:"l3"`
	L4    L4Anchors `yaml:"l4" json:"l4"`
}

// DefaultModel returns the shipped confidence constants
func DefaultModel() Model {
	return Model{
		Bands: Bands{Pass: 85, LikelyPass: 71, Uncertain: 40, LikelyFail: 16},
		L1:    L1Anchors{Pass: 95, Fail: 5},
		L2:    L2Anchors{Present: 90, Partial: 55, Absent: 10},
		L3: L3Anchors{
			Configured: Span{Implicit: 65, Explicit: 95},
			Detected:   Span{Implicit: 45, Explicit: 70},
			Missing:    Span{Implicit: 35, Explicit: 5},
		},
		L4: L4Anchors{
			NarrowMatch:        90,
			NarrowMiss:         10,
			BroadMatch:         68,
			BroadMiss:          45,
			CorroborationBonus: 10,
		},
	}
}

// Validate checks that bands are strictly ordered inside 0..100 and anchors are in range
func (m Model) Validate() error {
	b := m.Bands
	if !(0 < b.LikelyFail && b.LikelyFail < b.Uncertain && b.Uncertain < b.LikelyPass && b.LikelyPass < b.Pass && b.Pass <= 100) {
		return fmt.Errorf("confidence bands must satisfy 0 < likely_fail < uncertain < likely_pass < pass <= 100, got %+v", b)
	}
	anchors := map[string]int{
		"l1.pass": m.L1.Pass, "l1.fail": m.L1.Fail,
		"l2.present": m.L2.Present, "l2.partial": m.L2.Partial, "l2.absent": m.L2.Absent,
		"l3.configured.implicit": m.L3.Configured.Implicit, "l3.configured.explicit": m.L3.Configured.Explicit,
		"l3.detected.implicit": m.L3.Detected.Implicit, "l3.detected.explicit": m.L3.Detected.Explicit,
		"l3.missing.implicit": m.L3.Missing.Implicit, "l3.missing.explicit": m.L3.Missing.Explicit,
		"l4.narrow_match": m.L4.NarrowMatch, "l4.narrow_miss": m.L4.NarrowMiss,
		"l4.broad_match": m.L4.BroadMatch, "l4.broad_miss": m.L4.BroadMiss,
		"l4.corroboration_bonus": m.L4.CorroborationBonus,
	}
	for name, v := range anchors {
		if v < 0 || v > 100 {
			return fmt.Errorf("confidence anchor %s must be within 0..100, got %d", name, v)
		}
	}
	return nil
}

// Level buckets a confidence score. The mapping is monotonic and total.
func (m Model) Level(c int) domain.ConfidenceLevel {
	c = Clamp(c)
	switch {
	case c >= m.Bands.Pass:
		return domain.LevelPass
	case c >= m.Bands.LikelyPass:
		return domain.LevelLikelyPass
	case c >= m.Bands.Uncertain:
		return domain.LevelUncertain
	case c >= m.Bands.LikelyFail:
		return domain.LevelLikelyFail
	default:
		return domain.LevelFail
	}
}

// Result builds a Result for a raw score
func (m Model) Result(c int, obligationID string) Result {
	c = Clamp(c)
	return Result{Confidence: c, Level: m.Level(c), ObligationID: obligationID}
}

// FromL1 maps a presence check. Presence and absence are treated as near certain.
func (m Model) FromL1(passed bool, obligationID string) Result {
	if passed {
		return m.Result(m.L1.Pass, obligationID)
	}
	return m.Result(m.L1.Fail, obligationID)
}

// FromL2 maps a document status; partial lands in the uncertain band.
func (m Model) FromL2(status DocPresence, obligationID string) Result {
	switch status {
	case DocPresent:
		return m.Result(m.L2.Present, obligationID)
	case DocPartial:
		return m.Result(m.L2.Partial, obligationID)
	default:
		return m.Result(m.L2.Absent, obligationID)
	}
}

// FromL3 interpolates between the implicit and explicit anchor of the status.
func (m Model) FromL3(sig ConfigSignal, obligationID string) Result {
	var span Span
	switch sig.Status {
	case ConfigConfigured:
		span = m.L3.Configured
	case ConfigDetected:
		span = m.L3.Detected
	default:
		span = m.L3.Missing
	}
	e := math.Max(0, math.Min(1, sig.Explicitness))
	c := float64(span.Implicit) + e*float64(span.Explicit-span.Implicit)
	return m.Result(int(math.Round(c)), obligationID)
}

// FromL4 maps a pattern signal. Broad patterns self-report less certainty than
// narrow ones; L3 corroboration moves the score further in the verdict's direction.
func (m Model) FromL4(sig PatternSignal, obligationID string) Result {
	var c int
	switch {
	case sig.Specificity == SpecificityNarrow && sig.Matched:
		c = m.L4.NarrowMatch
	case sig.Specificity == SpecificityNarrow:
		c = m.L4.NarrowMiss
	case sig.Matched:
		c = m.L4.BroadMatch
	default:
		c = m.L4.BroadMiss
	}
	if sig.Corroborated {
		if sig.Matched {
			c += m.L4.CorroborationBonus
		} else {
			c -= m.L4.CorroborationBonus
		}
	}
	return m.Result(c, obligationID)
}

// Of is the layer-generic entry point. Signal must match the layer's shape:
// L1 BoolSignal, L2 DocPresence, L3 ConfigSignal, L4 PatternSignal.
func (m Model) Of(layer domain.Layer, signal any, obligationID string) (Result, error) {
	switch layer {
	case domain.LayerFilePresence:
		if s, ok := signal.(BoolSignal); ok {
			return m.FromL1(bool(s), obligationID), nil
		}
	case domain.LayerDocStructure:
		if s, ok := signal.(DocPresence); ok {
			if err := s.validate(); err != nil {
				return Result{}, err
			}
			return m.FromL2(s, obligationID), nil
		}
	case domain.LayerDependency:
		if s, ok := signal.(ConfigSignal); ok {
			if err := s.Status.validate(); err != nil {
				return Result{}, err
			}
			return m.FromL3(s, obligationID), nil
		}
	case domain.LayerPattern:
		if s, ok := signal.(PatternSignal); ok {
			return m.FromL4(s, obligationID), nil
		}
	default:
		return Result{}, fmt.Errorf("layer %s has no confidence mapping", layer)
	}
	return Result{}, fmt.Errorf("signal %T does not match layer %s", signal, layer)
}

// Clamp bounds a score to 0..100
func Clamp(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
