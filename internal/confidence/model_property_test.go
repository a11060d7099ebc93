package confidence

import (
	"testing"

	"pgregory.net/rapid"
)

// TestLevel_IsMonotonic tests that sorting by confidence never reorders the level sequence
func TestLevel_IsMonotonic(t *testing.T) {
	m := DefaultModel()
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(-20, 120).Draw(t, "a")
		b := rapid.IntRange(-20, 120).Draw(t, "b")
		if a > b {
			a, b = b, a
		}
		if m.Level(a).Ordinal() > m.Level(b).Ordinal() {
			t.Fatalf("confidence %d bucketed %s above %d bucketed %s", a, m.Level(a), b, m.Level(b))
		}
	})
}

// TestResult_IsBounded tests that every layer mapping stays within 0..100
func TestResult_IsBounded(t *testing.T) {
	m := DefaultModel()
	rapid.Check(t, func(t *rapid.T) {
		results := []Result{
			m.FromL1(rapid.Bool().Draw(t, "l1"), ""),
			m.FromL2(rapid.SampledFrom([]DocPresence{DocPresent, DocPartial, DocAbsent}).Draw(t, "l2"), ""),
			m.FromL3(ConfigSignal{
				Status:       rapid.SampledFrom([]ConfigStatus{ConfigConfigured, ConfigDetected, ConfigMissing}).Draw(t, "l3"),
				Explicitness: rapid.Float64Range(-1, 2).Draw(t, "explicitness"),
			}, ""),
			m.FromL4(PatternSignal{
				Specificity:  rapid.SampledFrom([]Specificity{SpecificityNarrow, SpecificityBroad}).Draw(t, "spec"),
				Matched:      rapid.Bool().Draw(t, "matched"),
				Corroborated: rapid.Bool().Draw(t, "corroborated"),
			}, ""),
		}
		for _, r := range results {
			if r.Confidence < 0 || r.Confidence > 100 {
				t.Fatalf("confidence out of range: %d", r.Confidence)
			}
			if r.Level != m.Level(r.Confidence) {
				t.Fatalf("level %s does not match bucket of %d", r.Level, r.Confidence)
			}
		}
	})
}

// TestFromL3_ExplicitnessIsMonotonicForPasses tests that more explicit evidence never lowers a passing confidence
func TestFromL3_ExplicitnessIsMonotonicForPasses(t *testing.T) {
	m := DefaultModel()
	rapid.Check(t, func(t *rapid.T) {
		status := rapid.SampledFrom([]ConfigStatus{ConfigConfigured, ConfigDetected}).Draw(t, "status")
		a := rapid.Float64Range(0, 1).Draw(t, "a")
		b := rapid.Float64Range(0, 1).Draw(t, "b")
		if a > b {
			a, b = b, a
		}
		lo := m.FromL3(ConfigSignal{Status: status, Explicitness: a}, "")
		hi := m.FromL3(ConfigSignal{Status: status, Explicitness: b}, "")
		if lo.Confidence > hi.Confidence {
			t.Fatalf("explicitness %.2f gave %d > explicitness %.2f gave %d", a, lo.Confidence, b, hi.Confidence)
		}
	})
}
