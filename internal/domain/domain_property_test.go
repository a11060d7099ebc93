package domain

import (
	"testing"

	"pgregory.net/rapid"
)

func genSeverity() *rapid.Generator[Severity] {
	return rapid.SampledFrom(AllSeverities())
}

// TestSeverity_ComparisonIsAntisymmetric tests that two severities never outrank each other
func TestSeverity_ComparisonIsAntisymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genSeverity().Draw(t, "a")
		b := genSeverity().Draw(t, "b")

		if a.IsHigherThan(b) && b.IsHigherThan(a) {
			t.Fatalf("antisymmetry violated for %s and %s", a, b)
		}
		if a.IsHigherThan(b) != b.IsLowerThan(a) {
			t.Fatalf("IsHigherThan and IsLowerThan disagree for %s and %s", a, b)
		}
	})
}

// TestSeverity_RoundTripThroughString tests that severities survive String() and NewSeverity
func TestSeverity_RoundTripThroughString(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := genSeverity().Draw(t, "severity")
		back, err := NewSeverity(s.String())
		if err != nil {
			t.Fatalf("round-trip error: %v", err)
		}
		if back != s {
			t.Fatalf("round-trip changed %q into %q", s, back)
		}
	})
}

// TestZoneFor_IsMonotonic tests that a higher score never lands in a worse zone
func TestZoneFor_IsMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(0, 100).Draw(t, "a")
		b := rapid.IntRange(0, 100).Draw(t, "b")
		if a > b {
			a, b = b, a
		}
		if ZoneFor(a).Rank() > ZoneFor(b).Rank() {
			t.Fatalf("score %d zoned %s but higher score %d zoned %s", a, ZoneFor(a), b, ZoneFor(b))
		}
	})
}

// TestConfidenceLevel_OrdinalsAreDistinct tests that the level order is total
func TestConfidenceLevel_OrdinalsAreDistinct(t *testing.T) {
	seen := map[int]ConfidenceLevel{}
	for i, l := range AllLevels() {
		if l.Ordinal() != i {
			t.Errorf("%s ordinal = %d, want %d", l, l.Ordinal(), i)
		}
		if prev, dup := seen[l.Ordinal()]; dup {
			t.Errorf("%s and %s share ordinal %d", prev, l, l.Ordinal())
		}
		seen[l.Ordinal()] = l
	}
	if ConfidenceLevel("MAYBE").Validate() == nil {
		t.Error("MAYBE should be invalid")
	}
}
