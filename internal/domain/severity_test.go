package domain

import "testing"

func TestNewSeverity(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    Severity
		wantErr bool
	}{
		{name: "critical", value: "critical", want: SeverityCritical},
		{name: "upper case is normalised", value: "HIGH", want: SeverityHigh},
		{name: "surrounding space", value: " info ", want: SeverityInfo},
		{name: "unknown", value: "severe", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSeverity(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSeverity(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NewSeverity(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestSeverityStrictOrder(t *testing.T) {
	all := AllSeverities()
	for i := 0; i < len(all)-1; i++ {
		if !all[i].IsHigherThan(all[i+1]) {
			t.Errorf("%s should outrank %s", all[i], all[i+1])
		}
	}
	if SeverityCritical.Priority() != 1 || SeverityInfo.Priority() != 5 {
		t.Errorf("priority mapping wrong: critical=%d info=%d", SeverityCritical.Priority(), SeverityInfo.Priority())
	}
	if Severity("nope").Priority() != 0 {
		t.Error("invalid severity should have priority 0")
	}
}

func TestZoneFor(t *testing.T) {
	tests := []struct {
		score int
		want  Zone
	}{
		{100, ZoneGreen},
		{80, ZoneGreen},
		{79, ZoneYellow},
		{50, ZoneYellow},
		{49, ZoneRed},
		{0, ZoneRed},
	}
	for _, tt := range tests {
		if got := ZoneFor(tt.score); got != tt.want {
			t.Errorf("ZoneFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestVerdictTypeValidate(t *testing.T) {
	for _, v := range []VerdictType{VerdictPass, VerdictFail, VerdictSkip} {
		if err := v.Validate(); err != nil {
			t.Errorf("%s should be valid: %v", v, err)
		}
	}
	if err := VerdictType("maybe").Validate(); err == nil {
		t.Error("maybe should be invalid")
	}
}
