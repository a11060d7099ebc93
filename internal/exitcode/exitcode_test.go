package exitcode

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/errors"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"Success", Success, 0},
		{"GeneralError", GeneralError, 1},
		{"UsageError", UsageError, 2},
		{"PolicyViolation", PolicyViolation, 3},
		{"ConfigError", ConfigError, 4},
		{"AuthError", AuthError, 5},
		{"NetworkError", NetworkError, 6},
		{"Interrupted", Interrupted, 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.expected {
				t.Errorf("Exit code %s = %d, want %d", tt.name, tt.code, tt.expected)
			}
		})
	}
}

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error returns success", nil, Success},
		{"zone error", &ZoneError{Zone: domain.ZoneRed, Threshold: domain.ZoneRed, Score: 12}, PolicyViolation},
		{"wrapped zone error", fmt.Errorf("scan: %w", &ZoneError{Zone: domain.ZoneYellow, Threshold: domain.ZoneYellow}), PolicyViolation},
		{"usage wrapper", Usage(stderrors.New("bad --fail-on value")), UsageError},
		{"policy not found", errors.NewPolicyNotFoundError("x.yaml"), ConfigError},
		{"policy invalid", fmt.Errorf("load: %w", errors.NewPolicyInvalidError("weights")), ConfigError},
		{"provider config", errors.New(errors.ErrCodeProviderConfig, "unknown model"), ConfigError},
		{"provider auth", errors.NewProviderAuthError("anthropic"), AuthError},
		{"rate limited", errors.NewProviderRateLimitError("openai", "30"), NetworkError},
		{"provider api", errors.New(errors.ErrCodeProviderAPI, "http 500"), NetworkError},
		{"missing root", errors.New(errors.ErrCodeScanRootNotFound, "no such dir"), UsageError},
		{"cobra unknown flag", stderrors.New("unknown flag: --bogus"), UsageError},
		{"cobra arg count", stderrors.New("accepts at most 1 arg(s), received 2"), UsageError},
		{"scan cancelled", errors.New(errors.ErrCodeScanCancelled, "context canceled"), Interrupted},
		{"plain error", stderrors.New("disk full"), GeneralError},
		{"scan empty", errors.New(errors.ErrCodeScanEmpty, "no files"), GeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.expected {
				t.Errorf("DetermineExitCode(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestCheckZone(t *testing.T) {
	tests := []struct {
		zone      domain.Zone
		threshold domain.Zone
		wantErr   bool
	}{
		{domain.ZoneRed, domain.ZoneRed, true},
		{domain.ZoneYellow, domain.ZoneRed, false},
		{domain.ZoneGreen, domain.ZoneRed, false},
		{domain.ZoneRed, domain.ZoneYellow, true},
		{domain.ZoneYellow, domain.ZoneYellow, true},
		{domain.ZoneGreen, domain.ZoneYellow, false},
		{domain.ZoneRed, "", false},
		{domain.ZoneRed, "none", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.zone)+"/"+string(tt.threshold), func(t *testing.T) {
			err := CheckZone(40, tt.zone, tt.threshold)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckZone(%s, %s) error = %v, wantErr %v", tt.zone, tt.threshold, err, tt.wantErr)
			}
		})
	}
}

func TestUsageNil(t *testing.T) {
	if Usage(nil) != nil {
		t.Error("Usage(nil) should be nil")
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	for code := Success; code <= NetworkError; code++ {
		if GetExitCodeDescription(code) == "Unknown error" {
			t.Errorf("code %d has no description", code)
		}
	}
	if GetExitCodeDescription(99) != "Unknown error" {
		t.Error("unexpected description for unknown code")
	}
}
