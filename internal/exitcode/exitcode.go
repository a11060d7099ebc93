// Package exitcode maps command errors to process exit codes.
package exitcode

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// PolicyViolation indicates the scan landed in a zone the caller fails on
	PolicyViolation = 3

	// ConfigError indicates a missing or invalid policy file
	ConfigError = 4

	// AuthError indicates provider credentials were missing or rejected
	AuthError = 5

	// NetworkError indicates the provider could not be reached or refused the call
	NetworkError = 6

	// Interrupted indicates the scan was cancelled by a signal
	Interrupted = 130
)

// ZoneError reports a scan whose zone is at or below the --fail-on threshold
type ZoneError struct {
	Zone      domain.Zone
	Threshold domain.Zone
	Score     int
}

func (e *ZoneError) Error() string {
	return fmt.Sprintf("compliance score %d is in the %s zone (fail-on %s)", e.Score, e.Zone, e.Threshold)
}

// CheckZone returns a *ZoneError when zone ranks at or below threshold.
// An empty threshold never fails.
func CheckZone(score int, zone, threshold domain.Zone) error {
	if threshold == "" || threshold.Rank() == 0 {
		return nil
	}
	if zone.Rank() <= threshold.Rank() {
		return &ZoneError{Zone: zone, Threshold: threshold, Score: score}
	}
	return nil
}

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// Usage marks err as a command usage error
func Usage(err error) error {
	if err == nil {
		return nil
	}
	return usageError{err: err}
}

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var zoneErr *ZoneError
	if stderrors.As(err, &zoneErr) {
		return PolicyViolation
	}
	var ue usageError
	if stderrors.As(err, &ue) {
		return UsageError
	}

	switch errors.CodeOf(err) {
	case errors.ErrCodePolicyNotFound, errors.ErrCodePolicyInvalid,
		errors.ErrCodePolicyWeights, errors.ErrCodePolicyBands,
		errors.ErrCodeProviderNotFound, errors.ErrCodeProviderConfig:
		return ConfigError
	case errors.ErrCodeProviderAuth:
		return AuthError
	case errors.ErrCodeProviderAPI, errors.ErrCodeProviderRateLimit:
		return NetworkError
	case errors.ErrCodeScanRootNotFound:
		return UsageError
	case errors.ErrCodeScanCancelled:
		return Interrupted
	}

	// cobra reports flag and argument problems as plain errors
	errMsg := strings.ToLower(err.Error())
	for _, s := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "invalid argument", "required flag", "accepts "} {
		if strings.Contains(errMsg, s) {
			return UsageError
		}
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case PolicyViolation:
		return "Compliance zone at or below the fail-on threshold"
	case ConfigError:
		return "Policy or provider configuration error"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Provider error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
