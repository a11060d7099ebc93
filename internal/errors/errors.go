package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Scan errors (SCAN-001 to SCAN-099)
	ErrCodeScanRootNotFound ErrorCode = "SCAN-001"
	ErrCodeScanEmpty        ErrorCode = "SCAN-002"
	ErrCodeScanCancelled    ErrorCode = "SCAN-003"

	// Rule errors (RULE-001 to RULE-099)
	ErrCodeRuleFailed    ErrorCode = "RULE-001"
	ErrCodeRuleDuplicate ErrorCode = "RULE-002"
	ErrCodeRuleInvalid   ErrorCode = "RULE-003"

	// Oracle errors (ORACLE-001 to ORACLE-099)
	ErrCodeOracleFailed    ErrorCode = "ORACLE-001"
	ErrCodeOracleTimeout   ErrorCode = "ORACLE-002"
	ErrCodeOracleMalformed ErrorCode = "ORACLE-003"
	ErrCodeOracleBudget    ErrorCode = "ORACLE-004"

	// Policy errors (POLICY-001 to POLICY-099)
	ErrCodePolicyNotFound ErrorCode = "POLICY-001"
	ErrCodePolicyInvalid  ErrorCode = "POLICY-002"
	ErrCodePolicyWeights  ErrorCode = "POLICY-003"
	ErrCodePolicyBands    ErrorCode = "POLICY-004"

	// Provider errors (PROVIDER-001 to PROVIDER-099)
	ErrCodeProviderNotFound  ErrorCode = "PROVIDER-001"
	ErrCodeProviderConfig    ErrorCode = "PROVIDER-002"
	ErrCodeProviderAuth      ErrorCode = "PROVIDER-003"
	ErrCodeProviderAPI       ErrorCode = "PROVIDER-004"
	ErrCodeProviderRateLimit ErrorCode = "PROVIDER-005"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
	ErrCodeFileMarshal     ErrorCode = "IO-006"
)

// Error represents an enhanced error with code, suggestions, and documentation
type Error struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == ""
}

// New creates a new Error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new Error wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Sentinel returns a code-only error usable as an errors.Is target.
func Sentinel(code ErrorCode) *Error {
	return &Error{Code: code}
}

// WithSuggestion adds a suggestion to the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *Error) WithDocs(url string) *Error {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// NewRuleFailedError reports a check unit that errored or panicked.
func NewRuleFailedError(checkID string, cause error) *Error {
	return Wrap(ErrCodeRuleFailed, fmt.Sprintf("rule failed: %s", checkID), cause).
		WithSuggestion("The rule was skipped; the rest of the scan continued").
		WithSuggestion("Run 'complyscan rules' to list registered rules")
}

// NewRuleDuplicateError reports two units registered under one id.
func NewRuleDuplicateError(checkID string) *Error {
	return New(ErrCodeRuleDuplicate, fmt.Sprintf("duplicate rule id: %s", checkID)).
		WithSuggestion("Check ids must be unique and stable across runs")
}

// NewOracleFailedError reports a judgment call that errored.
func NewOracleFailedError(findingID string, cause error) *Error {
	return Wrap(ErrCodeOracleFailed, fmt.Sprintf("oracle call failed for %s", findingID), cause)
}

// NewOracleMalformedError reports an oracle response that is not the expected JSON verdict.
func NewOracleMalformedError(detail string) *Error {
	return New(ErrCodeOracleMalformed, fmt.Sprintf("malformed oracle response: %s", detail)).
		WithSuggestion("The oracle must reply with {verdict, confidence, reasoning, evidence}")
}

// NewPolicyNotFoundError creates a policy file not found error
func NewPolicyNotFoundError(path string) *Error {
	return New(ErrCodePolicyNotFound, fmt.Sprintf("policy file not found: %s", path)).
		WithSuggestion("Run 'complyscan policy init' to write the default policy").
		WithDocs("https://github.com/felixgeelhaar/complyscan#policy")
}

// NewPolicyInvalidError creates a policy validation error
func NewPolicyInvalidError(details string) *Error {
	return New(ErrCodePolicyInvalid, fmt.Sprintf("invalid policy: %s", details)).
		WithSuggestion("Run 'complyscan policy validate' to see validation errors").
		WithDocs("https://github.com/felixgeelhaar/complyscan#policy")
}

// NewProviderAuthError creates a provider authentication error
func NewProviderAuthError(provider string) *Error {
	return New(ErrCodeProviderAuth, fmt.Sprintf("authentication failed for provider: %s", provider)).
		WithSuggestion(fmt.Sprintf("Set the %s_API_KEY environment variable", strings.ToUpper(provider))).
		WithSuggestion("Run the scan with --no-escalate to skip the oracle")
}

// NewProviderRateLimitError creates a rate limit error
func NewProviderRateLimitError(provider string, retryAfter string) *Error {
	msg := fmt.Sprintf("rate limit exceeded for provider: %s", provider)
	if retryAfter != "" {
		msg += fmt.Sprintf(" (retry after: %s)", retryAfter)
	}

	return New(ErrCodeProviderRateLimit, msg).
		WithSuggestion("Lower escalation.concurrency in the policy").
		WithSuggestion("Use a different provider if available")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *Error {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *Error {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
