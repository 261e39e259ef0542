package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigMissingToken ErrorCode = "CONFIG-001"
	ErrCodeConfigMissingOrg   ErrorCode = "CONFIG-002"
	ErrCodeConfigMissingTeam  ErrorCode = "CONFIG-003"
	ErrCodeConfigInvalidValue ErrorCode = "CONFIG-004"
	ErrCodeConfigLoadFailed   ErrorCode = "CONFIG-005"

	// Rule set errors (RULES-001 to RULES-099)
	ErrCodeRulesNotFound       ErrorCode = "RULES-001"
	ErrCodeRulesUnmarshal      ErrorCode = "RULES-002"
	ErrCodeRulesInvalidPattern ErrorCode = "RULES-003"

	// Directory errors (DIRECTORY-001 to DIRECTORY-099)
	ErrCodeDirectoryPermission ErrorCode = "DIRECTORY-001"
	ErrCodeDirectoryAPI        ErrorCode = "DIRECTORY-002"
	ErrCodeDirectoryNotFound   ErrorCode = "DIRECTORY-003"

	// Sync errors (SYNC-001 to SYNC-099)
	ErrCodeSyncTeamResolve    ErrorCode = "SYNC-001"
	ErrCodeSyncSnapshotFailed ErrorCode = "SYNC-002"
	ErrCodeSyncPartialFailure ErrorCode = "SYNC-003"
)

// EveryteamError represents an enhanced error with code, suggestions, and documentation
type EveryteamError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *EveryteamError) Error() string {
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
func (e *EveryteamError) Unwrap() error {
	return e.Cause
}

// New creates a new EveryteamError
func New(code ErrorCode, message string) *EveryteamError {
	return &EveryteamError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new EveryteamError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *EveryteamError {
	return &EveryteamError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *EveryteamError) WithSuggestion(suggestion string) *EveryteamError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *EveryteamError) WithDocs(url string) *EveryteamError {
	e.DocsURL = url
	return e
}

// IsConfigError reports whether the error carries a CONFIG or RULES code.
// Both families are fatal before any directory call is made.
func IsConfigError(err error) bool {
	var etErr *EveryteamError
	if !stderrors.As(err, &etErr) {
		return false
	}
	code := string(etErr.Code)
	return strings.HasPrefix(code, "CONFIG-") || strings.HasPrefix(code, "RULES-")
}

// Common error constructors for frequently used errors

// NewMissingSettingError creates a missing required configuration error
func NewMissingSettingError(code ErrorCode, setting string, envVar string) *EveryteamError {
	return New(code, fmt.Sprintf("required setting %s was not provided", setting)).
		WithSuggestion(fmt.Sprintf("Set the %s environment variable or the matching flag", envVar)).
		WithSuggestion("Run 'everyteam sync --help' to see configuration options")
}

// NewInvalidPatternError creates a malformed rule pattern error
func NewInvalidPatternError(field string, pattern string, cause error) *EveryteamError {
	return Wrap(ErrCodeRulesInvalidPattern,
		fmt.Sprintf("invalid %s pattern %q", field, pattern), cause).
		WithSuggestion("Patterns are RE2 regular expressions matched case-insensitively").
		WithSuggestion("Run 'everyteam rules validate' to check the rule set offline")
}

// NewRulesUnmarshalError creates a rule set parse error
func NewRulesUnmarshalError(source string, cause error) *EveryteamError {
	return Wrap(ErrCodeRulesUnmarshal,
		fmt.Sprintf("failed to parse rule set from %s", source), cause).
		WithSuggestion("Rule sets are YAML or JSON keyed by field name (only \"login\" is supported)")
}

// NewPermissionDeniedError creates a directory permission error
func NewPermissionDeniedError(op string, cause error) *EveryteamError {
	return Wrap(ErrCodeDirectoryPermission,
		fmt.Sprintf("insufficient privilege for %s", op), cause).
		WithSuggestion("Team creation requires a token with the admin:org scope").
		WithSuggestion("Create the team manually or use a token with elevated access")
}
