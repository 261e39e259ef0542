package exitcode

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/orgtools/everyteam/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates missing or malformed configuration, including
	// an invalid rule set. Raised before any directory call is made.
	ConfigError = 3

	// PermissionError indicates the credential lacks the privilege for a
	// directory operation (typically team creation without admin:org)
	PermissionError = 4

	// PartialFailure indicates the reconciliation pass completed but one or
	// more membership mutations failed
	PartialFailure = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}
	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var etErr *errors.EveryteamError
	if stderrors.As(err, &etErr) {
		switch etErr.Code {
		case errors.ErrCodeDirectoryPermission:
			return PermissionError
		case errors.ErrCodeSyncPartialFailure:
			return PartialFailure
		}
		if errors.IsConfigError(etErr) {
			return ConfigError
		}
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}

	if strings.Contains(errMsg, "unknown command") || strings.Contains(errMsg, "unknown flag") ||
		strings.Contains(errMsg, "required flag") {
		return UsageError
	}

	return GeneralError
}

// Description returns a human-readable description of an exit code
func Description(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ConfigError:
		return "Configuration error"
	case PermissionError:
		return "Insufficient directory privilege"
	case PartialFailure:
		return "Completed with failed mutations"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
