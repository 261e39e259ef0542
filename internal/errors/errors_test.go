package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(ErrCodeConfigMissingToken, "required setting token was not provided").
		WithSuggestion("Set the EVERYTEAM_TOKEN environment variable")

	msg := err.Error()
	if !strings.Contains(msg, "[CONFIG-001]") {
		t.Errorf("Error() = %q, missing error code", msg)
	}
	if !strings.Contains(msg, "Suggestions:") {
		t.Errorf("Error() = %q, missing suggestions section", msg)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeDirectoryAPI, "list members failed", cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause with errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %q, missing cause text", err.Error())
	}
}

func TestErrorAs(t *testing.T) {
	var etErr *EveryteamError
	err := fmt.Errorf("outer: %w", New(ErrCodeRulesInvalidPattern, "bad pattern"))

	if !stderrors.As(err, &etErr) {
		t.Fatal("errors.As should find EveryteamError through wrapping")
	}
	if etErr.Code != ErrCodeRulesInvalidPattern {
		t.Errorf("Code = %v, want %v", etErr.Code, ErrCodeRulesInvalidPattern)
	}
}

func TestIsConfigError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"config code", New(ErrCodeConfigMissingOrg, "no org"), true},
		{"rules code", NewInvalidPatternError("login", "[", stderrors.New("missing closing ]")), true},
		{"directory code", New(ErrCodeDirectoryPermission, "denied"), false},
		{"plain error", stderrors.New("boom"), false},
		{"wrapped config code", fmt.Errorf("load: %w", New(ErrCodeConfigInvalidValue, "bad delay")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfigError(tt.err); got != tt.want {
				t.Errorf("IsConfigError() = %v, want %v", got, tt.want)
			}
		})
	}
}
