package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/orgtools/everyteam/internal/errors"
	"github.com/orgtools/everyteam/internal/rules"
)

// Environment variable names. A .env file in the working directory is
// loaded first, so either source works.
const (
	EnvToken     = "EVERYTEAM_TOKEN"
	EnvOrg       = "EVERYTEAM_ORG"
	EnvTeam      = "EVERYTEAM_TEAM"
	EnvAPIURL    = "EVERYTEAM_API_URL"
	EnvDryRun    = "EVERYTEAM_DRY_RUN"
	EnvDelay     = "EVERYTEAM_DELAY"
	EnvRules     = "EVERYTEAM_RULES"
	EnvRulesFile = "EVERYTEAM_RULES_FILE"
	EnvLogLevel  = "EVERYTEAM_LOG_LEVEL"
	EnvLogFormat = "EVERYTEAM_LOG_FORMAT"
)

// Legacy variable names from the predecessor script. Each is consulted
// only when its EVERYTEAM_* counterpart is unset, so an existing .env
// keeps working unchanged.
const (
	LegacyEnvToken    = "PAT"
	LegacyEnvOrg      = "ORG"
	LegacyEnvTeam     = "TEAM_NAME"
	LegacyEnvAPIURL   = "API_URL"
	LegacyEnvDryRun   = "DRY_RUN"
	LegacyEnvDelay    = "DELAY"
	LegacyEnvRules    = "USER_FILTERS"
	LegacyEnvLogLevel = "LOG_LEVEL"
)

// DefaultDelay is the pause between directory mutations, respecting the
// API's rate limits.
const DefaultDelay = 3 * time.Second

// Config is the immutable process configuration, constructed once at
// startup and passed by reference into the reconciler. No package in the
// core reads the environment after this is built.
type Config struct {
	// Token is the credential for the directory API.
	Token string

	// Org is the organization whose membership is mirrored.
	Org string

	// TeamName is the team kept in sync with the organization.
	TeamName string

	// APIBaseURL overrides the directory API endpoint, for enterprise
	// installations. Empty means the public API.
	APIBaseURL string

	// DryRun suppresses all membership mutations when true. Defaults to
	// true: the tool fails safe.
	DryRun bool

	// Delay is the pause between processing members.
	Delay time.Duration

	// RulesInline is a rule set document (JSON or YAML) passed directly,
	// typically via the environment.
	RulesInline string

	// RulesFile is a path to a rule set file. Mutually exclusive with
	// RulesInline.
	RulesFile string

	// LogLevel and LogFormat configure diagnostic output only; they have
	// no effect on the algorithm.
	LogLevel  string
	LogFormat string
}

// FromEnv builds a Config from the environment, reading an optional .env
// file first. Values not present keep their defaults; validation is a
// separate step so flags can override first.
func FromEnv() (*Config, error) {
	// Absence of a .env file is the normal case.
	_ = godotenv.Load()

	cfg := &Config{
		Token:       envOr(EnvToken, LegacyEnvToken),
		Org:         envOr(EnvOrg, LegacyEnvOrg),
		TeamName:    envOr(EnvTeam, LegacyEnvTeam),
		APIBaseURL:  envOr(EnvAPIURL, LegacyEnvAPIURL),
		DryRun:      true,
		Delay:       DefaultDelay,
		RulesInline: envOr(EnvRules, LegacyEnvRules),
		RulesFile:   os.Getenv(EnvRulesFile),
		LogLevel:    envOr(EnvLogLevel, LegacyEnvLogLevel),
		LogFormat:   os.Getenv(EnvLogFormat),
	}

	if raw := envOr(EnvDryRun, LegacyEnvDryRun); raw != "" {
		cfg.DryRun = ParseDryRun(raw)
	}

	if raw := envOr(EnvDelay, LegacyEnvDelay); raw != "" {
		delay, err := ParseDelay(raw)
		if err != nil {
			return nil, err
		}
		cfg.Delay = delay
	}

	return cfg, nil
}

// envOr reads name, falling back to the legacy variable when unset.
func envOr(name, legacy string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return os.Getenv(legacy)
}

// Validate checks that every required setting is present and coherent.
// It must pass before any directory call is made.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return errors.NewMissingSettingError(errors.ErrCodeConfigMissingToken, "token", EnvToken)
	}
	if strings.TrimSpace(c.Org) == "" {
		return errors.NewMissingSettingError(errors.ErrCodeConfigMissingOrg, "organization", EnvOrg)
	}
	if strings.TrimSpace(c.TeamName) == "" {
		return errors.NewMissingSettingError(errors.ErrCodeConfigMissingTeam, "team name", EnvTeam)
	}
	if c.Delay < 0 {
		return errors.New(errors.ErrCodeConfigInvalidValue,
			fmt.Sprintf("delay must not be negative, got %s", c.Delay))
	}
	if c.RulesInline != "" && c.RulesFile != "" {
		return errors.New(errors.ErrCodeConfigInvalidValue,
			"rules were provided both inline and as a file; pick one")
	}
	return nil
}

// LoadRules resolves the configured rule set. An absent rule source yields
// an empty set, under which every member is admitted.
func (c *Config) LoadRules() (rules.RuleSet, error) {
	switch {
	case c.RulesFile != "":
		return rules.Load(c.RulesFile)
	case c.RulesInline != "":
		return rules.Parse([]byte(c.RulesInline))
	default:
		return rules.RuleSet{}, nil
	}
}

// RedactedToken returns a fingerprint of the token safe for debug logs.
func (c *Config) RedactedToken() string {
	if len(c.Token) <= 8 {
		return "****"
	}
	return c.Token[:4] + strings.Repeat("*", 8)
}

// ParseDryRun interprets a dry-run setting the permissive way: "true" and
// "yes" enable it, "false" and "no" disable it, and anything else enables
// it, failing safe.
func ParseDryRun(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "false", "no":
		return false
	default:
		return true
	}
}

// ParseDelay accepts either a bare number of seconds ("3", "0.5") or a Go
// duration ("1500ms").
func ParseDelay(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)

	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return 0, errors.New(errors.ErrCodeConfigInvalidValue,
				fmt.Sprintf("delay must be a finite number of seconds, got %s", raw))
		}
		if seconds < 0 {
			return 0, errors.New(errors.ErrCodeConfigInvalidValue,
				fmt.Sprintf("delay must not be negative, got %s", raw))
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeConfigInvalidValue,
			fmt.Sprintf("invalid delay %q", raw), err)
	}
	if d < 0 {
		return 0, errors.New(errors.ErrCodeConfigInvalidValue,
			fmt.Sprintf("delay must not be negative, got %s", raw))
	}
	return d, nil
}
