package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/orgtools/everyteam/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "everyteam",
	Short: "Mirror an organization's membership into a team",
	Long: `everyteam keeps a designated team in sync with the full membership of a
GitHub organization. GitHub has no native "everyone" grouping, so granting
all members access to a resource requires a synthetic team that an external
process reconciles. everyteam is that process: it enumerates the
organization, applies an ordered allow/reject rule set to each login, and
adds or removes team members until the team mirrors the organization.`,
	SilenceUsage: true,
}

var (
	rootLogLevel  string
	rootLogFormat string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&rootLogFormat, "log-format", "", "log format: text or json")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a context, so an interrupt
// stops a reconciliation pass at the next member boundary.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// configureLogging builds the process logger from flags, falling back to
// the given environment values for anything not set on the command line.
func configureLogging(envLevel, envFormat string) *log.Logger {
	level := rootLogLevel
	if level == "" {
		level = envLevel
	}
	format := rootLogFormat
	if format == "" {
		format = envFormat
	}

	cfg := log.DefaultConfig()
	if level != "" {
		cfg.Level = log.ParseLevel(level)
	}
	if format != "" {
		cfg.Format = log.ParseFormat(format)
	}

	logger := log.New(cfg)
	log.SetDefaultLogger(logger)
	return logger
}
