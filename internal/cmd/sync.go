package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgtools/everyteam/internal/config"
	"github.com/orgtools/everyteam/internal/github"
	"github.com/orgtools/everyteam/internal/rules"
	"github.com/orgtools/everyteam/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconciliation pass",
	Long: `Run one reconciliation pass: resolve the target team (creating it if
absent), snapshot organization and team membership, and add or remove team
members according to the rule set.

Dry-run is the default; pass --dry-run=false to perform write operations.
Configuration comes from the environment (and an optional .env file), with
flags taking precedence.`,
	RunE: runSync,
}

var (
	syncOrg     string
	syncTeam    string
	syncAPIURL  string
	syncRules   string
	syncDelay   string
	syncDryRun  bool
	syncJSONOut bool
)

func init() {
	syncCmd.Flags().StringVar(&syncOrg, "org", "", "organization to mirror (env "+config.EnvOrg+")")
	syncCmd.Flags().StringVar(&syncTeam, "team", "", "team to keep in sync (env "+config.EnvTeam+")")
	syncCmd.Flags().StringVar(&syncAPIURL, "api-url", "", "API base URL for enterprise installations (env "+config.EnvAPIURL+")")
	syncCmd.Flags().StringVar(&syncRules, "rules", "", "path to a YAML or JSON rule set file (env "+config.EnvRulesFile+")")
	syncCmd.Flags().StringVar(&syncDelay, "delay", "", "pause between members, seconds or duration (env "+config.EnvDelay+")")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", true, "compute and report actions without executing them")
	syncCmd.Flags().BoolVar(&syncJSONOut, "json", false, "print the run result as JSON")

	rootCmd.AddCommand(syncCmd)
}

// loadSyncConfig merges environment configuration with flag overrides.
// A flag only overrides when it was set on the command line, so an env
// var is not clobbered by a flag default.
func loadSyncConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("org") {
		cfg.Org = syncOrg
	}
	if cmd.Flags().Changed("team") {
		cfg.TeamName = syncTeam
	}
	if cmd.Flags().Changed("api-url") {
		cfg.APIBaseURL = syncAPIURL
	}
	if cmd.Flags().Changed("rules") {
		cfg.RulesFile = syncRules
		cfg.RulesInline = ""
	}
	if cmd.Flags().Changed("delay") {
		delay, err := config.ParseDelay(syncDelay)
		if err != nil {
			return nil, err
		}
		cfg.Delay = delay
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = syncDryRun
	}

	return cfg, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadSyncConfig(cmd)
	if err != nil {
		return err
	}

	logger := configureLogging(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Debug("configuration loaded",
		"org", cfg.Org,
		"team", cfg.TeamName,
		"token", cfg.RedactedToken(),
		"dry_run", cfg.DryRun,
		"delay", cfg.Delay.String())

	ruleSet, err := cfg.LoadRules()
	if err != nil {
		return err
	}
	for _, field := range ruleSet.UnsupportedFields() {
		logger.Warn("rule references an unsupported field and will never match", "field", string(field))
	}

	engine, err := rules.Compile(ruleSet)
	if err != nil {
		return err
	}

	client, err := github.NewClient(github.ClientConfig{
		Token:    cfg.Token,
		Org:      cfg.Org,
		BaseURL:  cfg.APIBaseURL,
		RetryMax: 3,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	reconciler := sync.New(client, engine, logger, sync.Options{
		TeamName: cfg.TeamName,
		DryRun:   cfg.DryRun,
		Delay:    cfg.Delay,
	})

	result, runErr := reconciler.Run(cmd.Context())
	if result != nil {
		if err := printResult(cmd, result); err != nil {
			return err
		}
	}
	return runErr
}

func printResult(cmd *cobra.Command, result *sync.RunResult) error {
	if syncJSONOut {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal run result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("team %q: %s\n", result.Team.Name, result.Summary())
	if result.DryRun && result.Skipped > 0 {
		cmd.Printf("dry-run: %d actions were computed but not executed\n", result.Skipped)
	}
	return nil
}
