package cmd

import (
	"github.com/spf13/cobra"

	"github.com/orgtools/everyteam/internal/config"
	"github.com/orgtools/everyteam/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the membership rule set offline",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and compile the rule set without touching the directory",
	RunE:  runRulesValidate,
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check LOGIN...",
	Short: "Evaluate the rule set against one or more logins",
	Long: `Evaluate the configured rule set against the given logins and print the
verdict for each, together with the membership action it would imply for a
member not currently in the team. No directory call is made.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRulesCheck,
}

var rulesFile string

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "path to a YAML or JSON rule set file (env "+config.EnvRulesFile+")")

	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rootCmd.AddCommand(rulesCmd)
}

// loadRuleSet resolves the rule source the same way sync does: flag,
// then environment.
func loadRuleSet(cmd *cobra.Command) (rules.RuleSet, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if rulesFile != "" {
		cfg.RulesFile = rulesFile
		cfg.RulesInline = ""
	}
	return cfg.LoadRules()
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	set, err := loadRuleSet(cmd)
	if err != nil {
		return err
	}

	engine, err := rules.Compile(set)
	if err != nil {
		return err
	}

	cmd.Printf("rule set is valid: %d rule(s)\n", engine.Len())
	for _, field := range set.UnsupportedFields() {
		cmd.Printf("warning: field %q is not supported and will never match\n", string(field))
	}
	return nil
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	set, err := loadRuleSet(cmd)
	if err != nil {
		return err
	}

	engine, err := rules.Compile(set)
	if err != nil {
		return err
	}

	for _, login := range args {
		verdict := engine.Evaluate(login)
		action := "add to team"
		if !verdict.Admits() {
			action = "keep out of team"
		}
		cmd.Printf("%s: %s (%s)\n", login, verdict.String(), action)
	}
	return nil
}
