package cli

import (
	"github.com/spf13/cobra"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the venue rules in match order",
		Long: `Print the ordered venue rule table in effect. Rules are tried top to
bottom and the first one that matches wins, so specific venues must come
before broader ones (NAACL before ACL, ICMLA negatives on ICML, ...).`,
		Example: `  # Show the embedded rules
  venues rules

  # Check a custom mapping file
  venues rules --mapping my_mapping.yaml -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := GetCommandContext(cmd)
			return renderRules(cmd.OutOrStdout(), app.Matcher.Source(), app.Matcher.Rules(), app.Cfg.Output)
		},
	}
}
