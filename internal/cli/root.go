// Package cli provides the venues command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"venue-analyze-go/config"
	"venue-analyze-go/internal/service"
)

// Version information (set at build time).
var Version = "0.1.0"

var cfgFile string

// appKey is used to store the command context in cobra's context.
type appKey struct{}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	Matcher *service.VenueMatcher
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "venues",
		Short: "Venue analysis for Google Scholar profiles",
		Long: `venues loads every publication of a Google Scholar profile, normalizes
the free-text venue of each one into a canonical label (CVPR, NeurIPS, arXiv, ...)
and prints the venues ranked by publication count.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd, cfg.Verbose)
			app := &CommandContext{
				Cfg:     cfg,
				Logger:  logger,
				Matcher: service.LoadVenueMatcher(cfg.Mapping, logger),
			}
			logger.Debug("[CLI] Config loaded", "source", cfg.Source, "mapping", app.Matcher.Source())

			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, app))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./venues.yaml)")
	rootCmd.PersistentFlags().String("mapping", "", "venue mapping YAML (default: embedded mapping)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|markdown|csv|json)")
	rootCmd.PersistentFlags().Int("top", 0, "Number of venues to show (0 = all)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "markdown", "csv", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewAnalyzeCommand())
	rootCmd.AddCommand(NewClassifyCommand())
	rootCmd.AddCommand(NewRulesCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		return err
	}
	return nil
}

// GetCommandContext retrieves the command context set up by the root command.
func GetCommandContext(cmd *cobra.Command) *CommandContext {
	if app, ok := cmd.Context().Value(appKey{}).(*CommandContext); ok {
		return app
	}
	logger := slog.New(slog.DiscardHandler)
	return &CommandContext{
		Cfg:     &config.Config{Output: "table", Top: 10},
		Logger:  logger,
		Matcher: service.LoadVenueMatcher("", logger),
	}
}

func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
