package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"venue-analyze-go/internal/collector"
	"venue-analyze-go/internal/model"
	"venue-analyze-go/internal/service"
)

// NewClassifyCommand creates the classify command.
func NewClassifyCommand() *cobra.Command {
	var explain, all bool

	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Normalize raw venue strings, one per line",
		Long: `Read raw venue strings (one per line) from a file or stdin, normalize
each one with the venue rules and print the ranked counts.

With --explain every line is printed with its cleaned text, the rule that
matched (or fallback) and the skip reason, if any.`,
		Example: `  # Rank venues from a list
  venues classify venues.txt

  # See why each line got its label
  echo "Proc. CVPR 2021" | venues classify --explain`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, args, explain, all)
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "Print the decision for every line")
	cmd.Flags().BoolVar(&all, "all", false, "Show every venue instead of the top N")
	return cmd
}

func runClassify(cmd *cobra.Command, args []string, explain, all bool) error {
	app := GetCommandContext(cmd)

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	lines, err := readLines(in)
	if err != nil {
		return fmt.Errorf("read venues: %w", err)
	}

	if explain {
		matches := make([]service.VenueMatch, 0, len(lines))
		for _, l := range lines {
			matches = append(matches, app.Matcher.Explain(l))
		}
		return renderExplain(cmd.OutOrStdout(), matches, app.Cfg.Output)
	}

	entries := make([]model.RawVenueEntry, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, model.RawVenueEntry{Text: l, Found: true})
	}
	analyzer := service.NewVenueAnalyzer(app.Matcher, collector.Options{}, app.Logger)
	result, err := analyzer.Classify(entries)
	if err != nil {
		if errors.Is(err, service.ErrNoVenues) && app.Cfg.Output == FormatJSON {
			_ = renderJSON(cmd.OutOrStdout(), result)
		}
		return err
	}

	top := app.Cfg.Top
	if all {
		top = 0
	}
	return renderResult(cmd.OutOrStdout(), result, app.Cfg.Output, top)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
