package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"venue-analyze-go/config"
	"venue-analyze-go/internal/collector"
	"venue-analyze-go/internal/fetcher"
	"venue-analyze-go/internal/progress"
	"venue-analyze-go/internal/service"
)

const heartbeatInterval = 15 * time.Second

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "analyze <scholar-url|scholar-id|page.html...>",
		Short: "Collect a profile's publications and rank their venues",
		Long: `Load every publication of a Google Scholar profile by activating its
"Show more" control until the list stops growing, then normalize each
publication's venue and print the venues ranked by count.

Sources:
  browser  drive a headless Chrome on the live profile page
  http     fetch list pages directly (or through Firecrawl when FIRECRAWL_API_KEY is set)
  file     read saved list pages, one file per page
  auto     file when every argument is an existing file, http otherwise`,
		Example: `  # Rank the venues of a profile
  venues analyze https://scholar.google.com/citations?user=JicYPdAAAAAJ

  # Use a real browser and print every venue as markdown
  venues analyze JicYPdAAAAAJ --source browser --all -o markdown

  # Analyze saved pages offline
  venues analyze page1.html page2.html

  # Stream progress events for another program
  venues analyze JicYPdAAAAAJ --events`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, all)
		},
	}

	cmd.Flags().String("source", "", "Where to read the publication list from (auto|browser|http|file)")
	cmd.Flags().BoolVar(&all, "all", false, "Show every venue instead of the top N")
	cmd.Flags().Bool("events", false, "Write progress as data: {json} events on stdout")
	cmd.Flags().Int("page-size", 0, "Publications per fetched page (http and file sources)")
	cmd.Flags().Float64("rate-limit", 0, "Requests per second for direct http fetching")
	cmd.Flags().Bool("headless", true, "Run Chrome headless (browser source)")
	cmd.Flags().String("chrome-path", "", "Chrome executable (browser source)")

	cmd.Flags().Int("max-attempts", 0, "Maximum load-more activations")
	cmd.Flags().Duration("attempt-timeout", 0, "How long to wait for the list to grow after each activation")
	cmd.Flags().Duration("settle-delay", 0, "Pause before looking for the load-more control")
	cmd.Flags().Duration("initial-poll-delay", 0, "First poll after an activation")
	cmd.Flags().Duration("fast-poll-interval", 0, "Poll interval for the first checks")
	cmd.Flags().Int("fast-poll-checks", 0, "Number of fast polls before slowing down")
	cmd.Flags().Duration("slow-poll-interval", 0, "Poll interval after the fast checks")
	cmd.Flags().Duration("cooldown", 0, "Pause between activations")
	cmd.Flags().Int("stall-limit", 0, "Stop after this many activations without growth (0 = only max-attempts)")

	_ = cmd.RegisterFlagCompletionFunc("source", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.SourceAuto, config.SourceBrowser, config.SourceHTTP, config.SourceFile}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, all bool) error {
	app := GetCommandContext(cmd)
	cfg := app.Cfg
	if err := checkFormat(cfg.Output); err != nil {
		return err
	}

	ctx := cmd.Context()
	listing, query, cleanup, err := openListing(ctx, cfg, args, app)
	if err != nil {
		return err
	}
	defer cleanup()

	var p *progress.Writer
	switch {
	case cfg.Events:
		p = progress.NewWriter(cmd.OutOrStdout(), progress.ModeEvents)
		p.StartHeartbeat(heartbeatInterval)
		defer p.StopHeartbeat()
	case cfg.Output == FormatTable:
		p = progress.NewWriter(cmd.ErrOrStderr(), progress.ModeText)
	default:
		p = progress.NewWriter(cmd.ErrOrStderr(), progress.ModeQuiet)
	}

	analyzer := service.NewVenueAnalyzer(app.Matcher, collector.OptionsFromConfig(cfg.Collector), app.Logger)
	result, err := analyzer.Analyze(ctx, query, listing, p)
	if cfg.Events {
		return err
	}
	if err != nil {
		if cfg.Output == FormatJSON {
			_ = renderJSON(cmd.OutOrStdout(), result)
		}
		return err
	}

	top := cfg.Top
	if all {
		top = 0
	}
	return renderResult(cmd.OutOrStdout(), result, cfg.Output, top)
}

// openListing picks the listing source for the arguments.
func openListing(ctx context.Context, cfg *config.Config, args []string, app *CommandContext) (service.Listing, string, func(), error) {
	noop := func() {}
	source := cfg.Source
	if source == config.SourceAuto {
		source = config.SourceHTTP
		if allFiles(args) {
			source = config.SourceFile
		}
	}

	if source == config.SourceFile {
		for _, p := range args {
			if _, err := os.Stat(p); err != nil {
				return nil, "", noop, fmt.Errorf("saved page: %w", err)
			}
		}
		l := fetcher.NewScholarListing(fetcher.NewFileFetcher(args...), "", cfg.PageSize, app.Logger)
		return l, strings.Join(args, " "), noop, nil
	}

	if len(args) > 1 {
		return nil, "", noop, fmt.Errorf("expected one scholar id or profile url, got %d arguments", len(args))
	}
	id, err := fetcher.ParseScholarID(args[0])
	if err != nil {
		return nil, "", noop, err
	}

	switch source {
	case config.SourceBrowser:
		pageURL := fetcher.ScholarPageURL(fetcher.ScholarBaseURL, id, 0, cfg.PageSize)
		b, err := fetcher.NewBrowserListing(ctx, pageURL, fetcher.BrowserOptions{
			Headless:   cfg.Headless,
			ChromePath: cfg.ChromePath,
			UserAgent:  cfg.UserAgent,
		}, app.Logger)
		if err != nil {
			return nil, "", noop, fmt.Errorf("start browser: %w", err)
		}
		return b, id, b.Close, nil
	default:
		var f fetcher.HTMLFetcher
		if cfg.FirecrawlKey != "" {
			app.Logger.Debug("[CLI] Fetching through Firecrawl")
			f = fetcher.NewFirecrawlFetcher(cfg.FirecrawlKey, cfg.FirecrawlURL, app.Logger)
		} else {
			f = fetcher.NewDirectFetcher(cfg.UserAgent, cfg.RateLimit, fetcher.WithDirectLogger(app.Logger))
		}
		return fetcher.NewScholarListing(f, id, cfg.PageSize, app.Logger), id, noop, nil
	}
}

func allFiles(args []string) bool {
	for _, a := range args {
		info, err := os.Stat(a)
		if err != nil || info.IsDir() {
			return false
		}
	}
	return len(args) > 0
}
