package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"venue-analyze-go/internal/model"
	"venue-analyze-go/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// Output formats.
const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

func checkFormat(format string) error {
	switch format {
	case FormatTable, FormatMarkdown, "md", FormatCSV, FormatJSON:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, markdown, csv or json)", format)
}

// newTable creates a go-pretty table writer mirrored to w.
func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

func renderTableAs(t table.Writer, format string) {
	switch format {
	case FormatMarkdown, "md":
		t.RenderMarkdown()
	case FormatCSV:
		t.RenderCSV()
	default:
		t.Render()
	}
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderResult prints the ranked venues; top<=0 prints all of them.
func renderResult(w io.Writer, r *model.AnalysisResult, format string, top int) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == FormatJSON {
		return renderJSON(w, r)
	}

	if format == FormatTable {
		title := "Publication venues"
		if r.Profile != "" {
			title += " for " + r.Profile
		}
		fmt.Fprintln(w, titleStyle.Render(title))
	}

	venues := r.Top(top)
	t := newTable(w, table.Row{"#", "Venue", "Papers", "Share"})
	for i, v := range venues {
		t.AppendRow(table.Row{i + 1, v.Label, v.Count, share(v.Count, r.TotalProcessed)})
	}
	renderTableAs(t, format)

	if format == FormatTable {
		fmt.Fprintln(w, summaryLine(r, len(venues)))
		if r.Collection != nil && r.Collection.Reason.Partial() {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf(
				"Publication list may be incomplete (%s after %d attempts)", r.Collection.Reason, r.Collection.Attempts)))
		}
	}
	return nil
}

func share(count, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(count)*100/float64(total))
}

func summaryLine(r *model.AnalysisResult, shown int) string {
	parts := []string{
		fmt.Sprintf("%d publications", r.TotalFound),
		fmt.Sprintf("%d with a venue", r.TotalProcessed),
		fmt.Sprintf("%d skipped", r.TotalSkipped),
		fmt.Sprintf("showing %d of %d venues", shown, r.UniqueVenues()),
	}
	line := strings.Join(parts, " · ")
	if len(r.SkipReasons) > 0 {
		reasons := make([]string, 0, len(r.SkipReasons))
		for reason, n := range r.SkipReasons {
			reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
		}
		slices.Sort(reasons)
		line += " (" + strings.Join(reasons, ", ") + ")"
	}
	return mutedStyle.Render(line)
}

// renderExplain prints one row per raw venue with the decision taken.
func renderExplain(w io.Writer, matches []service.VenueMatch, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == FormatJSON {
		return renderJSON(w, matches)
	}
	t := newTable(w, table.Row{"Raw", "Cleaned", "Label", "Rule", "Type", "Skip"})
	for _, m := range matches {
		rule := m.Rule
		if m.Fallback {
			rule = "(fallback)"
		}
		t.AppendRow(table.Row{m.Raw, m.Cleaned, m.Label, rule, string(m.Type), string(m.Skip)})
	}
	renderTableAs(t, format)
	return nil
}

// renderRules prints the ordered rule table.
func renderRules(w io.Writer, source string, rules []*service.VenueRule, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == FormatJSON {
		type ruleJSON struct {
			Order    int             `json:"order"`
			Label    string          `json:"label"`
			Type     model.VenueType `json:"type"`
			Category string          `json:"category"`
			Patterns []string        `json:"patterns"`
			Negative []string        `json:"negative,omitempty"`
		}
		out := make([]ruleJSON, 0, len(rules))
		for i, r := range rules {
			out = append(out, ruleJSON{i + 1, r.Label, r.Type, r.Category, r.Patterns, r.Negative})
		}
		return renderJSON(w, map[string]any{"source": source, "rules": out})
	}

	if format == FormatTable {
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d rules from %s", len(rules), source)))
	}
	t := newTable(w, table.Row{"#", "Label", "Type", "Category", "Patterns", "Negative"})
	for i, r := range rules {
		t.AppendRow(table.Row{i + 1, r.Label, string(r.Type), r.Category,
			strings.Join(r.Patterns, " | "), strings.Join(r.Negative, " | ")})
	}
	renderTableAs(t, format)
	return nil
}
