package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	consoleTitle   = lipgloss.NewStyle().Bold(true)
	consoleLabel   = lipgloss.NewStyle().Faint(true)
	consolePassed  = lipgloss.NewStyle().Foreground(lipgloss.Color(BuildSuccess.Color()))
	consoleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color(BuildFailure.Color())).Bold(true)
	consoleSkipped = lipgloss.NewStyle().Foreground(lipgloss.Color(BuildUnstable.Color()))
	consoleCell    = lipgloss.NewStyle().Padding(0, 1)
)

// ConsoleOptions selects the outcomes listed by RenderConsole.
type ConsoleOptions struct {
	SkipPassed  bool
	SkipFailed  bool
	SkipSkipped bool
}

// RenderConsole renders the summary for a terminal. Colors are dropped by
// lipgloss when the output is not a tty (CI logs).
func RenderConsole(s ReportSummary, o ConsoleOptions) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\n", consoleTitle.Render("Summary:"))
	if s.Source() != "" {
		fmt.Fprintf(&sb, "%s %s\n", consoleLabel.Render("- File:"), s.Source())
	}
	fmt.Fprintf(&sb, "%s %d\n", consoleLabel.Render("- Total:"), s.Total())
	fmt.Fprintf(&sb, "%s %s\n", consoleLabel.Render("- Passed:"), consolePassed.Render(fmt.Sprint(s.Passed())))
	fmt.Fprintf(&sb, "%s %s\n", consoleLabel.Render("- Failed:"), consoleFailed.Render(fmt.Sprint(s.Failed())))
	fmt.Fprintf(&sb, "%s %s\n", consoleLabel.Render("- Skipped:"), consoleSkipped.Render(fmt.Sprint(s.Skipped())))
	if ds := s.Durations(); ds.Count > 0 {
		fmt.Fprintf(&sb, "%s %s (median %s, p90 %s)\n", consoleLabel.Render("- Duration:"), ds.Total, ds.Median, ds.P90)
	}
	sb.WriteString("\n")

	rows := [][]string{}
	for idx, c := range s.cases {
		switch {
		case c.Outcome.Kind == OutcomePassed && o.SkipPassed,
			c.Outcome.Kind == OutcomeFailed && o.SkipFailed,
			c.Outcome.Kind == OutcomeSkipped && o.SkipSkipped:
			continue
		}
		rows = append(rows, []string{fmt.Sprint(idx + 1), c.Name, c.Outcome.String(), c.Outcome.Detail})
	}
	if len(rows) == 0 {
		sb.WriteString(NoDetailsMessage)
		sb.WriteString("\n")
		return sb.String()
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Test", "Outcome", "Details").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || col != 2 || row < 0 || row >= len(rows) {
				return consoleCell
			}
			switch rows[row][2] {
			case OutcomeFailed.String():
				return consoleFailed.Padding(0, 1)
			case OutcomeSkipped.String():
				return consoleSkipped.Padding(0, 1)
			}
			return consolePassed.Padding(0, 1)
		})
	sb.WriteString(t.Render())
	sb.WriteString("\n")
	return sb.String()
}
