package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"matrixrunner/internal/matrix"
	"matrixrunner/internal/matrix/classify"
	strutil "matrixrunner/pkg/strings"
)

const outputPreviewMaxLen = 100

// ConsoleReporter prints a colorized per-case line followed by a summary
// table in a banner/line console format, using go-pretty for the summary
// counts.
type ConsoleReporter struct {
	Out io.Writer
}

func (c *ConsoleReporter) Report(run Run) error {
	fmt.Fprintln(c.Out, "--- Test Summary ---")
	for _, r := range run.Results {
		fmt.Fprintln(c.Out, formatLine(r))
		if r.Kind == matrix.Failed && r.Output != "" {
			fmt.Fprintf(c.Out, "      %s\n", strutil.TruncateDescription(r.Output, outputPreviewMaxLen))
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.Out)
	t.AppendHeader(table.Row{"Total", "Passed", "Failed", "Allowed Failed", "Skipped"})
	t.AppendRow(table.Row{run.Counts.Total, run.Counts.Passed, run.Counts.UnexpectedFailed, run.Counts.AllowedFailed, run.Counts.Skipped})
	t.Render()

	if run.HasUnexpectedFailure {
		color.New(color.FgRed, color.Bold).Fprintln(c.Out, "RESULT: FAILED")
	} else {
		color.New(color.FgGreen, color.Bold).Fprintln(c.Out, "RESULT: PASSED")
	}
	return nil
}

func formatLine(r matrix.Result) string {
	status, colorFn := statusAndColor(r)
	duration := fmt.Sprintf("%.2fs", r.Duration.Seconds())
	note := ""
	if r.Kind == matrix.Passed && r.Attempts > 1 {
		note = fmt.Sprintf(" (retried, attempts=%d)", r.Attempts)
	}
	line := fmt.Sprintf("  - %-10s | %-40s | %10s%s", status, r.Case.Name, duration, note)
	return colorFn(line)
}

func statusAndColor(r matrix.Result) (string, func(a ...interface{}) string) {
	switch {
	case r.Kind == matrix.Passed:
		return "PASSED", color.New(color.FgGreen).SprintFunc()
	case classify.IsUnexpectedFailure(r):
		return "FAILED", color.New(color.FgRed).SprintFunc()
	case classify.IsAllowedFailure(r):
		return "FAILED*", color.New(color.FgYellow).SprintFunc()
	case r.Kind == matrix.Skipped:
		return "SKIPPED", color.New(color.FgHiBlack).SprintFunc()
	default:
		return "UNKNOWN", color.New().SprintFunc()
	}
}
