package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kpcl-automation/gatekeeper/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display and cron mail.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables response excerpts in the per-account lines.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with response excerpts.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeOutcomes(&sb, report)
	w.writeFooter(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run header.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        GATEKEEPER RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Trigger:    %s\n", report.Trigger))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:   %s\n", report.Duration().Round(10*time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Accounts:   %d\n", len(report.Outcomes)))
	sb.WriteString("\n")
}

// writeOutcomes writes one line per account with its result.
func (w *SimpleWriter) writeOutcomes(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("OUTCOMES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Outcomes) == 0 {
		sb.WriteString("  No accounts processed\n\n")
		return
	}

	for _, o := range report.Outcomes {
		sb.WriteString(fmt.Sprintf("  [%s] %-20s %s", statusIndicator(o.Status), o.Identity, o.Status))
		if o.HTTPStatus != 0 {
			sb.WriteString(fmt.Sprintf(" (HTTP %d)", o.HTTPStatus))
		}
		if o.Latency > 0 {
			sb.WriteString(fmt.Sprintf(" in %s", o.Latency.Round(time.Millisecond)))
		}
		sb.WriteString("\n")

		if w.verbose && o.ResponseExcerpt != "" {
			sb.WriteString(fmt.Sprintf("      %s\n", o.ResponseExcerpt))
		}
	}
	sb.WriteString("\n")
}

// statusIndicator returns a visual marker for the outcome status.
func statusIndicator(status model.Status) string {
	switch status {
	case model.StatusSuccess:
		return "+"
	case model.StatusAuthFailed, model.StatusScrapeFailed, model.StatusRemoteRejected:
		return "!"
	case model.StatusNetworkError:
		return "?"
	default:
		return " "
	}
}

// writeFooter writes the success/failure totals.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("SUCCEEDED: %d    FAILED: %d\n", report.Succeeded(), report.Failed()))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
