package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/kpcl-automation/gatekeeper/internal/model"
)

// MarkdownWriter outputs run reports in Markdown format.
// This format is designed for sharing a morning's results in a chat
// channel or wiki.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writeOutcomes(md, report)
	w.writeStatusChart(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run summary table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("Gatekeeper Run Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Trigger", report.Trigger},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().String()},
			{"Accounts", strconv.Itoa(len(report.Outcomes))},
			{"Succeeded", strconv.Itoa(report.Succeeded())},
			{"Failed", strconv.Itoa(report.Failed())},
		},
	})
	md.PlainText("")
}

// writeAlert writes an alert matching the run's overall result.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RunReport) {
	failed := report.Failed()
	switch {
	case len(report.Outcomes) == 0:
		md.Warning("No accounts were processed in this run.")
	case failed == 0:
		md.Tip(fmt.Sprintf("All %d account(s) submitted successfully.", len(report.Outcomes)))
	case report.Succeeded() == 0:
		md.Cautionf("Every account failed. %d submission(s) did not go through.", failed)
	default:
		md.Warningf("%d account(s) failed while %d succeeded. Check the outcome table.", failed, report.Succeeded())
	}
	md.PlainText("")
}

// writeOutcomes writes the per-account outcome table.
func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Outcomes")
	md.PlainText("")

	if len(report.Outcomes) == 0 {
		md.PlainText("No accounts processed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Outcomes))
	for i, o := range report.Outcomes {
		httpStatus := "-"
		if o.HTTPStatus != 0 {
			httpStatus = strconv.Itoa(o.HTTPStatus)
		}
		latency := "-"
		if o.Latency > 0 {
			latency = o.Latency.String()
		}
		excerpt := o.ResponseExcerpt
		if excerpt == "" {
			excerpt = "-"
		}

		rows[i] = []string{
			"`" + o.Identity + "`",
			statusEmoji(o.Status) + " " + string(o.Status),
			httpStatus,
			latency,
			truncateString(excerpt, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Account", "Status", "HTTP", "Latency", "Response"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusEmoji returns a marker for the outcome status.
func statusEmoji(status model.Status) string {
	switch status {
	case model.StatusSuccess:
		return "✅"
	case model.StatusAuthFailed:
		return "🔒"
	case model.StatusScrapeFailed:
		return "📄"
	case model.StatusNetworkError:
		return "🔌"
	case model.StatusRemoteRejected:
		return "❌"
	default:
		return "❓"
	}
}

// writeStatusChart writes a mermaid pie chart of the status
// distribution. Skipped for single-account runs where a chart says
// nothing a table doesn't.
func (w *MarkdownWriter) writeStatusChart(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Outcomes) < 2 {
		return
	}

	counts := make(map[model.Status]int)
	for _, o := range report.Outcomes {
		counts[o.Status]++
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Outcome Distribution"),
		piechart.WithShowData(true),
	)
	for _, status := range []model.Status{
		model.StatusSuccess,
		model.StatusAuthFailed,
		model.StatusScrapeFailed,
		model.StatusNetworkError,
		model.StatusRemoteRejected,
	} {
		if n := counts[status]; n > 0 {
			chart.LabelAndIntValue(string(status), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by gatekeeper*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
