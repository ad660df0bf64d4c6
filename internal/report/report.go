package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"

	"github.com/sequor-org/sequor/internal/runner"
)

// Summary aggregates a finished run for reporting: per-node terminal
// states plus suite-level tallies.
type Summary struct {
	RunID      string
	Suite      string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     runner.Status
	Passed     int
	Failed     int
	Skipped    int
	Nodes      []runner.NodeData
	Err        error
}

// Collect snapshots the runner into a Summary. runErr is the run-level
// error (setup/teardown failure or the last node failure).
func Collect(runID, suiteName string, r *runner.Runner, startedAt, finishedAt time.Time, runErr error) Summary {
	nodes := lo.Map(r.Nodes(), func(n *runner.Node, _ int) runner.NodeData {
		return n.State()
	})
	byStatus := lo.CountValuesBy(nodes, func(n runner.NodeData) runner.NodeStatus {
		return n.Status
	})
	return Summary{
		RunID:      runID,
		Suite:      suiteName,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Status:     r.Status(),
		Passed:     byStatus[runner.NodeStatusPassed],
		Failed:     byStatus[runner.NodeStatusFailed],
		Skipped:    byStatus[runner.NodeStatusSkipped],
		Nodes:      nodes,
		Err:        runErr,
	}
}

// ExitCode maps the summary onto a process exit status: non-zero iff any
// node failed or the run itself errored.
func (s Summary) ExitCode() int {
	if s.Failed > 0 || s.Err != nil {
		return 1
	}
	return 0
}

var suiteHeader = table.Row{
	"Run ID",
	"Suite",
	"Started At",
	"Finished At",
	"Status",
	"Passed",
	"Failed",
	"Skipped",
	"Error",
}

var nodeHeader = table.Row{
	"#",
	"Test",
	"Groups",
	"Started At",
	"Finished At",
	"Status",
	"Detail",
}

// Render produces the human-readable run report.
func (s Summary) Render() string {
	var buf bytes.Buffer
	_, _ = buf.WriteString("\nSummary ->\n")
	_, _ = buf.WriteString(s.renderSuite())
	_, _ = buf.WriteString("\n\nDetails ->\n")
	_, _ = buf.WriteString(s.renderNodes())
	_, _ = buf.WriteString("\n")
	return buf.String()
}

func (s Summary) renderSuite() string {
	row := table.Row{
		s.RunID,
		s.Suite,
		formatTime(s.StartedAt),
		formatTime(s.FinishedAt),
		colorStatus(s.Status.String()),
		s.Passed,
		s.Failed,
		s.Skipped,
	}
	if s.Err != nil {
		row = append(row, s.Err.Error())
	} else {
		row = append(row, "")
	}

	t := table.NewWriter()
	t.AppendHeader(suiteHeader)
	t.AppendRow(row)
	return t.Render()
}

func (s Summary) renderNodes() string {
	t := table.NewWriter()
	t.AppendHeader(nodeHeader)
	for i, n := range s.Nodes {
		detail := ""
		if n.Err != nil {
			detail = n.Err.Error()
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("%d", i+1),
			n.Name,
			joinGroups(n.Groups),
			formatTime(n.StartedAt),
			formatTime(n.FinishedAt),
			colorStatus(n.Status.String()),
			detail,
		})
	}
	return t.Render()
}

func joinGroups(groups []string) string {
	out := ""
	for i, g := range groups {
		if i > 0 {
			out += ", "
		}
		out += g
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func colorStatus(status string) string {
	switch status {
	case "passed":
		return color.GreenString(status)
	case "failed":
		return color.RedString(status)
	case "skipped", "canceled":
		return color.YellowString(status)
	default:
		return status
	}
}
