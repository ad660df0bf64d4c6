package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sequor-org/sequor/internal/planner"
	"github.com/sequor-org/sequor/internal/report"
	"github.com/sequor-org/sequor/internal/runner"
	"github.com/sequor-org/sequor/internal/suite"
)

func runTests(t *testing.T, tests []suite.Test) (*runner.Runner, error) {
	t.Helper()
	g, err := planner.Build(tests)
	require.NoError(t, err)
	plan, err := planner.NewPlan(g)
	require.NoError(t, err)
	r := runner.New(&runner.Config{})
	return r, r.Run(t.Context(), plan, nil)
}

func TestCollectTallies(t *testing.T) {
	tests := []suite.Test{
		{Name: "ok", Action: func(context.Context) error { return nil }},
		{Name: "boom", Action: func(context.Context) error { return errors.New("boom") }},
		{Name: "gated", DependsOn: []string{"boom"}, Action: func(context.Context) error { return nil }},
	}
	r, runErr := runTests(t, tests)
	require.Error(t, runErr)

	started := time.Now().Add(-time.Minute)
	finished := time.Now()
	s := report.Collect("run-1", "smoke", r, started, finished, runErr)

	require.Equal(t, "run-1", s.RunID)
	require.Equal(t, "smoke", s.Suite)
	require.Equal(t, runner.StatusFailed, s.Status)
	require.Equal(t, 1, s.Passed)
	require.Equal(t, 1, s.Failed)
	require.Equal(t, 1, s.Skipped)
	require.Len(t, s.Nodes, 3)
	require.Equal(t, 1, s.ExitCode())
}

func TestExitCodeZeroOnlyWhenCleanAndGreen(t *testing.T) {
	require.Zero(t, report.Summary{Passed: 3}.ExitCode())
	require.Equal(t, 1, report.Summary{Passed: 3, Failed: 1}.ExitCode())
	// A skipped-only run is still green.
	require.Zero(t, report.Summary{Skipped: 2}.ExitCode())
	// A run-level error fails the run even with zero failed nodes.
	require.Equal(t, 1, report.Summary{Passed: 3, Err: errors.New("teardown failed")}.ExitCode())
}

func TestRenderListsEveryNode(t *testing.T) {
	tests := []suite.Test{
		{Name: "alpha", Groups: []string{"g1", "g2"}, Action: func(context.Context) error { return nil }},
		{Name: "beta", Action: func(context.Context) error { return suite.Skipf("not today") }},
	}
	r, runErr := runTests(t, tests)
	require.NoError(t, runErr)

	s := report.Collect("run-2", "smoke", r, time.Now(), time.Now(), runErr)
	out := s.Render()
	require.Contains(t, out, "run-2")
	require.Contains(t, out, "alpha")
	require.Contains(t, out, "g1, g2")
	require.Contains(t, out, "beta")
	require.Contains(t, out, "not today")
}
