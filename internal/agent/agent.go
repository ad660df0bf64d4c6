// Package agent wires a declared suite through the full pipeline: lock
// acquisition, graph build, planning, execution, metrics and the final
// report.
package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/sequor-org/sequor/internal/config"
	"github.com/sequor-org/sequor/internal/logger"
	"github.com/sequor-org/sequor/internal/metrics"
	"github.com/sequor-org/sequor/internal/planner"
	"github.com/sequor-org/sequor/internal/report"
	"github.com/sequor-org/sequor/internal/runner"
	"github.com/sequor-org/sequor/internal/suite"
)

// Params describes one run.
type Params struct {
	// Suite names the run in reports and metrics.
	Suite string
	// Tests are the declarations, in declaration order.
	Tests []suite.Test
	// Setup and Teardown are suite-scoped hooks (e.g. login/logout).
	Setup    runner.Hook
	Teardown runner.Hook
	// WarnCounter, when set together with StrictWarnings, fails an
	// otherwise green run that logged warnings.
	WarnCounter *logger.WarnCounter
}

type Agent struct {
	cfg    *config.Config
	params Params
	runID  string
}

func New(cfg *config.Config, params Params) *Agent {
	return &Agent{
		cfg:    cfg,
		params: params,
		runID:  uuid.NewString(),
	}
}

// RunID returns the identifier assigned to this run.
func (a *Agent) RunID() string {
	return a.runID
}

// Run executes the suite once and returns the collected summary. The
// returned error is the run-level failure, if any; callers should still
// inspect the summary for per-node detail and the exit code.
func (a *Agent) Run(ctx context.Context) (report.Summary, error) {
	ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With("run_id", a.runID, "suite", a.params.Suite))

	// One run per suite per host; two concurrent runs would race on the
	// same remote account.
	lockPath := filepath.Join(a.cfg.Run.LockDir, fmt.Sprintf("sequor-%s.lock", a.params.Suite))
	fileLock := flock.New(lockPath)
	locked, err := fileLock.TryLock()
	if err != nil {
		return report.Summary{}, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !locked {
		return report.Summary{}, fmt.Errorf("another run of suite %q is in progress (lock %s)", a.params.Suite, lockPath)
	}
	defer func() {
		_ = fileLock.Unlock()
	}()

	registry := suite.NewRegistry()
	if err := registry.Add(a.params.Tests...); err != nil {
		return report.Summary{}, err
	}

	graph, err := planner.Build(registry.Tests())
	if err != nil {
		metrics.RecordError("build")
		return report.Summary{}, err
	}
	plan, err := planner.NewPlan(graph)
	if err != nil {
		metrics.RecordError("plan")
		return report.Summary{}, err
	}

	logger.Info(ctx, "Run started", "tests", plan.Size(), "workers", a.cfg.Run.MaxWorkers)

	r := runner.New(&runner.Config{
		MaxWorkers: a.cfg.Run.MaxWorkers,
		Timeout:    a.cfg.Run.Timeout,
		Setup:      a.params.Setup,
		Teardown:   a.params.Teardown,
	})

	done := make(chan *runner.Node)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for node := range done {
			metrics.RecordTest(a.params.Suite, a.runID, node.State())
		}
	}()

	startedAt := time.Now()
	runErr := r.Run(ctx, plan, done)
	close(done)
	wg.Wait()
	finishedAt := time.Now()

	summary := report.Collect(a.runID, a.params.Suite, r, startedAt, finishedAt, runErr)

	if a.cfg.Run.StrictWarnings && a.params.WarnCounter != nil {
		if n := a.params.WarnCounter.Count(); n > 0 && summary.Err == nil {
			summary.Err = fmt.Errorf("%d warnings were logged during the run", n)
		}
	}

	metrics.RecordRun(a.params.Suite, a.runID, summary.Passed, summary.Failed, summary.Skipped, finishedAt.Sub(startedAt))

	logger.Info(ctx, "Run finished",
		"status", summary.Status.String(),
		"passed", summary.Passed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return summary, runErr
}
