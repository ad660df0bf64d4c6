package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sequor-org/sequor/internal/logger"
	"github.com/sequor-org/sequor/internal/planner"
	"github.com/sequor-org/sequor/internal/suite"
)

// Status is the overall outcome of a run.
type Status int

const (
	StatusNone Status = iota
	StatusRunning
	StatusFailed
	StatusCanceled
	StatusPassed
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusFailed:
		return "failed"
	case StatusCanceled:
		return "canceled"
	case StatusPassed:
		return "passed"
	case StatusNone:
		fallthrough
	default:
		return "not started"
	}
}

var (
	ErrUpstreamFailed  = errors.New("upstream failed")
	ErrUpstreamSkipped = errors.New("upstream skipped")
	ErrSetupFailed     = errors.New("suite setup failed")
	ErrRunCanceled     = errors.New("run canceled")
)

// Hook is a suite-scoped lifecycle function. Setup is a fatal
// precondition: its failure skips every gated node. Teardown always runs.
type Hook func(ctx context.Context) error

type Config struct {
	// MaxWorkers bounds concurrent nodes within a batch. Zero or one
	// means strictly sequential execution in plan order.
	MaxWorkers int
	// Timeout aborts the run once exceeded: not-yet-started nodes are
	// skipped, AlwaysRun nodes and Teardown still execute.
	Timeout  time.Duration
	Setup    Hook
	Teardown Hook
}

// Runner walks an execution plan batch by batch. It owns every node's
// mutable state and writes each terminal state exactly once; a node
// failure never aborts the run, it only propagates as skips along
// depends-on edges.
type Runner struct {
	maxWorkers int
	timeout    time.Duration
	setup      Hook
	teardown   Hook

	mu          sync.RWMutex
	nodes       []*Node // plan order
	byID        map[int]*Node
	lastErr     error
	teardownErr error
	canceled    bool
	started     bool
	finished    bool
}

func New(cfg *Config) *Runner {
	workers := cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		maxWorkers: workers,
		timeout:    cfg.Timeout,
		setup:      cfg.Setup,
		teardown:   cfg.Teardown,
	}
}

// Run executes the plan. Every finished node (including skipped ones) is
// sent to done when it is non-nil. The returned error is the last node or
// hook failure observed; per-node detail is available via Nodes.
func (r *Runner) Run(ctx context.Context, plan *planner.Plan, done chan<- *Node) error {
	r.initNodes(plan)

	setupFailed := false
	if r.setup != nil {
		if err := r.setup(ctx); err != nil {
			setupFailed = true
			r.setLastError(fmt.Errorf("%w: %v", ErrSetupFailed, err))
			logger.Error(ctx, "Suite setup failed", "err", err)
		}
	}

	var cancel context.CancelFunc
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	for _, batch := range plan.Batches {
		r.runBatch(ctx, plan, batch, setupFailed, done)
	}

	if r.teardown != nil {
		// Teardown runs even after a deadline or cancellation.
		if err := r.teardown(context.WithoutCancel(ctx)); err != nil {
			r.mu.Lock()
			r.teardownErr = err
			r.mu.Unlock()
			r.setLastError(fmt.Errorf("suite teardown failed: %w", err))
			logger.Error(ctx, "Suite teardown failed", "err", err)
		}
	}

	r.mu.Lock()
	r.finished = true
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

func (r *Runner) initNodes(plan *planner.Plan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = make([]*Node, 0, plan.Size())
	r.byID = make(map[int]*Node, plan.Size())
	for _, pn := range plan.Order {
		node := newNode(pn)
		r.nodes = append(r.nodes, node)
		r.byID[pn.ID()] = node
	}
	r.started = true
}

// runBatch executes the eligible nodes of one batch, at most maxWorkers
// at a time. Batch members share no edge with each other, and every
// predecessor batch has finished, so no node can observe an upstream in a
// non-terminal state.
func (r *Runner) runBatch(ctx context.Context, plan *planner.Plan, batch []*planner.Node, setupFailed bool, done chan<- *Node) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, r.maxWorkers)

	for _, pn := range batch {
		node := r.byID[pn.ID()]

		if reason := r.gate(ctx, plan, node, setupFailed); reason != nil {
			node.data.MarkSkipped(reason)
			node.data.Finish()
			logger.Info(ctx, "Test skipped", "test", node.Name(), "reason", reason)
			notify(done, node)
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(node *Node) {
			defer func() {
				<-sem
				wg.Done()
			}()
			r.execNode(ctx, node)
			notify(done, node)
		}(node)
	}

	wg.Wait()
}

// gate decides whether a node must be skipped without running. AlwaysRun
// nodes pass every gate; they only wait for ordering, which the batch
// structure already guarantees.
func (r *Runner) gate(ctx context.Context, plan *planner.Plan, node *Node, setupFailed bool) error {
	if node.AlwaysRun() {
		return nil
	}
	if setupFailed {
		return ErrSetupFailed
	}
	if ctx.Err() != nil {
		r.Cancel()
	}
	if r.isCanceled() {
		return ErrRunCanceled
	}
	for _, dep := range plan.DependsOn(node.ID()) {
		switch r.byID[dep].data.Status() {
		case NodeStatusFailed:
			return ErrUpstreamFailed
		case NodeStatusSkipped:
			return ErrUpstreamSkipped
		default:
			// terminal passed; pending/running cannot happen here
		}
	}
	return nil
}

func (r *Runner) execNode(ctx context.Context, node *Node) {
	execCtx := ctx
	if node.AlwaysRun() {
		// Cleanup nodes outlive a run deadline.
		execCtx = context.WithoutCancel(ctx)
	}

	logger.Info(ctx, "Test started", "test", node.Name())
	node.data.Start()
	err := node.Execute(execCtx)
	switch {
	case err == nil:
		node.data.MarkPassed()
	case suite.IsSkip(err):
		node.data.MarkSkipped(err)
	default:
		node.data.MarkFailed(err)
		r.setLastError(err)
	}
	node.data.Finish()
	logger.Info(ctx, "Test finished", "test", node.Name(), "status", node.data.Status().String())
}

func notify(done chan<- *Node, node *Node) {
	if done != nil {
		done <- node
	}
}

// Cancel marks the run as canceled. Nodes that have not started are
// skipped at their gate; a node already inside its action is only
// interrupted at a context-aware wait such as Eventually's backoff timer.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canceled = true
}

func (r *Runner) isCanceled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.canceled
}

func (r *Runner) setLastError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastErr = err
}

// Nodes returns the nodes in plan order.
func (r *Runner) Nodes() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nodes := make([]*Node, len(r.nodes))
	copy(nodes, r.nodes)
	return nodes
}

// TeardownErr returns the teardown hook's failure, if any.
func (r *Runner) TeardownErr() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.teardownErr
}

// Status summarizes the run.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch {
	case !r.started:
		return StatusNone
	case !r.finished:
		return StatusRunning
	case r.lastErr != nil:
		return StatusFailed
	case r.canceled:
		return StatusCanceled
	default:
		return StatusPassed
	}
}
