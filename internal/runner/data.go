package runner

import (
	"sync"
	"time"
)

// NodeStatus is the lifecycle state of a node. Every node ends a run in
// exactly one of the three terminal states.
type NodeStatus int

const (
	NodeStatusPending NodeStatus = iota
	NodeStatusRunning
	NodeStatusPassed
	NodeStatusFailed
	NodeStatusSkipped
)

func (s NodeStatus) String() string {
	switch s {
	case NodeStatusRunning:
		return "running"
	case NodeStatusPassed:
		return "passed"
	case NodeStatusFailed:
		return "failed"
	case NodeStatusSkipped:
		return "skipped"
	case NodeStatusPending:
		fallthrough
	default:
		return "pending"
	}
}

// IsTerminal reports whether no further transition is possible.
func (s NodeStatus) IsTerminal() bool {
	return s == NodeStatusPassed || s == NodeStatusFailed || s == NodeStatusSkipped
}

// NodeData is the mutable state of a node: its outcome and timing. The
// runner owns it exclusively and writes each terminal field once.
type NodeData struct {
	Name       string
	Groups     []string
	AlwaysRun  bool
	Status     NodeStatus
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// safeData guards NodeData behind a mutex so observers (done-channel
// consumers, reporters) can snapshot state while a batch is running.
type safeData struct {
	mu   sync.RWMutex
	data NodeData
}

func newSafeData(data NodeData) *safeData {
	return &safeData{data: data}
}

func (d *safeData) Snapshot() NodeData {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data
}

func (d *safeData) Status() NodeStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data.Status
}

func (d *safeData) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data.Status = NodeStatusRunning
	d.data.StartedAt = time.Now()
}

func (d *safeData) MarkPassed() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data.Status = NodeStatusPassed
}

func (d *safeData) MarkFailed(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data.Status = NodeStatusFailed
	d.data.Err = err
}

func (d *safeData) MarkSkipped(reason error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data.Status = NodeStatusSkipped
	d.data.Err = reason
}

func (d *safeData) Finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data.FinishedAt = time.Now()
}
