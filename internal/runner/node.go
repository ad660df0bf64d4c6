package runner

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/sequor-org/sequor/internal/planner"
	"github.com/sequor-org/sequor/internal/suite"
)

// Node pairs a planned test with its runtime state.
type Node struct {
	id     int
	action suite.Action
	data   *safeData
}

func newNode(pn *planner.Node) *Node {
	test := pn.Test()
	return &Node{
		id:     pn.ID(),
		action: test.Action,
		data: newSafeData(NodeData{
			Name:      test.Name,
			Groups:    test.Groups,
			AlwaysRun: test.AlwaysRun,
		}),
	}
}

func (n *Node) ID() int         { return n.id }
func (n *Node) Name() string    { return n.data.Snapshot().Name }
func (n *Node) AlwaysRun() bool { return n.data.Snapshot().AlwaysRun }

// State returns a snapshot of the node's current state.
func (n *Node) State() NodeData {
	return n.data.Snapshot()
}

// Execute invokes the node's action, converting a panic into an error so
// a misbehaving test cannot take down the run.
func (n *Node) Execute(ctx context.Context) (err error) {
	defer func() {
		if panicObj := recover(); panicObj != nil {
			err = fmt.Errorf("panic recovered: %v\n%s", panicObj, debug.Stack())
		}
	}()

	if n.action == nil {
		return nil
	}
	return n.action(ctx)
}
