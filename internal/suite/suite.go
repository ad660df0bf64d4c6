package suite

import (
	"context"
	"fmt"
)

// Action is the body of a single test. A nil return records the test as
// passed, a SkipError records it as skipped, and any other error records
// it as failed.
type Action func(ctx context.Context) error

// Test declares a single test case together with its ordering metadata.
// Declarations are plain data; nothing executes until a plan is run.
type Test struct {
	// Name uniquely identifies the test within a registry.
	Name string

	// Groups the test belongs to. Groups express ordering only and carry
	// no identity of their own.
	Groups []string

	// DependsOn lists tests that must pass before this one runs. If a
	// dependency fails or is skipped, this test is skipped unless
	// AlwaysRun is set.
	DependsOn []string

	// RunsAfter lists tests that must reach a terminal state before this
	// one runs. Unlike DependsOn, their outcome does not gate this test.
	RunsAfter []string

	// RunsAfterGroups lists groups whose every member must reach a
	// terminal state before this test runs.
	RunsAfterGroups []string

	// AlwaysRun forces execution regardless of upstream outcomes. Meant
	// for cleanup-style tests. Ordering constraints still apply.
	AlwaysRun bool

	Action Action
}

// Registry collects test declarations for a single run, preserving
// declaration order. Plans built from a registry break ordering ties by
// this order, which is what makes repeated runs deterministic.
type Registry struct {
	tests []Test
	names map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Add registers a test declaration. Names must be unique and non-empty.
func (r *Registry) Add(tests ...Test) error {
	for _, t := range tests {
		if t.Name == "" {
			return fmt.Errorf("test name must not be empty")
		}
		if _, ok := r.names[t.Name]; ok {
			return fmt.Errorf("duplicate test name: %s", t.Name)
		}
		r.names[t.Name] = struct{}{}
		r.tests = append(r.tests, t)
	}
	return nil
}

// Tests returns the declarations in declaration order.
func (r *Registry) Tests() []Test {
	tests := make([]Test, len(r.tests))
	copy(tests, r.tests)
	return tests
}

// Len returns the number of registered tests.
func (r *Registry) Len() int {
	return len(r.tests)
}
