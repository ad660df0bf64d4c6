package suite

import (
	"context"
	"time"

	"github.com/sequor-org/sequor/internal/backoff"
)

// PollSpec bounds an Eventually call. Attempts counts total invocations
// of the check, not retries: Attempts=3 means the check runs at most
// three times with two waits in between.
type PollSpec struct {
	Attempts int
	Interval time.Duration
	Factor   float64
}

// DefaultPollSpec matches the patience the built-in acceptance suite
// gives a remote library to settle: 4 attempts starting at one second,
// doubling each time.
func DefaultPollSpec() PollSpec {
	return PollSpec{Attempts: 4, Interval: time.Second, Factor: 2}
}

func (s PollSpec) normalize() PollSpec {
	if s.Attempts <= 0 {
		s.Attempts = 1
	}
	if s.Factor <= 0 {
		s.Factor = 1
	}
	return s
}

// Eventually runs check until it stops returning an AssertionError, the
// attempt budget is spent, or ctx is done. The check reads remote state
// and asserts on it; Eventually only supplies patience. After the final
// failed attempt the last AssertionError is returned unchanged. Any
// non-assertion error (a transport fault, for instance) is never retried
// and propagates from the first attempt that produced it.
func Eventually(ctx context.Context, check Action, spec PollSpec) error {
	spec = spec.normalize()
	if spec.Attempts == 1 {
		// MaxRetries of zero means unlimited to the policy, so a single
		// attempt bypasses the retry loop entirely.
		if err := ctx.Err(); err != nil {
			return err
		}
		return check(ctx)
	}
	policy := &backoff.ExponentialPolicy{
		InitialInterval: spec.Interval,
		Factor:          spec.Factor,
		MaxRetries:      spec.Attempts - 1,
	}
	return backoff.Retry(ctx, backoff.Operation(check), policy, IsAssertion)
}
