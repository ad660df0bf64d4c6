package backoff

import (
	"errors"
	"math"
	"sync"
	"time"
)

var (
	// ErrRetriesExhausted is returned by a Retrier when the attempt
	// budget is spent.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// RetryPolicy computes the wait interval before the next attempt.
type RetryPolicy interface {
	// NextInterval returns the duration to wait before retry number
	// retryCount (zero-based), or an error when no further attempt
	// should be made.
	NextInterval(retryCount int, elapsed time.Duration) (time.Duration, error)
}

const noMaximumInterval = time.Duration(math.MaxInt64)

// ConstantPolicy waits the same interval between every attempt.
type ConstantPolicy struct {
	// Interval between attempts.
	Interval time.Duration
	// MaxRetries bounds the number of retries. 0 means unlimited.
	MaxRetries int
}

func NewConstantPolicy(interval time.Duration) *ConstantPolicy {
	return &ConstantPolicy{Interval: interval}
}

func (p *ConstantPolicy) NextInterval(retryCount int, _ time.Duration) (time.Duration, error) {
	if p.MaxRetries > 0 && retryCount >= p.MaxRetries {
		return 0, ErrRetriesExhausted
	}
	return p.Interval, nil
}

// LinearPolicy grows the interval by a fixed increment per retry.
type LinearPolicy struct {
	InitialInterval time.Duration
	Increment       time.Duration
	// MaxInterval caps the computed interval. 0 means no cap.
	MaxInterval time.Duration
	// MaxRetries bounds the number of retries. 0 means unlimited.
	MaxRetries int
}

func NewLinearPolicy(initial, increment time.Duration) *LinearPolicy {
	return &LinearPolicy{InitialInterval: initial, Increment: increment}
}

func (p *LinearPolicy) NextInterval(retryCount int, _ time.Duration) (time.Duration, error) {
	if p.MaxRetries > 0 && retryCount >= p.MaxRetries {
		return 0, ErrRetriesExhausted
	}
	interval := p.InitialInterval + time.Duration(retryCount)*p.Increment
	return min(interval, p.maxInterval()), nil
}

func (p *LinearPolicy) maxInterval() time.Duration {
	if p.MaxInterval <= 0 {
		return noMaximumInterval
	}
	return p.MaxInterval
}

// ExponentialPolicy multiplies the interval by Factor after each retry.
type ExponentialPolicy struct {
	InitialInterval time.Duration
	Factor          float64
	// MaxInterval caps the computed interval. 0 means no cap.
	MaxInterval time.Duration
	// MaxRetries bounds the number of retries. 0 means unlimited.
	MaxRetries int
}

func NewExponentialPolicy(initial time.Duration, factor float64) *ExponentialPolicy {
	return &ExponentialPolicy{InitialInterval: initial, Factor: factor}
}

func (p *ExponentialPolicy) NextInterval(retryCount int, _ time.Duration) (time.Duration, error) {
	if p.MaxRetries > 0 && retryCount >= p.MaxRetries {
		return 0, ErrRetriesExhausted
	}
	interval := float64(p.InitialInterval) * math.Pow(p.Factor, float64(retryCount))
	if p.MaxInterval > 0 && interval > float64(p.MaxInterval) {
		interval = float64(p.MaxInterval)
	}
	return time.Duration(interval), nil
}

// Retrier tracks attempt state for a single operation.
type Retrier struct {
	policy     RetryPolicy
	retryCount int
	startTime  time.Time
	mu         sync.Mutex
}

func NewRetrier(policy RetryPolicy) *Retrier {
	return &Retrier{policy: policy}
}

// Next returns the interval to wait before the next attempt and advances
// the retry counter. It returns ErrRetriesExhausted (or the policy's
// error) once the budget is spent.
func (r *Retrier) Next() (time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.startTime.IsZero() {
		r.startTime = time.Now()
	}

	interval, err := r.policy.NextInterval(r.retryCount, time.Since(r.startTime))
	if err != nil {
		return 0, err
	}
	r.retryCount++
	return interval, nil
}

// Reset returns the retrier to its initial state.
func (r *Retrier) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryCount = 0
	r.startTime = time.Time{}
}
