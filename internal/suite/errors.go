package suite

import (
	"errors"
	"fmt"
)

// SkipError is the intentional-skip signal. An action returning (or
// wrapping) a SkipError records the test as skipped rather than failed.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	if e.Reason == "" {
		return "skipped"
	}
	return "skipped: " + e.Reason
}

// Skipf builds an intentional-skip signal with a formatted reason.
func Skipf(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// IsSkip reports whether err represents an intentional skip.
func IsSkip(err error) bool {
	var skip *SkipError
	return errors.As(err, &skip)
}

// AssertionError reports a mismatch between observed and expected state.
// It is the only error kind Eventually retries; anything else is treated
// as a hard fault and propagates immediately.
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string { return e.Msg }

// Assertf builds an AssertionError with a formatted message.
func Assertf(format string, args ...any) error {
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}

// IsAssertion reports whether err is an assertion mismatch.
func IsAssertion(err error) bool {
	var mismatch *AssertionError
	return errors.As(err, &mismatch)
}
