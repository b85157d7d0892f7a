// Package poll implements bounded polling: evaluate a readiness check at a
// fixed interval until it reports ready or an overall deadline passes.
//
// A timeout is not an error at this layer. Until reports it as (false, nil)
// so the caller decides whether an expired wait aborts the operation; use
// [Expect] to turn it into a [fleet.TimeoutError].
package poll

import (
	"context"
	"time"

	"github.com/imamik/fleetctl/internal/fleet"
)

// Predicate is a readiness check. It returns (false, nil) for "not yet" and
// a non-nil error only for conditions that can never become ready.
type Predicate func(ctx context.Context) (bool, error)

// Until evaluates pred immediately and then every interval until it returns
// true, returns an error, or timeout has elapsed since the first evaluation.
//
// Elapsed time is measured on the monotonic clock. A timeout <= 0 disables
// the deadline; the caller's context is then the only bound. The final sleep
// is shortened so the last evaluation happens at the deadline rather than
// after it.
func Until(ctx context.Context, interval, timeout time.Duration, pred Predicate) (bool, error) {
	start := time.Now()

	for {
		ok, err := pred(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}

		wait := interval
		if timeout > 0 {
			remaining := timeout - time.Since(start)
			if remaining <= 0 {
				return false, nil
			}
			if remaining < wait {
				wait = remaining
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}
}

// Expect runs Until and converts an expired deadline into a
// *fleet.TimeoutError naming the operation.
func Expect(ctx context.Context, operation string, interval, timeout time.Duration, pred Predicate) error {
	ok, err := Until(ctx, interval, timeout, pred)
	if err != nil {
		return err
	}
	if !ok {
		return &fleet.TimeoutError{Operation: operation, After: timeout}
	}
	return nil
}
