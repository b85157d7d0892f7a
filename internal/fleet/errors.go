package fleet

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors. Wrapped errors are matched with errors.Is.
var (
	// ErrTimeout is returned when a bounded wait exceeds its deadline.
	ErrTimeout = errors.New("timed out")

	// ErrProviderTerminal is returned when a launched instance enters
	// terminated, stopped or stopping before becoming addressable.
	ErrProviderTerminal = errors.New("instance entered a terminal state")

	// ErrAuthenticationFailed is returned when a remote session is refused.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrResourceNotFound is returned when a user-supplied local or remote
	// path does not exist.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrAddressUnresolved is returned when an operation needs the
	// controller address and none is known.
	ErrAddressUnresolved = errors.New("controller address unresolved")

	// ErrNoWorkingFleet is returned when no fleet record exists locally.
	ErrNoWorkingFleet = errors.New("no working fleet; run init or workon first")
)

// TimeoutError names the wait that expired.
type TimeoutError struct {
	Operation string
	After     time.Duration
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("%s: %v after %s", e.Operation, ErrTimeout, e.After)
	}
	return fmt.Sprintf("%s: %v", e.Operation, ErrTimeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// TerminalStateError identifies the instance that aborted a launch.
type TerminalStateError struct {
	InstanceID string
	State      InstanceState
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("instance %s is %s: %v", e.InstanceID, e.State, ErrProviderTerminal)
}

func (e *TerminalStateError) Unwrap() error { return ErrProviderTerminal }

// TeardownCategory names one step of a fleet teardown.
type TeardownCategory string

// Teardown categories in execution order.
const (
	CategoryInstances       TeardownCategory = "instances"
	CategoryTerminationWait TeardownCategory = "termination-wait"
	CategoryVolumes         TeardownCategory = "volumes"
	CategorySecurityGroups  TeardownCategory = "security-groups"
	CategoryLocalState      TeardownCategory = "local-state"
)

// TeardownFailure is one failed teardown step.
type TeardownFailure struct {
	Category TeardownCategory
	Err      error
}

// PartialTeardownError aggregates every failed teardown step. Steps not
// listed completed.
type PartialTeardownError struct {
	Failures []TeardownFailure
}

// Add records a failure for the category. Nil errors are ignored.
func (e *PartialTeardownError) Add(category TeardownCategory, err error) {
	if err != nil {
		e.Failures = append(e.Failures, TeardownFailure{Category: category, Err: err})
	}
}

// HasErrors reports whether any step failed.
func (e *PartialTeardownError) HasErrors() bool {
	return len(e.Failures) > 0
}

// Categories returns the distinct failed categories in the order they failed.
func (e *PartialTeardownError) Categories() []TeardownCategory {
	seen := make(map[TeardownCategory]bool)
	var out []TeardownCategory
	for _, f := range e.Failures {
		if !seen[f.Category] {
			seen[f.Category] = true
			out = append(out, f.Category)
		}
	}
	return out
}

// Failed reports whether the category has at least one failure.
func (e *PartialTeardownError) Failed(category TeardownCategory) bool {
	for _, f := range e.Failures {
		if f.Category == category {
			return true
		}
	}
	return false
}

func (e *PartialTeardownError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Category, f.Err))
	}
	return fmt.Sprintf("teardown incomplete (%d failed): %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *PartialTeardownError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
