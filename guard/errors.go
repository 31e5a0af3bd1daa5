// SPDX-License-Identifier: MIT

package guard

import (
	"errors"
	"fmt"
)

var (
	// ErrBalancingFailed is matched by every *BalancingFailedError.
	ErrBalancingFailed = errors.New("guard: balancing failed")

	// ErrBadOption reports an invalid guard option.
	ErrBadOption = errors.New("guard: invalid option")

	// ErrBadBias reports a solver result that violates the bias contract
	// (wrong length, zero, negative or non-finite entries).
	ErrBadBias = errors.New("guard: solver returned an invalid bias vector")
)

// BalancingFailedError is returned when the retry budget is exhausted or when
// no rows would remain after another removal.
type BalancingFailedError struct {
	Attempts int     // solver invocations made
	Excluded int     // rows stripped across all retries
	Residual float64 // residual norm reported by the last failure (NaN if unknown)
	Err      error   // last solver error
}

func (e *BalancingFailedError) Error() string {
	return fmt.Sprintf("guard: balancing failed after %d attempts (%d rows excluded, residual %.3e): %v",
		e.Attempts, e.Excluded, e.Residual, e.Err)
}

// Is makes errors.Is(err, ErrBalancingFailed) true.
func (e *BalancingFailedError) Is(target error) bool { return target == ErrBalancingFailed }

// Unwrap exposes the last solver error.
func (e *BalancingFailedError) Unwrap() error { return e.Err }
