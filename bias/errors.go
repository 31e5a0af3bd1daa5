// SPDX-License-Identifier: MIT

package bias

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateInput is matched by every *DegenerateInputError: a
	// normalization divisor vanished or the iterate left the representable range.
	ErrDegenerateInput = errors.New("bias: degenerate input")

	// ErrNotConverged is matched by *NotConvergedError: the outer-iteration
	// cap was reached with the residual still above tolerance.
	ErrNotConverged = errors.New("bias: not converged")

	// ErrOverflow reports input whose entries are too large for x⊙(A·x) to be
	// represented. Removing rows cannot fix it.
	ErrOverflow = errors.New("bias: matrix values overflow")

	// ErrBadOption reports an invalid option value (tol ≤ 0, delta > Delta, ...).
	ErrBadOption = errors.New("bias: invalid option")
)

// Residualer is implemented by solver errors that know the residual norm
// ‖1 − x⊙(A·x)‖ at the time of failure.
type Residualer interface {
	ResidualNorm() float64
}

// DegenerateInputError describes where the iteration broke down.
// Index is the offending row (-1 when the failure is not tied to one row).
type DegenerateInputError struct {
	Outer    int     // outer iteration (1-based, 0 before the first step)
	Inner    int     // inner iteration within Outer
	Index    int     // row whose divisor vanished, or -1
	Residual float64 // residual norm at failure
	Reason   string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("bias: degenerate input at outer=%d inner=%d index=%d (residual %.3e): %s",
		e.Outer, e.Inner, e.Index, e.Residual, e.Reason)
}

// Is makes errors.Is(err, ErrDegenerateInput) true.
func (e *DegenerateInputError) Is(target error) bool { return target == ErrDegenerateInput }

// ResidualNorm implements Residualer.
func (e *DegenerateInputError) ResidualNorm() float64 { return e.Residual }

// NotConvergedError reports an exhausted outer-iteration budget.
type NotConvergedError struct {
	Iterations int
	Residual   float64
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("bias: not converged after %d outer iterations (residual %.3e)", e.Iterations, e.Residual)
}

// Is makes errors.Is(err, ErrNotConverged) true.
func (e *NotConvergedError) Is(target error) bool { return target == ErrNotConverged }

// ResidualNorm implements Residualer.
func (e *NotConvergedError) ResidualNorm() float64 { return e.Residual }

func optionErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadOption, fmt.Sprintf(format, args...))
}
