// SPDX-License-Identifier: MIT

package correct

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/hicbalance/genome"
)

var (
	// ErrShapeMismatch is matched by every *ShapeMismatchError.
	ErrShapeMismatch = errors.New("correct: chromosome blocks do not partition the matrix")

	// ErrBadOption reports an invalid orchestrator option.
	ErrBadOption = errors.New("correct: invalid option")
)

// ShapeMismatchError reports an invalid chromosome partition. Err carries the
// genome sentinel (ErrGap, ErrOverlap, ErrCoverage, ...).
type ShapeMismatchError struct {
	Size   int
	Blocks []genome.Block
	Err    error
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("correct: %d blocks over %d bins: %v", len(e.Blocks), e.Size, e.Err)
}

// Is makes errors.Is(err, ErrShapeMismatch) true.
func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// Unwrap exposes the genome sentinel.
func (e *ShapeMismatchError) Unwrap() error { return e.Err }
