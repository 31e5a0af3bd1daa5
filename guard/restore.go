// SPDX-License-Identifier: MIT

package guard

import (
	"fmt"

	"github.com/katalvlaran/hicbalance/matrix"
)

// RestoreVector grows x by inserting zeros so they land at positions idx of
// the result (len(x)+len(idx)). idx must be ascending.
func RestoreVector(x []float64, idx []int) ([]float64, error) {
	size := len(x) + len(idx)
	if err := matrix.ValidateIndexSet(idx, size); err != nil {
		return nil, fmt.Errorf("RestoreVector: %w", err)
	}
	out := make([]float64, size)
	for i, dst := range matrix.Complement(idx, size) {
		out[dst] = x[i]
	}

	return out, nil
}

// RestoreMatrix inserts zero rows and columns at positions idx.
func RestoreMatrix(m matrix.Matrix, idx []int) (*matrix.Dense, error) {
	out, err := matrix.InsertZeroRowsCols(m, idx)
	if err != nil {
		return nil, fmt.Errorf("RestoreMatrix: %w", err)
	}

	return out, nil
}

// Restore undoes every step of rec on (x, m), last step first.
// Either of x / m may be nil to restore only the other one.
func Restore(x []float64, m matrix.Matrix, rec RemovalRecord) ([]float64, *matrix.Dense, error) {
	var (
		out *matrix.Dense
		err error
	)
	if m != nil {
		if out, err = matrix.AsDense(m); err != nil {
			return nil, nil, fmt.Errorf("Restore: %w", err)
		}
	}
	for k := len(rec.steps) - 1; k >= 0; k-- {
		idx := rec.steps[k]
		if x != nil {
			if x, err = RestoreVector(x, idx); err != nil {
				return nil, nil, fmt.Errorf("Restore step %d: %w", k, err)
			}
		}
		if out != nil {
			if out, err = RestoreMatrix(out, idx); err != nil {
				return nil, nil, fmt.Errorf("Restore step %d: %w", k, err)
			}
		}
	}

	return x, out, nil
}
