// SPDX-License-Identifier: MIT

package guard

import (
	"fmt"
	"math"

	"github.com/katalvlaran/hicbalance/matrix"
)

// Policy selects how the sparsest rows are ranked.
type Policy int

const (
	// LowestSum ranks rows by their sum (contact coverage).
	LowestSum Policy = iota
	// FewestNonZero ranks rows by their count of non-zero entries.
	FewestNonZero
)

// String returns the config spelling of p.
func (p Policy) String() string {
	switch p {
	case LowestSum:
		return "lowest-sum"
	case FewestNonZero:
		return "fewest-nonzero"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy is the inverse of Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "lowest-sum", "sum":
		return LowestSum, nil
	case "fewest-nonzero", "nonzero":
		return FewestNonZero, nil
	default:
		return LowestSum, fmt.Errorf("%w: unknown sparse-row policy %q", ErrBadOption, s)
	}
}

// SparsestRows returns the ascending indices of rows whose score is at most
// the cutoff. Without a cutoff (NaN) the cutoff is the minimum score, so every
// row tied at the minimum is returned together; ties therefore never depend on
// iteration order.
//
// Errors: ErrNilMatrix / ErrNonSquare from the matrix validators.
// Complexity: O(n²).
func SparsestRows(m matrix.Matrix, policy Policy, cutoff float64) ([]int, error) {
	if err := matrix.ValidateSquare(m); err != nil {
		return nil, fmt.Errorf("SparsestRows: %w", err)
	}
	d, err := matrix.AsDense(m)
	if err != nil {
		return nil, fmt.Errorf("SparsestRows: %w", err)
	}
	n := d.Rows()
	if n == 0 {
		return nil, nil
	}

	scores := make([]float64, n)
	raw := d.Raw()
	var i, j int
	for i = 0; i < n; i++ {
		row := raw[i*n : (i+1)*n]
		for j = 0; j < n; j++ {
			switch policy {
			case FewestNonZero:
				if row[j] != 0 {
					scores[i]++
				}
			default:
				scores[i] += row[j]
			}
		}
	}

	if math.IsNaN(cutoff) {
		cutoff = scores[0]
		for _, s := range scores[1:] {
			if s < cutoff {
				cutoff = s
			}
		}
	}

	idx := make([]int, 0, 1)
	for i, s := range scores {
		if s <= cutoff {
			idx = append(idx, i)
		}
	}

	return idx, nil
}

// RemoveSparseRows strips the sparsest rows and their mirrored columns.
// Returns the reduced matrix and the removed indices (relative to m).
func RemoveSparseRows(m matrix.Matrix, policy Policy, cutoff float64) (*matrix.Dense, []int, error) {
	idx, err := SparsestRows(m, policy, cutoff)
	if err != nil {
		return nil, nil, err
	}
	reduced, err := matrix.DeleteRowsCols(m, idx)
	if err != nil {
		return nil, nil, fmt.Errorf("RemoveSparseRows: %w", err)
	}

	return reduced, idx, nil
}
