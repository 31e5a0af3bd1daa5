// SPDX-License-Identifier: MIT

// Package matrix - symmetric row/column surgery.
//
// Sparse-row recovery strips rows together with their mirrored columns and
// later re-inserts zero rows/columns at the same positions. Index sets are
// always strictly ascending and expressed in the coordinates of the matrix
// they apply to:
//   - DeleteRowsCols: indices into the input (size n), result size n-k.
//   - InsertZeroRowsCols: indices into the result (size n+k).

package matrix

import "fmt"

const (
	ctxDelete = "DeleteRowsCols"
	ctxInsert = "InsertZeroRowsCols"
)

// ValidateIndexSet checks that idx is strictly ascending and inside [0, n).
// Returns ErrBadIndexSet otherwise. Complexity: O(len(idx)).
func ValidateIndexSet(idx []int, n int) error {
	prev := -1
	for _, ix := range idx {
		if ix <= prev || ix >= n {
			return validatorErrorf("ValidateIndexSet", fmt.Errorf("index %d (n=%d): %w", ix, n, ErrBadIndexSet))
		}
		prev = ix
	}

	return nil
}

// Complement returns the ascending indices of [0, n) that are not in idx.
// idx must satisfy ValidateIndexSet(idx, n).
// Complexity: O(n).
func Complement(idx []int, n int) []int {
	keep := make([]int, 0, n-len(idx))
	k := 0
	for i := 0; i < n; i++ {
		if k < len(idx) && idx[k] == i {
			k++
			continue
		}
		keep = append(keep, i)
	}

	return keep
}

// DeleteRowsCols returns a copy of square m with rows AND columns idx removed.
// MAIN DESCRIPTION:
//   - Mirrored removal keeps a symmetric matrix symmetric.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrBadIndexSet.
//
// Complexity:
//   - Time O((n-k)²), Space O((n-k)²).
func DeleteRowsCols(m Matrix, idx []int) (*Dense, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(ctxDelete, err)
	}
	n := m.Rows()
	if err := ValidateIndexSet(idx, n); err != nil {
		return nil, matrixErrorf(ctxDelete, err)
	}
	d, err := AsDense(m)
	if err != nil {
		return nil, matrixErrorf(ctxDelete, err)
	}
	keep := Complement(idx, n)

	return d.Induced(keep, keep)
}

// InsertZeroRowsCols grows square m to size n+k by inserting zero rows and
// columns so that they land at positions idx of the result.
// MAIN DESCRIPTION:
//   - Exact inverse of DeleteRowsCols on the kept cells:
//     InsertZeroRowsCols(DeleteRowsCols(A, idx), idx) equals A with rows and
//     columns idx zeroed.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrBadIndexSet (idx must be ascending inside [0, n+k)).
//
// Complexity:
//   - Time O((n+k)²), Space O((n+k)²).
func InsertZeroRowsCols(m Matrix, idx []int) (*Dense, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(ctxInsert, err)
	}
	n := m.Rows()
	size := n + len(idx)
	if err := ValidateIndexSet(idx, size); err != nil {
		return nil, matrixErrorf(ctxInsert, err)
	}
	d, err := AsDense(m)
	if err != nil {
		return nil, matrixErrorf(ctxInsert, err)
	}

	out, _ := newDenseZeroOK(size, size)
	keep := Complement(idx, size) // keep[i] = destination of source row i
	var i, j int
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			out.data[keep[i]*size+keep[j]] = d.data[i*n+j]
		}
	}

	return out, nil
}
