// SPDX-License-Identifier: MIT

// Package matrix - kernels shared by the balancing packages.
//
// Purpose:
//   - MatVec / RowSums: the marginals the solver drives towards one.
//   - ScaleSym: apply a bias vector on both sides, out = diag(b)·A·diag(b).
//   - AllClose: numeric comparison for tests and symmetry diagnostics.
//
// Determinism:
//   - Fixed i→j loop orders; *Dense inputs use the flat buffer directly.

package matrix

import (
	"fmt"
	"math"
)

const (
	opMatVec   = "MatVec"
	opRowSums  = "RowSums"
	opScaleSym = "ScaleSym"
	opAllClose = "AllClose"
)

// matrixErrorf tags an error with the operation name.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// MatVec returns y = m·x.
// Errors: ErrNilMatrix, ErrDimensionMismatch (len(x) != Cols()).
// Complexity: O(r*c).
func MatVec(m Matrix, x []float64) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	if err := ValidateVecLen(x, m.Cols()); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	d, err := AsDense(m)
	if err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}

	r, c := d.r, d.c
	y := make([]float64, r)
	var (
		i, j int
		row  []float64
		sum  float64
	)
	for i = 0; i < r; i++ {
		row = d.data[i*c : (i+1)*c]
		sum = 0
		for j = 0; j < c; j++ {
			sum += row[j] * x[j]
		}
		y[i] = sum
	}

	return y, nil
}

// RowSums returns r where r[i] = Σ_j m[i,j].
// Used by the sparse-row policy and by balance diagnostics.
// Complexity: O(r*c).
func RowSums(m Matrix) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opRowSums, err)
	}
	ones := make([]float64, m.Cols())
	for j := range ones {
		ones[j] = 1
	}
	s, err := MatVec(m, ones)
	if err != nil {
		return nil, matrixErrorf(opRowSums, err)
	}

	return s, nil
}

// ScaleSym returns a new square matrix out[i,j] = b[i] * m[i,j] * b[j],
// evaluated as (b[i]*b[j])*m[i,j].
// MAIN DESCRIPTION:
//   - Applies a bias vector to rows and columns simultaneously; this is the
//     "corrected matrix" of balancing. A zero bias entry yields a zero row and
//     column, which is how excluded bins stay excluded.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrDimensionMismatch (len(b) != n).
//
// Complexity:
//   - Time O(n²), Space O(n²).
func ScaleSym(m Matrix, b []float64) (*Dense, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(opScaleSym, err)
	}
	n := m.Rows()
	if err := ValidateVecLen(b, n); err != nil {
		return nil, matrixErrorf(opScaleSym, err)
	}
	d, err := AsDense(m)
	if err != nil {
		return nil, matrixErrorf(opScaleSym, err)
	}

	out, _ := newDenseZeroOK(n, n) // n >= 0 by construction
	var i, j, base int
	for i = 0; i < n; i++ {
		base = i * n
		for j = 0; j < n; j++ {
			out.data[base+j] = b[i] * b[j] * d.data[base+j] // A = Aᵀ ⇒ out = outᵀ bitwise
		}
	}

	return out, nil
}

// AllClose checks element-wise |a-b| ≤ atol + rtol*|b| for identical shapes.
// NaN never compares equal. Returns (false, nil) on the first violating cell.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: O(r*c).
func AllClose(a, b Matrix, rtol, atol float64) (bool, error) {
	if a == nil || b == nil {
		return false, matrixErrorf(opAllClose, ErrNilMatrix)
	}
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false, matrixErrorf(opAllClose, ErrDimensionMismatch)
	}
	rtol, atol = math.Abs(rtol), math.Abs(atol)

	var (
		i, j   int
		av, bv float64
		err    error
	)
	for i = 0; i < a.Rows(); i++ {
		for j = 0; j < a.Cols(); j++ {
			if av, err = a.At(i, j); err != nil {
				return false, matrixErrorf(opAllClose, err)
			}
			if bv, err = b.At(i, j); err != nil {
				return false, matrixErrorf(opAllClose, err)
			}
			if math.IsNaN(av) || math.IsNaN(bv) {
				return false, nil
			}
			if math.Abs(av-bv) > atol+rtol*math.Abs(bv) {
				return false, nil
			}
		}
	}

	return true, nil
}
