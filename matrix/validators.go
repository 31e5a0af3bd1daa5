// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//  - Provide a single, canonical source of truth for contact-matrix checks.
//  - Keep kernels minimal by delegating shape/nil/symmetry checks here.
//  - Return sentinel errors tagged with the validator name so call sites can
//    wrap uniformly and still match with errors.Is.
//
// Determinism & Performance:
//  - All checks are pure, deterministic and allocate nothing.
//  - Symmetry check runs O(n²) on the upper triangle only.
//
// Note:
//  - Composite validators follow a fixed sequence
//    (NotNil → Square → Finite → NonNegative → Symmetric).

package matrix

import (
	"fmt"
	"math"
)

// validatorErrorf wraps an underlying error with the given validator tag.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateNotNil ensures the matrix reference is non-nil.
// Returns ErrNilMatrix if m == nil. Complexity: O(1).
func ValidateNotNil(m Matrix) error {
	if m == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}

	return nil
}

// ValidateSquare ensures m is non-nil and Rows()==Cols().
// Returns ErrNilMatrix or ErrNonSquare. Complexity: O(1).
func ValidateSquare(m Matrix) error {
	if m == nil {
		return validatorErrorf("ValidateSquare", ErrNilMatrix)
	}
	if m.Rows() != m.Cols() {
		return validatorErrorf("ValidateSquare", ErrNonSquare)
	}

	return nil
}

// ValidateVecLen ensures len(x) == n.
// Returns ErrDimensionMismatch otherwise. Complexity: O(1).
func ValidateVecLen(x []float64, n int) error {
	if len(x) != n {
		return validatorErrorf("ValidateVecLen", ErrDimensionMismatch)
	}

	return nil
}

// ValidateFinite scans every entry and rejects NaN/±Inf with ErrNaNInf.
// Assumes m is non-nil. Complexity: O(r*c).
func ValidateFinite(m Matrix) error {
	return scan(m, func(i, j int, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return validatorErrorf("ValidateFinite", fmt.Errorf("(%d,%d): %w", i, j, ErrNaNInf))
		}
		return nil
	})
}

// ValidateNonNegative rejects any entry < 0 with ErrNegative.
// Assumes m is non-nil. Complexity: O(r*c).
func ValidateNonNegative(m Matrix) error {
	return scan(m, func(i, j int, v float64) error {
		if v < 0 {
			return validatorErrorf("ValidateNonNegative", fmt.Errorf("(%d,%d)=%g: %w", i, j, v, ErrNegative))
		}
		return nil
	})
}

// ValidateSymmetric checks |A[i,j] - A[j,i]| ≤ tol for all i<j.
// MAIN DESCRIPTION:
//   - Symmetry is a hard precondition of Knight–Ruiz balancing and of the
//     mirrored row/column removal in sparse-row recovery.
//
// Implementation:
//   - Stage 1: nil and square checks.
//   - Stage 2: normalize tol (NaN/Inf rejected, negative flipped).
//   - Stage 3: scan strict upper triangle, fail on the first violation.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrNaNInf (bad tol), ErrAsymmetry.
//
// Complexity:
//   - Time O(n²), Space O(1).
func ValidateSymmetric(m Matrix, tol float64) error {
	if m == nil {
		return validatorErrorf("ValidateSymmetric", ErrNilMatrix)
	}
	if m.Rows() != m.Cols() {
		return validatorErrorf("ValidateSymmetric", ErrNonSquare)
	}
	if math.IsNaN(tol) || math.IsInf(tol, 0) {
		return validatorErrorf("ValidateSymmetric", ErrNaNInf)
	}
	if tol < 0 {
		tol = -tol
	}

	n := m.Rows()
	if d, ok := m.(*Dense); ok {
		// Fast path: direct offsets on the flat buffer.
		var i, j int
		for i = 0; i < n; i++ {
			for j = i + 1; j < n; j++ {
				if math.Abs(d.data[i*n+j]-d.data[j*n+i]) > tol {
					return validatorErrorf("ValidateSymmetric", fmt.Errorf("(%d,%d): %w", i, j, ErrAsymmetry))
				}
			}
		}

		return nil
	}

	var (
		i, j     int
		aij, aji float64
	)
	for i = 0; i < n; i++ {
		for j = i + 1; j < n; j++ {
			aij, _ = m.At(i, j) // errors are not expected after shape validation
			aji, _ = m.At(j, i)
			if math.Abs(aij-aji) > tol {
				return validatorErrorf("ValidateSymmetric", fmt.Errorf("(%d,%d): %w", i, j, ErrAsymmetry))
			}
		}
	}

	return nil
}

// ValidateContactMatrix runs the full contact-matrix contract in priority order:
// non-nil, square, finite, non-negative, symmetric within tol.
// Complexity: O(n²).
func ValidateContactMatrix(m Matrix, tol float64) error {
	if err := ValidateSquare(m); err != nil {
		return err
	}
	if err := ValidateFinite(m); err != nil {
		return err
	}
	if err := ValidateNonNegative(m); err != nil {
		return err
	}

	return ValidateSymmetric(m, tol)
}

// IsSymmetric reports whether m is square and symmetric within tol.
// Thin boolean facade over ValidateSymmetric.
func IsSymmetric(m Matrix, tol float64) bool {
	return ValidateSymmetric(m, tol) == nil
}

// scan visits every cell in row-major order and stops on the first error.
// Uses the flat buffer when m is *Dense.
func scan(m Matrix, f func(i, j int, v float64) error) error {
	r, c := m.Rows(), m.Cols()
	var (
		i, j int
		v    float64
		err  error
	)
	if d, ok := m.(*Dense); ok {
		for i = 0; i < r; i++ {
			for j = 0; j < c; j++ {
				if err = f(i, j, d.data[i*c+j]); err != nil {
					return err
				}
			}
		}

		return nil
	}
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			if v, err = m.At(i, j); err != nil {
				return err
			}
			if err = f(i, j, v); err != nil {
				return err
			}
		}
	}

	return nil
}
