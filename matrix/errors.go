// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set.
// This file defines ONLY package-level sentinel errors used across the matrix
// package. All functions return these sentinels (optionally wrapped with a
// call-site tag via %w) and tests check them via errors.Is.

package matrix

import "errors"

// Every message is prefixed with "matrix: ..." so it can be grepped in logs.
//
// ERROR PRIORITY (validators check in this order):
// nil -> shape -> NaN/Inf -> negative -> asymmetry.

var (
	// ErrNilMatrix indicates that a nil Matrix (receiver or argument) was used.
	ErrNilMatrix = errors.New("matrix: nil matrix")

	// ErrInvalidDimensions indicates that requested matrix dimensions are non-positive.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be > 0")

	// ErrOutOfRange indicates that an index (row or column) is outside valid bounds.
	// At/Set return this instead of panicking.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch indicates incompatible dimensions between operands,
	// e.g. a bias vector whose length differs from the matrix order.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNonSquare signals that a square matrix was required but the input wasn't.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrAsymmetry signals that a matrix expected to be symmetric violated symmetry
	// within the configured epsilon.
	ErrAsymmetry = errors.New("matrix: matrix is not symmetric within eps")

	// ErrNaNInf signals a NaN or ±Inf value where finite values are required.
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")

	// ErrNegative signals a negative entry in a matrix that must be non-negative
	// (contact counts never go below zero).
	ErrNegative = errors.New("matrix: negative entry")

	// ErrBadIndexSet signals an index set that is unsorted, duplicated or out of
	// range for row/column removal or insertion.
	ErrBadIndexSet = errors.New("matrix: invalid index set")
)
