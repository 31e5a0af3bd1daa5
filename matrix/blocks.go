// SPDX-License-Identifier: MIT

// Package matrix - sub-block copy and write-back.
//
// Per-chromosome balancing extracts the diagonal block [begin,end)×[begin,end)
// of the genome-wide matrix, balances it, and writes it back at the same
// offsets. Blocks of distinct chromosomes never overlap, so concurrent
// SetBlock calls on disjoint ranges of the same *Dense are race-free.

package matrix

import "fmt"

const (
	ctxBlock    = "Block"
	ctxSetBlock = "SetBlock"
)

// Block copies m[r0:r1, c0:c1] (half-open) into a new Dense.
// Errors: ErrNilMatrix; ErrOutOfRange when the window leaves the matrix or is inverted.
// Complexity: O((r1-r0)*(c1-c0)).
func Block(m Matrix, r0, r1, c0, c1 int) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(ctxBlock, err)
	}
	if r0 < 0 || c0 < 0 || r1 < r0 || c1 < c0 || r1 > m.Rows() || c1 > m.Cols() {
		return nil, fmt.Errorf("%s[%d:%d,%d:%d]: %w", ctxBlock, r0, r1, c0, c1, ErrOutOfRange)
	}
	d, err := AsDense(m)
	if err != nil {
		return nil, matrixErrorf(ctxBlock, err)
	}

	h, w := r1-r0, c1-c0
	out, _ := newDenseZeroOK(h, w)
	var i int
	for i = 0; i < h; i++ {
		copy(out.data[i*w:(i+1)*w], d.data[(r0+i)*d.c+c0:(r0+i)*d.c+c1])
	}

	return out, nil
}

// SetBlock writes src into dst with its top-left corner at (r0, c0).
// Errors: ErrNilMatrix; ErrOutOfRange when src does not fit.
// Complexity: O(src.Rows()*src.Cols()).
func SetBlock(dst *Dense, r0, c0 int, src Matrix) error {
	if dst == nil || src == nil {
		return matrixErrorf(ctxSetBlock, ErrNilMatrix)
	}
	h, w := src.Rows(), src.Cols()
	if r0 < 0 || c0 < 0 || r0+h > dst.r || c0+w > dst.c {
		return fmt.Errorf("%s(%d,%d) %dx%d into %dx%d: %w", ctxSetBlock, r0, c0, h, w, dst.r, dst.c, ErrOutOfRange)
	}
	s, err := AsDense(src)
	if err != nil {
		return matrixErrorf(ctxSetBlock, err)
	}

	var i int
	for i = 0; i < h; i++ {
		copy(dst.data[(r0+i)*dst.c+c0:(r0+i)*dst.c+c0+w], s.data[i*w:(i+1)*w])
	}

	return nil
}
