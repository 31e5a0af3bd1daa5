// SPDX-License-Identifier: MIT

package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Gonum returns a *mat.Dense sharing m's backing buffer (no copy).
// Writes through either value are visible in both. Zero-area matrices
// cannot be represented by gonum and return nil.
func (m *Dense) Gonum() *mat.Dense {
	if m.r == 0 || m.c == 0 {
		return nil
	}

	return mat.NewDense(m.r, m.c, m.data)
}

// FromGonum copies any gonum matrix (mat.Dense, mat.SymDense, ...) into a Dense.
// Rejects NaN/±Inf with ErrNaNInf.
// Complexity: O(r*c).
func FromGonum(g mat.Matrix) (*Dense, error) {
	if g == nil {
		return nil, fmt.Errorf("FromGonum: %w", ErrNilMatrix)
	}
	r, c := g.Dims()
	d, err := NewDense(r, c)
	if err != nil {
		return nil, fmt.Errorf("FromGonum: %w", err)
	}
	var (
		i, j int
		v    float64
	)
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			v = g.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, denseErrorf("FromGonum", i, j, ErrNaNInf)
			}
			d.data[i*c+j] = v
		}
	}

	return d, nil
}
