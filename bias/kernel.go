// SPDX-License-Identifier: MIT

package bias

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hicbalance/matrix"
)

// kernel hides the accumulation arithmetic. Elementwise updates are exact up
// to one rounding and stay in float64 for both precisions; only reductions
// (dot products and matrix rows) differ.
type kernel interface {
	// matVec writes dst = A·x.
	matVec(dst, x []float64)
	// dot returns a·b.
	dot(a, b []float64) float64
}

func newKernel(p Precision, a *matrix.Dense) kernel {
	if p == Extended {
		return &compensatedKernel{n: a.Rows(), data: a.Raw()}
	}

	return &doubleKernel{a: a.Gonum()}
}

// doubleKernel delegates to gonum BLAS over a zero-copy view of A.
type doubleKernel struct {
	a *mat.Dense
}

func (k *doubleKernel) matVec(dst, x []float64) {
	y := mat.NewVecDense(len(dst), dst)
	y.MulVec(k.a, mat.NewVecDense(len(x), x))
}

func (k *doubleKernel) dot(a, b []float64) float64 { return floats.Dot(a, b) }

// compensatedKernel accumulates with Neumaier's improved Kahan summation.
type compensatedKernel struct {
	n    int
	data []float64 // row-major n×n
}

func (k *compensatedKernel) matVec(dst, x []float64) {
	var i int
	for i = 0; i < k.n; i++ {
		dst[i] = compensatedDot(k.data[i*k.n:(i+1)*k.n], x)
	}
}

func (k *compensatedKernel) dot(a, b []float64) float64 { return compensatedDot(a, b) }

// compensatedDot returns Σ a[i]*b[i] with a running error term c so the
// result is as accurate as a sum carried in twice the working precision.
func compensatedDot(a, b []float64) float64 {
	var sum, c, t, v float64
	for i := range a {
		v = a[i] * b[i]
		t = sum + v
		if abs(sum) >= abs(v) {
			c += (sum - t) + v // low bits of v were lost
		} else {
			c += (v - t) + sum // low bits of sum were lost
		}
		sum = t
	}

	return sum + c
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
