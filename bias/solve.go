// SPDX-License-Identifier: MIT

package bias

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/hicbalance/matrix"
)

// Stats summarizes one Solve run.
type Stats struct {
	Outer    int     // outer (Newton) iterations completed
	MatVecs  int     // matrix-vector products, inner steps + one per outer update
	Residual float64 // final ‖1 − x⊙(A·x)‖
}

// Solve returns the balancing vector x of a. See SolveWithStats.
func Solve(ctx context.Context, a matrix.Matrix, opts ...Option) ([]float64, error) {
	x, _, err := SolveWithStats(ctx, a, opts...)
	return x, err
}

// SolveWithStats computes x > 0 with ‖1 − x⊙(A·x)‖ ≤ tol.
//
// Contract:
//   - a must be square, finite, non-negative and symmetric within the
//     symmetry tolerance; otherwise a wrapped matrix sentinel is returned and
//     no iteration runs.
//   - ctx is checked at every outer-iteration boundary.
//
// Errors:
//   - *DegenerateInputError (ErrDegenerateInput): divisor ≤ pivot epsilon,
//     non-finite CG coefficient, or x underflow/overflow.
//   - *NotConvergedError (ErrNotConverged): outer cap reached.
//   - ErrBadOption, matrix.Err*, ctx.Err().
//
// Complexity: O(n²) per matrix-vector product, O(n) extra memory.
func SolveWithStats(ctx context.Context, a matrix.Matrix, opts ...Option) ([]float64, Stats, error) {
	o, err := gatherOptions(opts...)
	if err != nil {
		return nil, Stats{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err = matrix.ValidateContactMatrix(a, o.symTol); err != nil {
		return nil, Stats{}, fmt.Errorf("bias: %w", err)
	}
	d, err := matrix.AsDense(a)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("bias: %w", err)
	}
	n := d.Rows()
	if n == 0 {
		return nil, Stats{}, &DegenerateInputError{Index: -1, Reason: "empty matrix"}
	}
	if o.initial != nil && len(o.initial) != n {
		return nil, Stats{}, optionErrorf("initial vector has length %d, matrix order is %d: %v",
			len(o.initial), n, matrix.ErrDimensionMismatch)
	}

	s := &state{
		opts: o,
		k:    newKernel(o.precision, d),
		n:    n,
	}
	s.alloc(o.initial)

	return s.run(ctx)
}

// Solver binds a fixed option set; it satisfies guard.SeededSolver.
type Solver struct {
	opts []Option
}

// NewSolver returns a Solver that applies opts on every call.
func NewSolver(opts ...Option) *Solver {
	return &Solver{opts: append([]Option(nil), opts...)}
}

// Solve implements guard.Solver.
func (s *Solver) Solve(ctx context.Context, a matrix.Matrix) ([]float64, error) {
	return Solve(ctx, a, s.opts...)
}

// SolveFrom is Solve seeded with x0; x0 overrides any WithInitial bound to s.
func (s *Solver) SolveFrom(ctx context.Context, a matrix.Matrix, x0 []float64) ([]float64, error) {
	opts := append(append([]Option(nil), s.opts...), WithInitial(x0))
	return Solve(ctx, a, opts...)
}

// state carries the working vectors of one run; all have length n.
type state struct {
	opts Options
	k    kernel
	n    int

	x, v, rk   []float64 // iterate, x⊙(A·x), 1 − v
	y, ynew    []float64 // inner step and trial step
	z, p, w    []float64 // CG preconditioned residual, direction, operator image
	ap, xp, av []float64 // alpha·p, x⊙p, scratch for A·(...)

	outer, inner int
	rout         float64
}

func (s *state) alloc(x0 []float64) {
	n := s.n
	vec := func() []float64 { return make([]float64, n) }
	s.x, s.v, s.rk = vec(), vec(), vec()
	s.y, s.ynew = vec(), vec()
	s.z, s.p, s.w = vec(), vec(), vec()
	s.ap, s.xp, s.av = vec(), vec(), vec()
	if x0 != nil {
		copy(s.x, x0)
	} else {
		fill(s.x, 1)
	}
}

// run is the Knight–Ruiz outer/inner iteration.
func (s *state) run(ctx context.Context) ([]float64, Stats, error) {
	var (
		o        = s.opts
		rt       = o.tol * o.tol
		stopTol  = o.tol * 0.5
		eta      = etaMax
		st       Stats
		err      error
		rhoKm1   float64
		rhoKm2   float64
		rold     float64
		innerTol float64
	)

	// Stage 1: initial residual. The input is finite, so a non-finite
	// residual here means the products overflowed.
	if err = s.refresh(); err != nil {
		return nil, st, fmt.Errorf("%w: initial residual is not finite; rescale the input", ErrOverflow)
	}
	rhoKm1 = s.rout
	rhoKm2 = rhoKm1
	rold = s.rout

	// Stage 2: outer Newton loop.
	for s.rout > rt {
		if err = ctx.Err(); err != nil {
			return nil, s.stats(st), err
		}
		if o.maxIter > 0 && s.outer >= o.maxIter {
			return nil, s.stats(st), &NotConvergedError{Iterations: s.outer, Residual: math.Sqrt(s.rout)}
		}
		s.outer++
		s.inner = 0
		fill(s.y, 1)
		innerTol = math.Max(eta*eta*s.rout, rt)

		// Stage 3: inner CG loop for the Newton step y.
		for rhoKm1 > innerTol {
			s.inner++
			if s.inner == 1 {
				if err = s.precondition(); err != nil {
					return nil, s.stats(st), err
				}
				copy(s.p, s.z)
				rhoKm1 = s.k.dot(s.rk, s.z)
			} else {
				beta := rhoKm1 / rhoKm2
				for i := range s.p {
					s.p[i] = s.z[i] + beta*s.p[i]
				}
			}

			// w = x ⊙ (A·(x ⊙ p)) + v ⊙ p
			floats.MulTo(s.xp, s.x, s.p)
			s.k.matVec(s.av, s.xp)
			for i := range s.w {
				s.w[i] = s.x[i]*s.av[i] + s.v[i]*s.p[i]
			}
			denom := s.k.dot(s.p, s.w)
			if denom == 0 || math.IsNaN(denom) {
				return nil, s.stats(st), s.degenerate(-1, "vanishing CG curvature p·w")
			}
			alpha := rhoKm1 / denom
			if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
				return nil, s.stats(st), s.degenerate(-1, "non-finite CG step")
			}
			floats.ScaleTo(s.ap, alpha, s.p)
			floats.AddTo(s.ynew, s.y, s.ap)

			// Trust region: truncate at the first coordinate leaving [delta, Delta].
			if floats.Min(s.ynew) <= o.delta {
				if o.delta == 0 {
					break
				}
				s.truncateLower()
				break
			}
			if floats.Max(s.ynew) >= o.upperDelta {
				s.truncateUpper()
				break
			}

			s.y, s.ynew = s.ynew, s.y
			floats.AddScaled(s.rk, -alpha, s.w)
			rhoKm2 = rhoKm1
			if err = s.precondition(); err != nil {
				return nil, s.stats(st), err
			}
			rhoKm1 = s.k.dot(s.rk, s.z)
			if math.IsNaN(rhoKm1) || math.IsInf(rhoKm1, 0) {
				return nil, s.stats(st), s.degenerate(-1, "non-finite inner residual")
			}
		}

		// Stage 4: x ← x ⊙ y and a fresh residual.
		floats.Mul(s.x, s.y)
		for i, xi := range s.x {
			if !(xi > o.pivotEps) || math.IsInf(xi, 0) {
				return nil, s.stats(st), s.degenerate(i, "bias value too small or too large to represent")
			}
		}
		if err = s.refresh(); err != nil {
			return nil, s.stats(st), err
		}
		rhoKm1 = s.rout
		st.MatVecs += s.inner + 1

		// Stage 5: forcing term update.
		rat := s.rout / rold
		rold = s.rout
		resNorm := math.Sqrt(s.rout)
		etaO := eta
		eta = forcingGamma * rat
		if forcingGamma*etaO*etaO > 0.1 {
			eta = math.Max(eta, forcingGamma*etaO*etaO)
		}
		eta = math.Max(math.Min(eta, etaMax), stopTol/resNorm)

		if o.observer != nil {
			o.observer.OnIteration(s.outer, s.inner, resNorm)
		}
	}

	return s.x, s.stats(st), nil
}

// refresh recomputes v = x ⊙ (A·x), rk = 1 − v and rout = rk·rk.
func (s *state) refresh() error {
	s.k.matVec(s.av, s.x)
	floats.MulTo(s.v, s.x, s.av)
	for i, vi := range s.v {
		s.rk[i] = 1 - vi
	}
	s.rout = s.k.dot(s.rk, s.rk)
	if math.IsNaN(s.rout) || math.IsInf(s.rout, 0) {
		return s.degenerate(-1, "non-finite residual")
	}

	return nil
}

// precondition computes z = rk / v after checking every divisor.
func (s *state) precondition() error {
	for i, vi := range s.v {
		if !(vi > s.opts.pivotEps) {
			return s.degenerate(i, "zero or near-zero row/column")
		}
		s.z[i] = s.rk[i] / vi
	}

	return nil
}

// truncateLower moves y along ap to the first coordinate reaching delta.
// Only decreasing coordinates (ap < 0) can hit the lower bound.
func (s *state) truncateLower() {
	gamma, found := math.Inf(1), false
	for i, api := range s.ap {
		if api < 0 {
			if g := (s.opts.delta - s.y[i]) / api; g < gamma {
				gamma, found = g, true
			}
		}
	}
	if found {
		floats.AddScaled(s.y, gamma, s.ap)
	}
}

// truncateUpper moves y along ap to the first coordinate reaching Delta.
func (s *state) truncateUpper() {
	gamma, found := math.Inf(1), false
	for i, yi := range s.ynew {
		if yi >= s.opts.upperDelta && s.ap[i] > 0 {
			if g := (s.opts.upperDelta - s.y[i]) / s.ap[i]; g < gamma {
				gamma, found = g, true
			}
		}
	}
	if found {
		floats.AddScaled(s.y, gamma, s.ap)
	}
}

func (s *state) degenerate(index int, reason string) error {
	return &DegenerateInputError{
		Outer:    s.outer,
		Inner:    s.inner,
		Index:    index,
		Residual: math.Sqrt(s.rout),
		Reason:   reason,
	}
}

func (s *state) stats(st Stats) Stats {
	st.Outer = s.outer
	st.Residual = math.Sqrt(s.rout)
	return st
}

func fill(x []float64, v float64) {
	for i := range x {
		x[i] = v
	}
}
