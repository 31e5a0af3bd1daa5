// SPDX-License-Identifier: MIT
// Package bias - solver options.
//
// Options follow the functional-setter pattern: every public entry accepts
// ...Option, gatherOptions applies them over defaultOptions() in order
// (last writer wins) and validate() rejects nonsensical combinations with
// ErrBadOption instead of panicking.

package bias

import (
	"fmt"
	"math"
	"strings"
)

// Precision selects the accumulation arithmetic of dot products and
// matrix-vector products. It is orthogonal to every convergence option.
type Precision int

const (
	// Double accumulates in plain float64 (gonum BLAS kernels).
	Double Precision = iota
	// Extended accumulates with Neumaier-compensated sums, roughly doubling the
	// effective mantissa of every reduction. Slower; delays zero-pivot failures
	// on badly scaled inputs.
	Extended
)

// String returns the config spelling ("double" / "extended").
func (p Precision) String() string {
	switch p {
	case Double:
		return "double"
	case Extended:
		return "extended"
	default:
		return fmt.Sprintf("Precision(%d)", int(p))
	}
}

// ParsePrecision is the inverse of Precision.String (case-insensitive).
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "double", "float64":
		return Double, nil
	case "extended", "compensated":
		return Extended, nil
	default:
		return Double, optionErrorf("unknown precision %q", s)
	}
}

// Documented defaults (single source of truth).
const (
	DefaultTolerance         = 1e-6
	DefaultDelta             = 0.1
	DefaultUpperDelta        = 3.0
	DefaultMaxIterations     = 10000
	DefaultPivotEpsilon      = 1e-15
	DefaultSymmetryTolerance = 1e-8
	DefaultPrecision         = Double
)

// Eisenstat–Walker forcing-term constants.
const (
	forcingGamma = 0.9 // g
	etaMax       = 0.1
)

// Options is the resolved solver configuration.
type Options struct {
	tol        float64
	delta      float64
	upperDelta float64
	initial    []float64
	precision  Precision
	maxIter    int
	pivotEps   float64
	symTol     float64
	observer   Observer
}

// Option is a functional setter for Options.
type Option func(*Options)

// WithTolerance sets the convergence tolerance: iteration stops once
// ‖1 − x⊙(A·x)‖ ≤ tol.
func WithTolerance(tol float64) Option {
	return func(o *Options) { o.tol = tol }
}

// WithBounds sets the trust region [delta, Delta] for inner-step coordinates.
// delta == 0 disables the lower truncation.
func WithBounds(delta, upper float64) Option {
	return func(o *Options) {
		o.delta = delta
		o.upperDelta = upper
	}
}

// WithInitial seeds the iteration with x0 (copied). Entries must be positive.
func WithInitial(x0 []float64) Option {
	return func(o *Options) {
		o.initial = append([]float64(nil), x0...)
	}
}

// WithPrecision selects Double or Extended accumulation.
func WithPrecision(p Precision) Option {
	return func(o *Options) { o.precision = p }
}

// WithMaxIterations caps outer iterations; 0 means unbounded (the caller's
// context is then the only limit).
func WithMaxIterations(n int) Option {
	return func(o *Options) { o.maxIter = n }
}

// WithPivotEpsilon sets the magnitude below which a divisor counts as zero.
func WithPivotEpsilon(eps float64) Option {
	return func(o *Options) { o.pivotEps = eps }
}

// WithSymmetryTolerance sets the absolute tolerance of the input symmetry check.
func WithSymmetryTolerance(tol float64) Option {
	return func(o *Options) { o.symTol = tol }
}

// WithObserver installs a progress observer (nil disables reporting).
func WithObserver(obs Observer) Option {
	return func(o *Options) { o.observer = obs }
}

func defaultOptions() Options {
	return Options{
		tol:        DefaultTolerance,
		delta:      DefaultDelta,
		upperDelta: DefaultUpperDelta,
		precision:  DefaultPrecision,
		maxIter:    DefaultMaxIterations,
		pivotEps:   DefaultPivotEpsilon,
		symTol:     DefaultSymmetryTolerance,
	}
}

// gatherOptions applies setters on top of defaults and validates the result.
func gatherOptions(user ...Option) (Options, error) {
	o := defaultOptions()
	for _, set := range user {
		if set != nil {
			set(&o) // apply in order; last-writer-wins semantics
		}
	}

	return o, o.validate()
}

func (o Options) validate() error {
	switch {
	case !finitePositive(o.tol):
		return optionErrorf("tolerance %g must be finite and > 0", o.tol)
	case math.IsNaN(o.delta) || o.delta < 0 || o.delta >= 1:
		return optionErrorf("delta %g must lie in [0, 1)", o.delta)
	case !finitePositive(o.upperDelta) || o.upperDelta <= 1:
		return optionErrorf("Delta %g must be finite and > 1", o.upperDelta)
	case o.precision != Double && o.precision != Extended:
		return optionErrorf("unknown precision %d", int(o.precision))
	case o.maxIter < 0:
		return optionErrorf("max iterations %d must be >= 0", o.maxIter)
	case math.IsNaN(o.pivotEps) || math.IsInf(o.pivotEps, 0) || o.pivotEps < 0:
		return optionErrorf("pivot epsilon %g must be finite and >= 0", o.pivotEps)
	case math.IsNaN(o.symTol) || math.IsInf(o.symTol, 0) || o.symTol < 0:
		return optionErrorf("symmetry tolerance %g must be finite and >= 0", o.symTol)
	}
	for i, v := range o.initial {
		if !finitePositive(v) {
			return optionErrorf("initial[%d]=%g must be finite and > 0", i, v)
		}
	}

	return nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
