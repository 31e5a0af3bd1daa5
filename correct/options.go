// SPDX-License-Identifier: MIT

package correct

import (
	"fmt"
	"runtime"

	"github.com/katalvlaran/hicbalance/bias"
	"github.com/katalvlaran/hicbalance/guard"
)

// Options is the resolved orchestrator configuration.
type Options struct {
	solverOpts []bias.Option
	guardOpts  []guard.Option
	solver     guard.Solver // nil: bias.NewSolver(solverOpts...)
	workers    int
	sink       Sink
	symTol     float64
	initial    []float64
	observers  func(unit string) Observer
}

// Observer receives solver iterations and sparse-row retries of one unit.
// progress.Logrus and progress.Recorder implement it.
type Observer interface {
	bias.Observer
	guard.RetryObserver
}

// Option is a functional setter for Options.
type Option func(*Options)

// WithTolerance forwards bias.WithTolerance.
func WithTolerance(tol float64) Option {
	return WithSolverOptions(bias.WithTolerance(tol))
}

// WithBounds forwards bias.WithBounds(delta, upper).
func WithBounds(delta, upper float64) Option {
	return WithSolverOptions(bias.WithBounds(delta, upper))
}

// WithMaxRetries forwards guard.WithMaxRetries.
func WithMaxRetries(n int) Option {
	return WithGuardOptions(guard.WithMaxRetries(n))
}

// WithInitial seeds the solver with a genome-wide starting vector (length n).
// Each unit is seeded with its own slice; use this instead of bias.WithInitial,
// whose fixed length cannot follow row removal or chromosome blocks.
func WithInitial(x0 []float64) Option {
	return func(o *Options) { o.initial = append([]float64(nil), x0...) }
}

// WithObservers installs one observer per balanced unit. newObserver is called
// with the unit name (GlobalName or a chromosome) before the unit is solved.
// Units run concurrently, so the returned observers must not share unguarded state.
// The iteration hook is only wired into the default KR solver.
func WithObservers(newObserver func(unit string) Observer) Option {
	return func(o *Options) { o.observers = newObserver }
}

// WithSolverOptions appends options for the default KR solver.
func WithSolverOptions(opts ...bias.Option) Option {
	return func(o *Options) { o.solverOpts = append(o.solverOpts, opts...) }
}

// WithGuardOptions appends sparse-row recovery options.
func WithGuardOptions(opts ...guard.Option) Option {
	return func(o *Options) { o.guardOpts = append(o.guardOpts, opts...) }
}

// WithSolver replaces the default KR solver. Solver options are then ignored.
func WithSolver(s guard.Solver) Option {
	return func(o *Options) { o.solver = s }
}

// WithWorkers bounds concurrent per-chromosome solves (>= 1).
func WithWorkers(n int) Option {
	return func(o *Options) { o.workers = n }
}

// WithSink persists every (bias, corrected) unit after a successful run.
func WithSink(s Sink) Option {
	return func(o *Options) { o.sink = s }
}

// WithSymmetryTolerance sets the absolute tolerance of the input symmetry check.
func WithSymmetryTolerance(tol float64) Option {
	return func(o *Options) {
		o.symTol = tol
		o.solverOpts = append(o.solverOpts, bias.WithSymmetryTolerance(tol))
	}
}

func gatherOptions(user ...Option) (Options, error) {
	o := Options{
		workers: runtime.NumCPU(),
		symTol:  bias.DefaultSymmetryTolerance,
	}
	for _, set := range user {
		if set != nil {
			set(&o)
		}
	}
	if o.workers < 1 {
		return o, fmt.Errorf("%w: workers %d must be >= 1", ErrBadOption, o.workers)
	}
	if o.symTol < 0 {
		return o, fmt.Errorf("%w: symmetry tolerance %g must be >= 0", ErrBadOption, o.symTol)
	}

	return o, nil
}

func (o Options) resolveSolver() guard.Solver {
	if o.solver != nil {
		return o.solver
	}
	return bias.NewSolver(o.solverOpts...)
}

// unit returns the solver and guard options of one unit. seed is the unit's
// slice of the starting vector (nil for none).
func (o Options) unit(name string, seed []float64) (guard.Solver, []guard.Option) {
	solver := o.resolveSolver()
	gopts := append([]guard.Option(nil), o.guardOpts...)
	if seed != nil {
		gopts = append(gopts, guard.WithInitial(seed))
	}
	if o.observers == nil {
		return solver, gopts
	}
	obs := o.observers(name)
	if obs == nil {
		return solver, gopts
	}
	gopts = append(gopts, guard.WithRetryObserver(obs))
	if o.solver == nil {
		solver = bias.NewSolver(append(append([]bias.Option(nil), o.solverOpts...), bias.WithObserver(obs))...)
	}
	return solver, gopts
}
