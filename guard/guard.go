// SPDX-License-Identifier: MIT

package guard

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/hicbalance/bias"
	"github.com/katalvlaran/hicbalance/matrix"
)

// DefaultMaxRetries bounds the number of sparse-row removals.
const DefaultMaxRetries = 50

// Solver computes a bias vector for a (reduced) contact matrix.
// *bias.Solver is the production implementation.
type Solver interface {
	Solve(ctx context.Context, a matrix.Matrix) ([]float64, error)
}

// SolverFunc adapts a function to Solver.
type SolverFunc func(ctx context.Context, a matrix.Matrix) ([]float64, error)

// Solve calls f(ctx, a).
func (f SolverFunc) Solve(ctx context.Context, a matrix.Matrix) ([]float64, error) { return f(ctx, a) }

// SeededSolver is a Solver that accepts a starting vector. When a seed is
// configured with WithInitial, BalanceWithRecovery shrinks it alongside the
// working matrix and calls SolveFrom instead of Solve.
type SeededSolver interface {
	Solver
	SolveFrom(ctx context.Context, a matrix.Matrix, x0 []float64) ([]float64, error)
}

// RetryObserver is notified after each removal.
//   - attempt:   1-based retry number.
//   - removed:   the stripped rows as original indices.
//   - remaining: order of the working matrix after the removal.
type RetryObserver interface {
	OnRetry(attempt int, removed []int, remaining int)
}

// Options configures BalanceWithRecovery.
type Options struct {
	maxRetries int
	policy     Policy
	cutoff     float64
	observer   RetryObserver
	initial    []float64
}

// Option is a functional setter for Options.
type Option func(*Options)

// WithMaxRetries sets the removal budget (>= 0).
func WithMaxRetries(n int) Option { return func(o *Options) { o.maxRetries = n } }

// WithPolicy selects the sparse-row ranking.
func WithPolicy(p Policy) Option { return func(o *Options) { o.policy = p } }

// WithCutoff removes every row whose score is <= c instead of only the minimum.
func WithCutoff(c float64) Option { return func(o *Options) { o.cutoff = c } }

// WithRetryObserver installs a retry hook (nil disables it).
func WithRetryObserver(obs RetryObserver) Option { return func(o *Options) { o.observer = obs } }

// WithInitial seeds the solver with x0 (length n, copied). Removed rows are
// dropped from the seed on every retry. Ignored unless the solver is a SeededSolver.
func WithInitial(x0 []float64) Option {
	return func(o *Options) { o.initial = append([]float64(nil), x0...) }
}

func gatherOptions(user ...Option) (Options, error) {
	o := Options{maxRetries: DefaultMaxRetries, policy: LowestSum, cutoff: math.NaN()}
	for _, set := range user {
		if set != nil {
			set(&o)
		}
	}
	if o.maxRetries < 0 {
		return o, fmt.Errorf("%w: max retries %d must be >= 0", ErrBadOption, o.maxRetries)
	}
	if o.policy != LowestSum && o.policy != FewestNonZero {
		return o, fmt.Errorf("%w: unknown policy %d", ErrBadOption, int(o.policy))
	}
	if math.IsInf(o.cutoff, 0) {
		return o, fmt.Errorf("%w: cutoff must be finite", ErrBadOption)
	}

	return o, nil
}

// Result is the restored outcome of one recovery run.
type Result struct {
	Bias      []float64     // length n; 0 marks an excluded bin
	Corrected *matrix.Dense // n×n; excluded rows/columns are zero
	Record    RemovalRecord
	Attempts  int // solver invocations
}

// BalanceWithRecovery solves a with solver, stripping degenerate rows on failure.
//
// Contract:
//   - a is never mutated.
//   - Retry while the failure is recoverable AND fewer than MaxRetries
//     removals were made. Structural and context errors return immediately.
//   - A solver result with a non-positive or non-finite entry counts as a
//     degenerate failure.
//
// Errors:
//   - *BalancingFailedError (ErrBalancingFailed) when the budget is exhausted
//     or a removal would leave no rows.
//   - ErrBadOption, matrix sentinels, ctx.Err(), or any non-recoverable solver error.
func BalanceWithRecovery(ctx context.Context, a matrix.Matrix, solver Solver, opts ...Option) (*Result, error) {
	o, err := gatherOptions(opts...)
	if err != nil {
		return nil, err
	}
	if solver == nil {
		return nil, fmt.Errorf("%w: nil solver", ErrBadOption)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err = matrix.ValidateSquare(a); err != nil {
		return nil, fmt.Errorf("guard: %w", err)
	}
	work, err := matrix.AsDense(a)
	if err != nil {
		return nil, fmt.Errorf("guard: %w", err)
	}
	seed := o.initial
	if seed != nil && len(seed) != work.Rows() {
		return nil, fmt.Errorf("%w: initial vector has length %d, matrix order is %d",
			ErrBadOption, len(seed), work.Rows())
	}

	var (
		rec      = NewRemovalRecord(work.Rows())
		x        []float64
		attempts int
		idx      []int
	)
	for {
		attempts++
		x, err = solve(ctx, solver, work, seed)
		if err == nil {
			err = checkBias(x, work.Rows())
		}
		if err == nil {
			break
		}
		if !recoverable(err) {
			return nil, err
		}
		if rec.Len() >= o.maxRetries {
			return nil, failure(attempts, rec, err)
		}
		solveErr := err
		if idx, err = SparsestRows(work, o.policy, o.cutoff); err != nil {
			return nil, err
		}
		if len(idx) == 0 || len(idx) == work.Rows() {
			return nil, failure(attempts, rec, fmt.Errorf("no balanceable rows left: %w", solveErr))
		}
		if seed != nil {
			seed = pick(seed, matrix.Complement(idx, work.Rows()))
		}
		if work, err = matrix.DeleteRowsCols(work, idx); err != nil {
			return nil, err
		}
		rec.append(idx)
		if o.observer != nil {
			orig := rec.OriginalIndices()
			o.observer.OnRetry(rec.Len(), orig[len(orig)-1], work.Rows())
		}
	}

	corrected, err := matrix.ScaleSym(work, x)
	if err != nil {
		return nil, err
	}
	x, corrected, err = Restore(x, corrected, rec)
	if err != nil {
		return nil, err
	}

	return &Result{Bias: x, Corrected: corrected, Record: rec, Attempts: attempts}, nil
}

func solve(ctx context.Context, solver Solver, a *matrix.Dense, seed []float64) ([]float64, error) {
	if seed != nil {
		if ss, ok := solver.(SeededSolver); ok {
			return ss.SolveFrom(ctx, a, seed)
		}
	}
	return solver.Solve(ctx, a)
}

// pick returns x[keep[0]], x[keep[1]], ...
func pick(x []float64, keep []int) []float64 {
	out := make([]float64, len(keep))
	for i, k := range keep {
		out[i] = x[k]
	}
	return out
}

// recoverable reports whether stripping rows can help.
func recoverable(err error) bool {
	return errors.Is(err, bias.ErrDegenerateInput) ||
		errors.Is(err, bias.ErrNotConverged) ||
		errors.Is(err, ErrBadBias)
}

// checkBias enforces the bias invariant: length n and every entry finite > 0.
func checkBias(x []float64, n int) error {
	if len(x) != n {
		return fmt.Errorf("%w: length %d, want %d", ErrBadBias, len(x), n)
	}
	for i, v := range x {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: x[%d]=%g", ErrBadBias, i, v)
		}
	}

	return nil
}

func failure(attempts int, rec RemovalRecord, err error) *BalancingFailedError {
	res := math.NaN()
	var r bias.Residualer
	if errors.As(err, &r) {
		res = r.ResidualNorm()
	}

	return &BalancingFailedError{Attempts: attempts, Excluded: rec.Excluded(), Residual: res, Err: err}
}
