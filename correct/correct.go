// SPDX-License-Identifier: MIT

package correct

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/hicbalance/bias"
	"github.com/katalvlaran/hicbalance/genome"
	"github.com/katalvlaran/hicbalance/guard"
	"github.com/katalvlaran/hicbalance/matrix"
)

// Mode is the balancing mode of a Result.
type Mode int

const (
	// Global balances the whole matrix at once.
	Global Mode = iota
	// PerChromosome balances every diagonal chromosome block independently.
	PerChromosome
)

func (m Mode) String() string {
	if m == PerChromosome {
		return "per-chromosome"
	}
	return "global"
}

// Result is the outcome of Correct. Bias and Corrected belong together and
// must be stored as one unit.
type Result struct {
	Mode      Mode
	Corrected *matrix.Dense
	// Bias is genome-wide (length n). In per-chromosome mode it is the
	// concatenation of the block-local vectors at their offsets.
	Bias []float64
	// Biases holds the block-local vectors by chromosome name
	// (per-chromosome mode only).
	Biases map[string][]float64
	// Records holds the sparse-row removal log per unit
	// (GlobalName in global mode).
	Records map[string]guard.RemovalRecord
	// Blocks is the validated, sorted partition (per-chromosome mode only).
	Blocks []genome.Block
	// Symmetric reports whether Corrected is symmetric within the configured tolerance.
	Symmetric bool
}

// Excluded returns the genome-wide indices of bins whose bias is exactly zero.
func (r *Result) Excluded() []int {
	var out []int
	for i, v := range r.Bias {
		if v == 0 {
			out = append(out, i)
		}
	}
	return out
}

// Correct balances a. With no blocks it runs in global mode, otherwise in
// per-chromosome mode over the given partition. a is never mutated.
//
// Every unit must keep at least one balanceable row: a chromosome without any
// contacts (often chrY or chrM) fails the whole run with
// guard.ErrBalancingFailed. Leave such chromosomes out of blocks together with
// their rows, or balance globally.
//
// Errors:
//   - matrix sentinels for non-square, non-finite, negative or asymmetric input.
//   - *ShapeMismatchError when blocks do not partition [0, n).
//   - *guard.BalancingFailedError (wrapped with the chromosome name per block).
//   - ErrBadOption, ctx.Err(), or the first Sink error.
func Correct(ctx context.Context, a matrix.Matrix, blocks []genome.Block, opts ...Option) (*Result, error) {
	o, err := gatherOptions(opts...)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err = matrix.ValidateContactMatrix(a, o.symTol); err != nil {
		return nil, fmt.Errorf("correct: %w", err)
	}
	src, err := matrix.AsDense(a)
	if err != nil {
		return nil, fmt.Errorf("correct: %w", err)
	}
	if o.initial != nil && len(o.initial) != src.Rows() {
		return nil, fmt.Errorf("%w: initial vector has length %d, matrix order is %d",
			ErrBadOption, len(o.initial), src.Rows())
	}

	var res *Result
	if len(blocks) == 0 {
		res, err = correctGlobal(ctx, src, o)
	} else {
		res, err = correctPerChromosome(ctx, src, blocks, o)
	}
	if err != nil {
		return nil, err
	}
	res.Symmetric = matrix.IsSymmetric(res.Corrected, o.symTol)

	if o.sink != nil {
		if err = persist(ctx, o.sink, res); err != nil {
			return nil, fmt.Errorf("correct: store: %w", err)
		}
	}

	return res, nil
}

// SolveBias runs the KR solver once, without sparse-row recovery.
// Only WithTolerance/WithBounds/WithInitial/WithSolver/WithSolverOptions/
// WithSymmetryTolerance apply.
func SolveBias(ctx context.Context, a matrix.Matrix, opts ...Option) ([]float64, error) {
	o, err := gatherOptions(opts...)
	if err != nil {
		return nil, err
	}
	solver := o.resolveSolver()
	if ss, ok := solver.(guard.SeededSolver); ok && o.initial != nil {
		return ss.SolveFrom(ctx, a, o.initial)
	}
	return solver.Solve(ctx, a)
}

func correctGlobal(ctx context.Context, src *matrix.Dense, o Options) (*Result, error) {
	solver, gopts := o.unit(GlobalName, o.initial)
	gr, err := guard.BalanceWithRecovery(ctx, src, solver, gopts...)
	if err != nil {
		return nil, fmt.Errorf("correct: %s: %w", GlobalName, err)
	}

	return &Result{
		Mode:      Global,
		Corrected: gr.Corrected,
		Bias:      gr.Bias,
		Records:   map[string]guard.RemovalRecord{GlobalName: gr.Record},
	}, nil
}

func correctPerChromosome(ctx context.Context, src *matrix.Dense, blocks []genome.Block, o Options) (*Result, error) {
	n := src.Rows()
	sorted, err := genome.ValidatePartition(blocks, n)
	if err != nil {
		return nil, &ShapeMismatchError{Size: n, Blocks: blocks, Err: err}
	}

	out, _ := matrix.AsDense(src.Clone()) // off-diagonal blocks stay untouched
	results := make([]*guard.Result, len(sorted))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, b := range sorted {
		g.Go(func() error {
			sub, err := matrix.Block(src, b.Begin, b.End, b.Begin, b.End)
			if err != nil {
				return fmt.Errorf("correct: %s: %w", b.Name, err)
			}
			var seed []float64
			if o.initial != nil {
				seed = o.initial[b.Begin:b.End]
			}
			solver, gopts := o.unit(b.Name, seed)
			gr, err := guard.BalanceWithRecovery(gctx, sub, solver, gopts...)
			if err != nil {
				return fmt.Errorf("correct: %s: %w", b.Name, err)
			}
			// Blocks are disjoint, so concurrent writes never overlap.
			if err = matrix.SetBlock(out, b.Begin, b.Begin, gr.Corrected); err != nil {
				return fmt.Errorf("correct: %s: %w", b.Name, err)
			}
			results[i] = gr
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		Mode:      PerChromosome,
		Corrected: out,
		Bias:      make([]float64, n),
		Biases:    make(map[string][]float64, len(sorted)),
		Records:   make(map[string]guard.RemovalRecord, len(sorted)),
		Blocks:    sorted,
	}
	for i, b := range sorted {
		gr := results[i]
		copy(res.Bias[b.Begin:b.End], gr.Bias)
		res.Biases[b.Name] = gr.Bias
		res.Records[b.Name] = gr.Record
	}

	return res, nil
}

// persist stores every unit of res; each Store carries bias and matrix together.
func persist(ctx context.Context, sink Sink, res *Result) error {
	n := res.Corrected.Rows()
	if res.Mode == Global {
		return sink.Store(ctx, Unit{
			Name:      GlobalName,
			Block:     genome.Block{Name: GlobalName, Begin: 0, End: n},
			Bias:      res.Bias,
			Corrected: res.Corrected,
		})
	}
	for _, b := range res.Blocks {
		sub, err := matrix.Block(res.Corrected, b.Begin, b.End, b.Begin, b.End)
		if err != nil {
			return err
		}
		if err = sink.Store(ctx, Unit{Name: b.Name, Block: b, Bias: res.Biases[b.Name], Corrected: sub}); err != nil {
			return fmt.Errorf("%s: %w", b.Name, err)
		}
	}

	return nil
}

// compile-time check: the KR solver plugs into the guard.
var _ guard.SeededSolver = (*bias.Solver)(nil)
