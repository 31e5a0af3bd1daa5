package guard_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hicbalance/bias"
	"github.com/katalvlaran/hicbalance/guard"
	"github.com/katalvlaran/hicbalance/matrix"
)

func mustDense(t testing.TB, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFromRows(rows)
	require.NoError(t, err)
	return m
}

// diag5 has distinct row sums, so every removal picks exactly one row.
func diag5(t testing.TB) *matrix.Dense {
	return mustDense(t, [][]float64{
		{5, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
		{0, 0, 4, 0, 0},
		{0, 0, 0, 2, 0},
		{0, 0, 0, 0, 3},
	})
}

// flakySolver fails the first n calls with err, then returns all-ones.
func flakySolver(n int, err error) (guard.Solver, *int) {
	calls := 0
	return guard.SolverFunc(func(_ context.Context, a matrix.Matrix) ([]float64, error) {
		calls++
		if calls <= n {
			return nil, err
		}
		x := make([]float64, a.Rows())
		for i := range x {
			x[i] = 1
		}
		return x, nil
	}), &calls
}

type retryLog struct {
	attempts  []int
	removed   [][]int
	remaining []int
}

func (l *retryLog) OnRetry(attempt int, removed []int, remaining int) {
	l.attempts = append(l.attempts, attempt)
	l.removed = append(l.removed, removed)
	l.remaining = append(l.remaining, remaining)
}

func TestBalanceWithRecoveryZeroRow(t *testing.T) {
	a := mustDense(t, [][]float64{
		{0, 2, 2, 0},
		{2, 0, 2, 0},
		{2, 2, 0, 0},
		{0, 0, 0, 0},
	})

	res, err := guard.BalanceWithRecovery(context.Background(), a, bias.NewSolver())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, [][]int{{3}}, res.Record.OriginalIndices())
	require.Len(t, res.Bias, 4)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 0.5, res.Bias[i], 1e-6)
	}
	assert.Zero(t, res.Bias[3])

	sums, err := matrix.RowSums(res.Corrected)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1, sums[i], 2e-6)
	}
	assert.Zero(t, sums[3])
	assert.True(t, matrix.IsSymmetric(res.Corrected, 0))

	// Input untouched.
	v, err := a.At(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}

func TestBalanceWithRecoveryNoRetryNeeded(t *testing.T) {
	a := mustDense(t, [][]float64{{0, 1}, {1, 0}})

	res, err := guard.BalanceWithRecovery(context.Background(), a, bias.NewSolver())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Zero(t, res.Record.Len())
	assert.Equal(t, []float64{1, 1}, res.Bias)
	assert.Equal(t, a.Raw(), res.Corrected.Raw())
}

func TestBalanceWithRecoveryRestoresOriginalPositions(t *testing.T) {
	fail := &bias.DegenerateInputError{Index: -1, Residual: 0.5, Reason: "stub"}
	solver, calls := flakySolver(2, fail)
	log := &retryLog{}

	res, err := guard.BalanceWithRecovery(context.Background(), diag5(t), solver,
		guard.WithRetryObserver(log))
	require.NoError(t, err)

	assert.Equal(t, 3, *calls)
	assert.Equal(t, 3, res.Attempts)
	// Second removal is index 2 of the reduced matrix, bin 3 of the original.
	assert.Equal(t, [][]int{{1}, {2}}, res.Record.Steps())
	assert.Equal(t, [][]int{{1}, {3}}, res.Record.OriginalIndices())
	assert.Equal(t, []int{1, 3}, res.Record.ExcludedIndices())
	assert.Equal(t, 2, res.Record.Excluded())
	assert.Equal(t, 5, res.Record.Size())

	assert.Equal(t, []float64{1, 0, 1, 0, 1}, res.Bias)
	assert.Equal(t, []float64{
		5, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 4, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 3,
	}, res.Corrected.Raw())

	assert.Equal(t, []int{1, 2}, log.attempts)
	assert.Equal(t, [][]int{{1}, {3}}, log.removed)
	assert.Equal(t, []int{4, 3}, log.remaining)
}

func TestBalanceWithRecoveryBudgetExhausted(t *testing.T) {
	fail := &bias.NotConvergedError{Iterations: 10, Residual: 0.25}
	solver, calls := flakySolver(math.MaxInt, fail)

	_, err := guard.BalanceWithRecovery(context.Background(), diag5(t), solver, guard.WithMaxRetries(2))
	require.ErrorIs(t, err, guard.ErrBalancingFailed)
	require.ErrorIs(t, err, bias.ErrNotConverged)

	var bf *guard.BalancingFailedError
	require.True(t, errors.As(err, &bf))
	assert.Equal(t, 3, bf.Attempts)
	assert.Equal(t, 2, bf.Excluded)
	assert.Equal(t, 0.25, bf.Residual)
	assert.Equal(t, 3, *calls)
}

func TestBalanceWithRecoveryZeroBudget(t *testing.T) {
	fail := &bias.DegenerateInputError{Index: 0}
	solver, calls := flakySolver(1, fail)

	_, err := guard.BalanceWithRecovery(context.Background(), diag5(t), solver, guard.WithMaxRetries(0))
	var bf *guard.BalancingFailedError
	require.True(t, errors.As(err, &bf))
	assert.Equal(t, 1, bf.Attempts)
	assert.Zero(t, bf.Excluded)
	assert.Equal(t, 1, *calls)
}

func TestBalanceWithRecoveryAllZero(t *testing.T) {
	a, err := matrix.NewDense(3, 3)
	require.NoError(t, err)

	_, err = guard.BalanceWithRecovery(context.Background(), a, bias.NewSolver())
	require.ErrorIs(t, err, guard.ErrBalancingFailed)
	require.ErrorIs(t, err, bias.ErrDegenerateInput)

	var bf *guard.BalancingFailedError
	require.True(t, errors.As(err, &bf))
	assert.Equal(t, 1, bf.Attempts)
}

func TestBalanceWithRecoveryBadBias(t *testing.T) {
	calls := 0
	solver := guard.SolverFunc(func(_ context.Context, a matrix.Matrix) ([]float64, error) {
		calls++
		if calls == 1 {
			return make([]float64, a.Rows()), nil // zeros break the bias contract
		}
		return []float64{1, 1, 1, 1}, nil
	})

	res, err := guard.BalanceWithRecovery(context.Background(), diag5(t), solver)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, []float64{1, 0, 1, 1, 1}, res.Bias)

	wrongLen := guard.SolverFunc(func(context.Context, matrix.Matrix) ([]float64, error) {
		return []float64{1}, nil
	})
	_, err = guard.BalanceWithRecovery(context.Background(), diag5(t), wrongLen, guard.WithMaxRetries(0))
	require.ErrorIs(t, err, guard.ErrBadBias)

	var bf *guard.BalancingFailedError
	require.True(t, errors.As(err, &bf))
	assert.True(t, math.IsNaN(bf.Residual))
}

func TestBalanceWithRecoveryNonRecoverable(t *testing.T) {
	structural := fmt.Errorf("solver: %w", matrix.ErrAsymmetry)
	solver, calls := flakySolver(math.MaxInt, structural)

	_, err := guard.BalanceWithRecovery(context.Background(), diag5(t), solver)
	require.ErrorIs(t, err, matrix.ErrAsymmetry)
	require.NotErrorIs(t, err, guard.ErrBalancingFailed)
	assert.Equal(t, 1, *calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = guard.BalanceWithRecovery(ctx, mustDense(t, [][]float64{{4, 1}, {1, 3}}), bias.NewSolver())
	require.ErrorIs(t, err, context.Canceled)
}

func TestBalanceWithRecoveryBadArguments(t *testing.T) {
	ctx := context.Background()

	_, err := guard.BalanceWithRecovery(ctx, diag5(t), nil)
	require.ErrorIs(t, err, guard.ErrBadOption)

	_, err = guard.BalanceWithRecovery(ctx, diag5(t), bias.NewSolver(), guard.WithMaxRetries(-1))
	require.ErrorIs(t, err, guard.ErrBadOption)

	_, err = guard.BalanceWithRecovery(ctx, diag5(t), bias.NewSolver(), guard.WithCutoff(math.Inf(1)))
	require.ErrorIs(t, err, guard.ErrBadOption)

	rect, err := matrix.NewDense(2, 3)
	require.NoError(t, err)
	_, err = guard.BalanceWithRecovery(ctx, rect, bias.NewSolver())
	require.ErrorIs(t, err, matrix.ErrNonSquare)
}

// seededStub fails its first call and records every seed it is given.
type seededStub struct {
	seeds [][]float64
}

func (s *seededStub) Solve(ctx context.Context, a matrix.Matrix) ([]float64, error) {
	return s.SolveFrom(ctx, a, nil)
}

func (s *seededStub) SolveFrom(_ context.Context, a matrix.Matrix, x0 []float64) ([]float64, error) {
	s.seeds = append(s.seeds, append([]float64(nil), x0...))
	if len(s.seeds) == 1 {
		return nil, &bias.DegenerateInputError{Index: 3, Reason: "stub"}
	}
	x := make([]float64, a.Rows())
	for i := range x {
		x[i] = 1
	}
	return x, nil
}

func TestBalanceWithRecoveryShrinksSeed(t *testing.T) {
	a := mustDense(t, [][]float64{
		{0, 2, 2, 0},
		{2, 0, 2, 0},
		{2, 2, 0, 0},
		{0, 0, 0, 0},
	})
	stub := &seededStub{}

	res, err := guard.BalanceWithRecovery(context.Background(), a, stub,
		guard.WithInitial([]float64{1, 2, 3, 4}))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3, 4}, {1, 2, 3}}, stub.seeds)
	assert.Equal(t, []float64{1, 1, 1, 0}, res.Bias)

	_, err = guard.BalanceWithRecovery(context.Background(), a, stub, guard.WithInitial([]float64{1}))
	require.ErrorIs(t, err, guard.ErrBadOption)
}

func TestBalanceWithRecoverySeededKR(t *testing.T) {
	a := mustDense(t, [][]float64{
		{0, 2, 2, 0},
		{2, 0, 2, 0},
		{2, 2, 0, 0},
		{0, 0, 0, 0},
	})

	res, err := guard.BalanceWithRecovery(context.Background(), a, bias.NewSolver(),
		guard.WithInitial([]float64{1, 1, 1, 1}))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 0.5, res.Bias[i], 1e-6)
	}
	assert.Zero(t, res.Bias[3])
}
