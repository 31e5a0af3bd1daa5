package correct_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hicbalance/bias"
	"github.com/katalvlaran/hicbalance/correct"
	"github.com/katalvlaran/hicbalance/genome"
	"github.com/katalvlaran/hicbalance/guard"
	"github.com/katalvlaran/hicbalance/matrix"
	"github.com/katalvlaran/hicbalance/progress"
)

const inter = 7 // inter-chromosome contact count in the fixtures

func mustDense(t testing.TB, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFromRows(rows)
	require.NoError(t, err)
	return m
}

// twoChromosomes returns a 6×6 matrix whose diagonal blocks are chr1 [0,3)
// and chr2 [3,6); chr2Block replaces the default all-ones block of chr2.
func twoChromosomes(t testing.TB, chr2Block [][]float64) *matrix.Dense {
	t.Helper()
	chr1 := [][]float64{{0, 2, 2}, {2, 0, 2}, {2, 2, 0}}
	if chr2Block == nil {
		chr2Block = [][]float64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}
	}
	rows := make([][]float64, 6)
	for i := range rows {
		rows[i] = make([]float64, 6)
		for j := range rows[i] {
			switch {
			case i < 3 && j < 3:
				rows[i][j] = chr1[i][j]
			case i >= 3 && j >= 3:
				rows[i][j] = chr2Block[i-3][j-3]
			default:
				rows[i][j] = inter
			}
		}
	}
	return mustDense(t, rows)
}

var chromBlocks = []genome.Block{
	{Name: "chr2", Begin: 3, End: 6},
	{Name: "chr1", Begin: 0, End: 3},
}

func rowSums(t *testing.T, m matrix.Matrix) []float64 {
	t.Helper()
	s, err := matrix.RowSums(m)
	require.NoError(t, err)
	return s
}

func TestCorrectGlobal(t *testing.T) {
	a := mustDense(t, [][]float64{
		{4, 1, 2, 1},
		{1, 3, 1, 2},
		{2, 1, 5, 1},
		{1, 2, 1, 2},
	})
	sink := correct.NewMemorySink()

	res, err := correct.Correct(context.Background(), a, nil, correct.WithSink(sink))
	require.NoError(t, err)

	assert.Equal(t, correct.Global, res.Mode)
	assert.True(t, res.Symmetric)
	require.Len(t, res.Bias, 4)
	for i, s := range rowSums(t, res.Corrected) {
		assert.InDeltaf(t, 1, s, 2e-6, "row %d", i)
	}
	assert.Empty(t, res.Excluded())
	assert.Zero(t, res.Records[correct.GlobalName].Len())
	assert.Nil(t, res.Biases)

	u, ok := sink.Get(correct.GlobalName)
	require.True(t, ok)
	assert.Equal(t, res.Bias, u.Bias)
	assert.Equal(t, res.Corrected.Raw(), u.Corrected.Raw())
	assert.Equal(t, genome.Block{Name: correct.GlobalName, Begin: 0, End: 4}, u.Block)
}

func TestCorrectGlobalBalancesInterChromosome(t *testing.T) {
	a := twoChromosomes(t, nil)

	res, err := correct.Correct(context.Background(), a, nil)
	require.NoError(t, err)
	for i, s := range rowSums(t, res.Corrected) {
		assert.InDeltaf(t, 1, s, 2e-6, "row %d", i)
	}
	v, err := res.Corrected.At(0, 5)
	require.NoError(t, err)
	assert.NotEqual(t, float64(inter), v)
}

func TestCorrectPerChromosome(t *testing.T) {
	a := twoChromosomes(t, nil)
	sink := correct.NewMemorySink()

	res, err := correct.Correct(context.Background(), a, chromBlocks, correct.WithSink(sink))
	require.NoError(t, err)

	assert.Equal(t, correct.PerChromosome, res.Mode)
	assert.Equal(t, "chr1", res.Blocks[0].Name)
	assert.True(t, res.Symmetric)

	for i := 0; i < 3; i++ {
		assert.InDelta(t, 0.5, res.Bias[i], 1e-6)
		assert.InDelta(t, 1/math.Sqrt(3), res.Bias[i+3], 1e-6)
	}
	assert.Equal(t, res.Bias[:3], res.Biases["chr1"])
	assert.Equal(t, res.Bias[3:], res.Biases["chr2"])

	// Diagonal blocks are balanced, off-diagonal blocks are left exactly as given.
	for _, b := range res.Blocks {
		sub, err := matrix.Block(res.Corrected, b.Begin, b.End, b.Begin, b.End)
		require.NoError(t, err)
		for i, s := range rowSums(t, sub) {
			assert.InDeltaf(t, 1, s, 2e-6, "%s row %d", b.Name, i)
		}
	}
	for i := 0; i < 3; i++ {
		for j := 3; j < 6; j++ {
			v, err := res.Corrected.At(i, j)
			require.NoError(t, err)
			assert.Equal(t, float64(inter), v)
			v, err = res.Corrected.At(j, i)
			require.NoError(t, err)
			assert.Equal(t, float64(inter), v)
		}
	}

	// Input untouched.
	v, err := a.At(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	assert.Equal(t, []string{"chr1", "chr2"}, sink.Names())
	for _, b := range res.Blocks {
		u, ok := sink.Get(b.Name)
		require.True(t, ok)
		assert.Equal(t, b, u.Block)
		assert.Equal(t, res.Biases[b.Name], u.Bias)
		sub, err := matrix.Block(res.Corrected, b.Begin, b.End, b.Begin, b.End)
		require.NoError(t, err)
		assert.Equal(t, sub.Raw(), u.Corrected.Raw())
	}
}

func TestCorrectPerChromosomeSparseRow(t *testing.T) {
	a := twoChromosomes(t, [][]float64{{1, 1, 0}, {1, 1, 0}, {0, 0, 0}})

	res, err := correct.Correct(context.Background(), a, chromBlocks)
	require.NoError(t, err)

	assert.Equal(t, []int{5}, res.Excluded())
	assert.Equal(t, 1, res.Records["chr2"].Len())
	assert.Zero(t, res.Records["chr1"].Len())
	assert.Equal(t, [][]int{{2}}, res.Records["chr2"].OriginalIndices())
	assert.InDelta(t, 1/math.Sqrt2, res.Bias[3], 1e-6)
	assert.Zero(t, res.Bias[5])

	// The excluded bin is zero inside its chromosome; inter-chromosome cells stay.
	v, err := res.Corrected.At(5, 4)
	require.NoError(t, err)
	assert.Zero(t, v)
	v, err = res.Corrected.At(5, 0)
	require.NoError(t, err)
	assert.Equal(t, float64(inter), v)
}

func TestCorrectPerChromosomeFailure(t *testing.T) {
	a := twoChromosomes(t, [][]float64{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}})

	_, err := correct.Correct(context.Background(), a, chromBlocks)
	require.ErrorIs(t, err, guard.ErrBalancingFailed)
	assert.Contains(t, err.Error(), "chr2")
}

func TestCorrectShapeMismatch(t *testing.T) {
	a := twoChromosomes(t, nil)
	blocks := []genome.Block{{Name: "chr1", Begin: 0, End: 2}, {Name: "chr2", Begin: 3, End: 6}}

	_, err := correct.Correct(context.Background(), a, blocks)
	require.ErrorIs(t, err, correct.ErrShapeMismatch)
	require.ErrorIs(t, err, genome.ErrGap)

	var sm *correct.ShapeMismatchError
	require.True(t, errors.As(err, &sm))
	assert.Equal(t, 6, sm.Size)
	assert.Len(t, sm.Blocks, 2)
}

func TestCorrectRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()

	_, err := correct.Correct(ctx, mustDense(t, [][]float64{{1, 2}, {3, 1}}), nil)
	require.ErrorIs(t, err, matrix.ErrAsymmetry)

	_, err = correct.Correct(ctx, mustDense(t, [][]float64{{1, -1}, {-1, 1}}), nil)
	require.ErrorIs(t, err, matrix.ErrNegative)

	_, err = correct.Correct(ctx, nil, nil)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)

	// A looser tolerance accepts the same input.
	_, err = correct.Correct(ctx, mustDense(t, [][]float64{{1, 2}, {2.001, 1}}), nil,
		correct.WithSymmetryTolerance(0.01))
	require.NoError(t, err)
}

func TestCorrectIdempotentOnBalancedInput(t *testing.T) {
	a := mustDense(t, [][]float64{
		{0, 0.5, 0.5},
		{0.5, 0, 0.5},
		{0.5, 0.5, 0},
	})

	res, err := correct.Correct(context.Background(), a, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, res.Bias)
	assert.Equal(t, a.Raw(), res.Corrected.Raw())
}

func TestCorrectWorkersDeterministic(t *testing.T) {
	a := twoChromosomes(t, nil)

	one, err := correct.Correct(context.Background(), a, chromBlocks, correct.WithWorkers(1))
	require.NoError(t, err)
	many, err := correct.Correct(context.Background(), a, chromBlocks, correct.WithWorkers(4))
	require.NoError(t, err)

	assert.Equal(t, one.Bias, many.Bias)
	assert.Equal(t, one.Corrected.Raw(), many.Corrected.Raw())
}

func TestCorrectOptions(t *testing.T) {
	a := twoChromosomes(t, nil)
	ctx := context.Background()

	_, err := correct.Correct(ctx, a, nil, correct.WithWorkers(0))
	require.ErrorIs(t, err, correct.ErrBadOption)

	_, err = correct.Correct(ctx, a, nil, correct.WithSymmetryTolerance(-1))
	require.ErrorIs(t, err, correct.ErrBadOption)

	_, err = correct.Correct(ctx, a, nil, correct.WithTolerance(0))
	require.ErrorIs(t, err, bias.ErrBadOption)

	_, err = correct.Correct(ctx, a, nil, correct.WithMaxRetries(-1))
	require.ErrorIs(t, err, guard.ErrBadOption)

	res, err := correct.Correct(ctx, a, chromBlocks,
		correct.WithTolerance(1e-10), correct.WithBounds(0.05, 4))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Bias[0], 1e-9)
}

func TestCorrectCustomSolver(t *testing.T) {
	var calls atomic.Int32
	solver := guard.SolverFunc(func(_ context.Context, m matrix.Matrix) ([]float64, error) {
		calls.Add(1)
		x := make([]float64, m.Rows())
		for i := range x {
			x[i] = 2
		}
		return x, nil
	})

	res, err := correct.Correct(context.Background(), twoChromosomes(t, nil), chromBlocks,
		correct.WithSolver(solver))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []float64{2, 2, 2, 2, 2, 2}, res.Bias)

	v, err := res.Corrected.At(3, 3)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
}

type failingSink struct{ err error }

func (s failingSink) Store(context.Context, correct.Unit) error { return s.err }

func TestCorrectSinkError(t *testing.T) {
	boom := errors.New("disk full")

	_, err := correct.Correct(context.Background(), twoChromosomes(t, nil), chromBlocks,
		correct.WithSink(failingSink{err: boom}))
	require.ErrorIs(t, err, boom)
}

func TestCorrectContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := correct.Correct(ctx, twoChromosomes(t, nil), chromBlocks)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSolveBias(t *testing.T) {
	a := mustDense(t, [][]float64{{0, 2, 2}, {2, 0, 2}, {2, 2, 0}})

	x, err := correct.SolveBias(context.Background(), a, correct.WithTolerance(1e-9))
	require.NoError(t, err)
	for _, v := range x {
		assert.InDelta(t, 0.5, v, 1e-8)
	}

	// No recovery: a zero row is reported as is.
	_, err = correct.SolveBias(context.Background(), mustDense(t, [][]float64{{1, 0}, {0, 0}}))
	require.ErrorIs(t, err, bias.ErrDegenerateInput)
	require.NotErrorIs(t, err, guard.ErrBalancingFailed)
}

func TestMemorySinkCopies(t *testing.T) {
	sink := correct.NewMemorySink()
	m := mustDense(t, [][]float64{{1}})
	x := []float64{3}

	require.NoError(t, sink.Store(context.Background(), correct.Unit{Name: "chr1", Bias: x, Corrected: m}))
	x[0] = 0
	require.NoError(t, m.Set(0, 0, 0))

	u, ok := sink.Get("chr1")
	require.True(t, ok)
	assert.Equal(t, []float64{3}, u.Bias)
	assert.Equal(t, []float64{1}, u.Corrected.Raw())

	_, ok = sink.Get("chr2")
	assert.False(t, ok)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "global", correct.Global.String())
	assert.Equal(t, "per-chromosome", correct.PerChromosome.String())
}

func TestCorrectInitialWithZeroRow(t *testing.T) {
	a := mustDense(t, [][]float64{
		{0, 2, 2, 0},
		{2, 0, 2, 0},
		{2, 2, 0, 0},
		{0, 0, 0, 0},
	})

	res, err := correct.Correct(context.Background(), a, nil,
		correct.WithInitial([]float64{1, 1, 1, 1}))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 0.5, res.Bias[i], 1e-6)
	}
	assert.Zero(t, res.Bias[3])

	_, err = correct.Correct(context.Background(), a, nil, correct.WithInitial([]float64{1, 1}))
	require.ErrorIs(t, err, correct.ErrBadOption)
}

func TestCorrectInitialPerChromosome(t *testing.T) {
	a := twoChromosomes(t, nil)
	want, err := correct.Correct(context.Background(), a, chromBlocks)
	require.NoError(t, err)

	res, err := correct.Correct(context.Background(), a, chromBlocks,
		correct.WithInitial([]float64{1, 1, 1, 1, 1, 1}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Bias, res.Bias, 1e-6)
}

func TestCorrectObserversPerUnit(t *testing.T) {
	var (
		mu   sync.Mutex
		recs = map[string]*progress.Recorder{}
	)
	a := twoChromosomes(t, [][]float64{{1, 1, 0}, {1, 1, 0}, {0, 0, 0}})

	_, err := correct.Correct(context.Background(), a, chromBlocks,
		correct.WithObservers(func(unit string) correct.Observer {
			mu.Lock()
			defer mu.Unlock()
			r := &progress.Recorder{}
			recs[unit] = r
			return r
		}))
	require.NoError(t, err)

	require.Len(t, recs, 2)
	assert.NotEmpty(t, recs["chr1"].Iterations())
	assert.Empty(t, recs["chr1"].Retries())
	require.Len(t, recs["chr2"].Retries(), 1)
	assert.Equal(t, []int{2}, recs["chr2"].Retries()[0].Removed)
}
