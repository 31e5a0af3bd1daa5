// Package matrix_test contains unit tests for the Dense implementation
// of the Matrix interface in the matrix package.
package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hicbalance/matrix"
)

// rowsMatrix is a foreign Matrix implementation used to exercise the slow
// (non-*Dense) paths.
type rowsMatrix [][]float64

func (m rowsMatrix) Rows() int { return len(m) }
func (m rowsMatrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}
func (m rowsMatrix) At(i, j int) (float64, error) {
	if i < 0 || i >= m.Rows() || j < 0 || j >= m.Cols() {
		return 0, matrix.ErrOutOfRange
	}
	return m[i][j], nil
}
func (m rowsMatrix) Set(i, j int, v float64) error {
	if i < 0 || i >= m.Rows() || j < 0 || j >= m.Cols() {
		return matrix.ErrOutOfRange
	}
	m[i][j] = v
	return nil
}
func (m rowsMatrix) Clone() matrix.Matrix {
	out := make(rowsMatrix, len(m))
	for i := range m {
		out[i] = append([]float64(nil), m[i]...)
	}
	return out
}

// mustDense builds a Dense from row literals or fails the test.
func mustDense(t testing.TB, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFromRows(rows)
	require.NoError(t, err)
	return m
}

// TestNewDenseInvalidDimensions ensures that NewDense rejects non-positive dimensions.
func TestNewDenseInvalidDimensions(t *testing.T) {
	_, err := matrix.NewDense(0, 5)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDense(5, 0)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestRowsCols verifies that Rows() and Cols() return correct dimension values.
func TestRowsCols(t *testing.T) {
	m, err := matrix.NewDense(3, 4)
	require.NoError(t, err)

	require.Equal(t, 3, m.Rows())
	require.Equal(t, 4, m.Cols())
	r, c := m.Shape()
	require.Equal(t, [2]int{3, 4}, [2]int{r, c})
}

// TestAtSetOutOfRange ensures At() and Set() return ErrOutOfRange on invalid access.
func TestAtSetOutOfRange(t *testing.T) {
	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)

	_, err = m.At(-1, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	_, err = m.At(0, 2)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	err = m.Set(2, 0, 1.23)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	err = m.Set(0, -1, 4.56)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

// TestSetRejectsNonFinite checks the numeric policy of Set.
func TestSetRejectsNonFinite(t *testing.T) {
	m, err := matrix.NewDense(1, 1)
	require.NoError(t, err)

	require.ErrorIs(t, m.Set(0, 0, math.NaN()), matrix.ErrNaNInf)
	require.ErrorIs(t, m.Set(0, 0, math.Inf(-1)), matrix.ErrNaNInf)
}

// TestCloneIndependence ensures Clone() returns a deep copy that does not share storage.
func TestCloneIndependence(t *testing.T) {
	m := mustDense(t, [][]float64{{1, 0}, {0, 2}})

	clone := m.Clone()
	require.NoError(t, clone.Set(0, 0, 3))

	orig, err := m.At(0, 0)
	require.NoError(t, err)
	require.Equal(t, 1.0, orig)

	got, err := clone.At(0, 0)
	require.NoError(t, err)
	require.Equal(t, 3.0, got)
}

// TestStringOutput checks that String() formats the matrix as expected.
func TestStringOutput(t *testing.T) {
	m := mustDense(t, [][]float64{{1, 2}, {3, 4}})
	require.Equal(t, "[1, 2]\n[3, 4]\n", m.String())
}

func TestNewDenseFromRows(t *testing.T) {
	_, err := matrix.NewDenseFromRows(nil)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDenseFromRows([][]float64{{1, 2}, {3}})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = matrix.NewDenseFromRows([][]float64{{1, math.NaN()}})
	require.ErrorIs(t, err, matrix.ErrNaNInf)

	src := [][]float64{{1, 2}, {3, 4}}
	m, err := matrix.NewDenseFromRows(src)
	require.NoError(t, err)
	src[0][0] = 99 // input is copied
	require.Equal(t, []float64{1, 2, 3, 4}, m.Raw())
}

func TestNewDenseFromData(t *testing.T) {
	_, err := matrix.NewDenseFromData(2, 2, []float64{1, 2, 3})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = matrix.NewDenseFromData(0, 2, nil)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	buf := []float64{1, 2, 3, 4, 5, 6}
	m, err := matrix.NewDenseFromData(2, 3, buf)
	require.NoError(t, err)
	buf[5] = 0
	v, err := m.At(1, 2)
	require.NoError(t, err)
	require.Equal(t, 6.0, v)
}

func TestInduced(t *testing.T) {
	m := mustDense(t, [][]float64{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	})

	sub, err := m.Induced([]int{0, 2}, []int{1, 2})
	require.NoError(t, err)
	require.Equal(t, []float64{2, 3, 8, 9}, sub.Raw())

	empty, err := m.Induced(nil, []int{0})
	require.NoError(t, err)
	require.Equal(t, 0, empty.Rows())
	require.Equal(t, 1, empty.Cols())

	_, err = m.Induced([]int{3}, []int{0})
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

func TestAsDense(t *testing.T) {
	d := mustDense(t, [][]float64{{1, 2}, {2, 1}})
	got, err := matrix.AsDense(d)
	require.NoError(t, err)
	require.Same(t, d, got)

	foreign := rowsMatrix{{1, 2}, {2, 1}}
	got, err = matrix.AsDense(foreign)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 2, 1}, got.Raw())

	_, err = matrix.AsDense(nil)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}
