// Package matrix provides the contact-matrix storage used by the balancing
// packages.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 matrix with bounds-checked At/Set and a flat
//     backing slice for hot loops (Raw).
//   - Central validators for the contact-matrix contract: square, symmetric
//     within eps, finite and non-negative (ValidateContactMatrix).
//   - Block helpers used by per-chromosome balancing: Block copies a
//     [begin,end) sub-block out, SetBlock writes one back at the same offsets.
//   - Row/column surgery used by sparse-row recovery: DeleteRowsCols and
//     InsertZeroRowsCols.
//   - Kernels shared by the solver: MatVec, RowSums and ScaleSym
//     (out[i,j] = b[i]*a[i,j]*b[j]).
//   - Zero-copy interop with gonum (FromGonum, (*Dense).Gonum).
//
// Contact matrices are dense n×n; memory is O(n²) and every kernel here is
// O(n²) or better.
package matrix
