// Package bias computes the Knight–Ruiz balancing vector of a symmetric,
// non-negative contact matrix.
//
// What is matrix balancing?
//
//	Given A (n×n, A = Aᵀ, A ≥ 0) find x > 0 such that diag(x)·A·diag(x) has
//	every row sum equal to one. x is the per-bin "bias" of a Hi-C matrix;
//	multiplying row i and column i by x[i] removes coverage-type artefacts.
//
// Algorithm (Newton–Krylov, Knight & Ruiz 2013):
//   - Outer loop: Newton iteration on f(x) = x ⊙ (A·x) − 1 until ‖f‖² ≤ tol².
//   - Inner loop: conjugate-gradient recurrence for the Newton step y, stopped
//     once the inner residual drops below max(η²·‖f‖², tol²).
//   - Trust region: a step that would push any coordinate of y outside
//     [delta, Delta] is truncated to the boundary and ends the inner loop.
//   - Forcing term η follows an Eisenstat–Walker schedule capped at 0.1.
//
// Failure model:
//
//	Every divisor is checked against a pivot epsilon before dividing. A zero or
//	near-zero row/column surfaces as *DegenerateInputError (errors.Is
//	ErrDegenerateInput); package guard strips such rows and retries.
//
// Usage:
//
//	x, err := bias.Solve(ctx, a,
//	  bias.WithTolerance(1e-6),
//	  bias.WithBounds(0.1, 3),
//	  bias.WithPrecision(bias.Extended),
//	)
//
// Performance:
//
//   - Time:   O(n²) per matrix-vector product; Stats.MatVecs counts them.
//   - Memory: O(n) working vectors on top of the input.
package bias
