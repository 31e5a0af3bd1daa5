// Package guard makes matrix balancing robust to degenerate rows.
//
// Knight–Ruiz balancing breaks down on all-zero or near-empty rows (a
// normalization divisor vanishes). BalanceWithRecovery wraps any Solver:
//
//  1. Try to solve the working matrix.
//  2. On a recoverable failure (bias.ErrDegenerateInput, bias.ErrNotConverged)
//     strip the sparsest rows together with their mirrored columns, append the
//     stripped index set to the RemovalRecord and retry.
//  3. Stop after MaxRetries removals with *BalancingFailedError.
//  4. On success apply the bias (out[i,j] = x[i]·A[i,j]·x[j]) and restore the
//     original dimensionality by replaying the record in reverse: each step's
//     indices are relative to the matrix after every earlier removal, so the
//     last removal must be undone first.
//
// Restored bias entries are exactly 0 and restored rows/columns of the
// corrected matrix are all zero. A zero bias means "bin excluded", never a
// valid scale factor.
package guard
