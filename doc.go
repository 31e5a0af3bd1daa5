// Package hicbalance corrects Hi-C contact matrices for experimental bias by
// matrix balancing.
//
// A Hi-C contact matrix A is symmetric, non-negative and n×n over genome bins.
// Balancing finds a positive vector x such that diag(x)·A·diag(x) has every
// row and column summing to one; the corrected matrix is
// corrected[i,j] = x[i]·A[i,j]·x[j].
//
// The module is organized in small packages:
//
//	matrix/  : Dense storage, contact-matrix validators, block and row surgery, text I/O
//	bias/    : Knight–Ruiz Newton/CG solver with trust-region truncation
//	guard/   : sparse-row recovery: strip degenerate rows, retry, restore zeros
//	genome/  : chromosome blocks and partition checks
//	correct/ : global and per-chromosome orchestration, result sinks
//	progress/: logrus and in-memory observers for iterations and retries
//	config/  : YAML run configuration
//	cmd/hicbalance: command-line front end
//
// Quick start:
//
//	a, _ := matrix.NewDenseFromRows(rows)
//	res, err := correct.Correct(ctx, a, nil, correct.WithTolerance(1e-6))
//	// res.Bias[i] == 0 marks an excluded (too sparse) bin.
package hicbalance
