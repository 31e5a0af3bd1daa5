// Package correct is the top-level driver of Hi-C matrix balancing.
//
// Modes:
//
//   - Global (no blocks): one recovery-guarded KR solve over the whole
//     matrix; corrected[i,j] = bias[i]·A[i,j]·bias[j] everywhere, including
//     inter-chromosome blocks.
//   - Per-chromosome (blocks given): each diagonal block A[b:e, b:e] is
//     balanced independently and written back at the same offsets.
//     Inter-chromosome blocks are left exactly as they were: this mode answers
//     "is chromosome X internally well scaled", not "are cross-chromosome
//     contacts comparable".
//
// Concurrency:
//
//	Per-chromosome blocks run on a bounded worker pool. Blocks partition the
//	index space, so every worker writes a disjoint region of the output; the
//	result (and any Sink) is only touched after all workers joined.
//
// Persistence:
//
//	A Sink receives (bias, corrected) for one identity in a single Store call;
//	the two are never stored separately.
package correct
