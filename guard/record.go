// SPDX-License-Identifier: MIT

package guard

import (
	"sort"

	"github.com/katalvlaran/hicbalance/matrix"
)

// RemovalRecord is the append-only log of one recovery run. Step k holds the
// ascending indices removed at retry k, relative to the matrix as it was after
// steps 0..k-1.
type RemovalRecord struct {
	size  int     // order of the original matrix
	steps [][]int // relative index sets, chronological
}

// NewRemovalRecord starts an empty record for a matrix of order n.
func NewRemovalRecord(n int) RemovalRecord {
	return RemovalRecord{size: n}
}

// Size is the order of the original matrix.
func (r RemovalRecord) Size() int { return r.size }

// Len is the number of recorded retries.
func (r RemovalRecord) Len() int { return len(r.steps) }

// Excluded is the total number of rows stripped across all steps.
func (r RemovalRecord) Excluded() int {
	total := 0
	for _, s := range r.steps {
		total += len(s)
	}
	return total
}

// Steps returns a deep copy of the relative index sets in chronological order.
func (r RemovalRecord) Steps() [][]int {
	out := make([][]int, len(r.steps))
	for i, s := range r.steps {
		out[i] = append([]int(nil), s...)
	}
	return out
}

// append records idx, which must be valid for the current working order.
func (r *RemovalRecord) append(idx []int) {
	r.steps = append(r.steps, append([]int(nil), idx...))
}

// OriginalIndices maps every step back to positions in the original matrix.
// Result[k] is ascending and disjoint from every other step.
// Complexity: O(Len() * Size()).
func (r RemovalRecord) OriginalIndices() [][]int {
	alive := make([]int, r.size) // alive[i] = original index of current row i
	for i := range alive {
		alive[i] = i
	}
	out := make([][]int, len(r.steps))
	for k, step := range r.steps {
		orig := make([]int, len(step))
		for i, ix := range step {
			orig[i] = alive[ix]
		}
		out[k] = orig
		next := make([]int, 0, len(alive)-len(step))
		for _, keep := range matrix.Complement(step, len(alive)) {
			next = append(next, alive[keep])
		}
		alive = next
	}
	return out
}

// ExcludedIndices returns every stripped original index, ascending.
func (r RemovalRecord) ExcludedIndices() []int {
	var all []int
	for _, s := range r.OriginalIndices() {
		all = append(all, s...)
	}
	sort.Ints(all)
	return all
}
