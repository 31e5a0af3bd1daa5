// Package genome describes how the bins of a genome-wide contact matrix are
// partitioned into chromosomes.
//
// A Block is the half-open bin range [Begin, End) of one chromosome. Blocks
// used for per-chromosome balancing must partition [0, n) contiguously:
// sorted by Begin, no gaps, no overlaps, no empty blocks, unique names.
package genome

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrEmptyBlock reports a block with End <= Begin or a negative bound.
	ErrEmptyBlock = errors.New("genome: empty or inverted block")
	// ErrGap reports bins between two consecutive blocks that belong to none.
	ErrGap = errors.New("genome: gap between blocks")
	// ErrOverlap reports bins claimed by two blocks.
	ErrOverlap = errors.New("genome: overlapping blocks")
	// ErrCoverage reports blocks that do not start at 0 or end at n.
	ErrCoverage = errors.New("genome: blocks do not cover the matrix")
	// ErrDuplicateName reports two blocks with the same chromosome name.
	ErrDuplicateName = errors.New("genome: duplicate chromosome name")
)

// Block is the bin range [Begin, End) of one chromosome.
type Block struct {
	Name  string `yaml:"name"`
	Begin int    `yaml:"begin"`
	End   int    `yaml:"end"`
}

// Len is the number of bins in the block.
func (b Block) Len() int { return b.End - b.Begin }

// String renders "name:[begin,end)".
func (b Block) String() string { return fmt.Sprintf("%s:[%d,%d)", b.Name, b.Begin, b.End) }

// Range is the unnamed form used by name → range mappings.
type Range struct {
	Begin, End int
}

// FromMap converts a name → range mapping into blocks sorted by Begin
// (ties by name, so the order never depends on map iteration).
func FromMap(m map[string]Range) []Block {
	out := make([]Block, 0, len(m))
	for name, r := range m {
		out = append(out, Block{Name: name, Begin: r.Begin, End: r.End})
	}
	Sort(out)
	return out
}

// Sort orders blocks by Begin, then End, then Name.
func Sort(blocks []Block) {
	sort.Slice(blocks, func(i, j int) bool {
		a, b := blocks[i], blocks[j]
		if a.Begin != b.Begin {
			return a.Begin < b.Begin
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Name < b.Name
	})
}

// ValidatePartition checks that blocks partition [0, n) and returns them
// sorted. The input slice is not modified.
//
// Errors: ErrEmptyBlock, ErrDuplicateName, ErrCoverage, ErrGap, ErrOverlap,
// wrapped with the offending block.
// Complexity: O(k log k) for k blocks.
func ValidatePartition(blocks []Block, n int) ([]Block, error) {
	sorted := append([]Block(nil), blocks...)
	Sort(sorted)

	seen := make(map[string]struct{}, len(sorted))
	for _, b := range sorted {
		if b.Begin < 0 || b.End <= b.Begin {
			return nil, fmt.Errorf("%v: %w", b, ErrEmptyBlock)
		}
		if _, dup := seen[b.Name]; dup {
			return nil, fmt.Errorf("%v: %w", b, ErrDuplicateName)
		}
		seen[b.Name] = struct{}{}
	}
	if len(sorted) == 0 {
		return nil, fmt.Errorf("no blocks for %d bins: %w", n, ErrCoverage)
	}
	if sorted[0].Begin != 0 {
		return nil, fmt.Errorf("%v starts after bin 0: %w", sorted[0], ErrCoverage)
	}
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		switch {
		case cur.Begin > prev.End:
			return nil, fmt.Errorf("%v .. %v: %w", prev, cur, ErrGap)
		case cur.Begin < prev.End:
			return nil, fmt.Errorf("%v .. %v: %w", prev, cur, ErrOverlap)
		}
	}
	if last := sorted[len(sorted)-1]; last.End != n {
		return nil, fmt.Errorf("%v ends at %d, matrix has %d bins: %w", last, last.End, n, ErrCoverage)
	}

	return sorted, nil
}
