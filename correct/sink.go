// SPDX-License-Identifier: MIT

package correct

import (
	"context"
	"sort"
	"sync"

	"github.com/katalvlaran/hicbalance/genome"
	"github.com/katalvlaran/hicbalance/matrix"
)

// GlobalName identifies the whole-genome unit in global mode.
const GlobalName = "genome"

// Unit is one atomic balancing result: a bias vector together with the
// corrected matrix it was computed against.
type Unit struct {
	Name      string       // chromosome name, or GlobalName
	Block     genome.Block // bins covered by Name; [0, n) in global mode
	Bias      []float64
	Corrected *matrix.Dense
}

// Sink persists units. Store receives bias and corrected matrix together.
type Sink interface {
	Store(ctx context.Context, u Unit) error
}

// MemorySink keeps deep copies of stored units; safe for concurrent use.
type MemorySink struct {
	mu    sync.RWMutex
	units map[string]Unit
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{units: make(map[string]Unit)}
}

// Store implements Sink. A later unit with the same name replaces the earlier one.
func (s *MemorySink) Store(ctx context.Context, u Unit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := Unit{Name: u.Name, Block: u.Block, Bias: append([]float64(nil), u.Bias...)}
	if u.Corrected != nil {
		cp.Corrected, _ = matrix.AsDense(u.Corrected.Clone())
	}
	s.mu.Lock()
	s.units[u.Name] = cp
	s.mu.Unlock()

	return nil
}

// Get returns the stored unit for name.
func (s *MemorySink) Get(name string) (Unit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[name]
	return u, ok
}

// Names returns the stored unit names, sorted.
func (s *MemorySink) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.units))
	for name := range s.units {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
