// SPDX-License-Identifier: MIT

package bias

// Observer receives one call per completed outer iteration.
//   - outer:    1-based outer iteration index.
//   - inner:    inner (CG) steps taken in that outer iteration.
//   - residual: ‖1 − x⊙(A·x)‖ after the update.
//
// Implementations must be cheap; the solver calls them synchronously. An
// Observer shared by solves that run concurrently must be safe for concurrent use.
type Observer interface {
	OnIteration(outer, inner int, residual float64)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(outer, inner int, residual float64)

// OnIteration calls f(outer, inner, residual).
func (f ObserverFunc) OnIteration(outer, inner int, residual float64) { f(outer, inner, residual) }
