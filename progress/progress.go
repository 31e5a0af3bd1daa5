// Package progress adapts the balancing hooks (bias.Observer,
// guard.RetryObserver) to logging and in-memory traces. The numerical
// packages never log on their own; everything they report flows through here.
package progress

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/katalvlaran/hicbalance/bias"
	"github.com/katalvlaran/hicbalance/guard"
)

var (
	_ bias.Observer       = (*Logrus)(nil)
	_ guard.RetryObserver = (*Logrus)(nil)
	_ bias.Observer       = (*Recorder)(nil)
	_ guard.RetryObserver = (*Recorder)(nil)
)

// Logrus writes iterations at Debug and retries at Info.
type Logrus struct {
	entry *logrus.Entry
}

// NewLogrus wraps logger. A nil logger uses logrus.StandardLogger().
// fields are attached to every entry (e.g. the chromosome name).
func NewLogrus(logger *logrus.Logger, fields logrus.Fields) *Logrus {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Logrus{entry: logger.WithFields(fields)}
}

// With returns a copy that adds fields to every entry.
func (l *Logrus) With(fields logrus.Fields) *Logrus {
	return &Logrus{entry: l.entry.WithFields(fields)}
}

// OnIteration implements bias.Observer.
func (l *Logrus) OnIteration(outer, inner int, residual float64) {
	l.entry.WithFields(logrus.Fields{
		"outer":    outer,
		"inner":    inner,
		"residual": residual,
	}).Debug("balancing iteration")
}

// OnRetry implements guard.RetryObserver.
func (l *Logrus) OnRetry(attempt int, removed []int, remaining int) {
	l.entry.WithFields(logrus.Fields{
		"attempt": attempt,
		"removed": removed,
		"size":    remaining,
	}).Info("matrix balancing failed, removing sparsest rows")
}

// Iteration is one recorded OnIteration call.
type Iteration struct {
	Outer, Inner int
	Residual     float64
}

// Retry is one recorded OnRetry call.
type Retry struct {
	Attempt   int
	Removed   []int
	Remaining int
}

// Recorder keeps every reported event; safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	iterations []Iteration
	retries    []Retry
}

// OnIteration implements bias.Observer.
func (r *Recorder) OnIteration(outer, inner int, residual float64) {
	r.mu.Lock()
	r.iterations = append(r.iterations, Iteration{Outer: outer, Inner: inner, Residual: residual})
	r.mu.Unlock()
}

// OnRetry implements guard.RetryObserver.
func (r *Recorder) OnRetry(attempt int, removed []int, remaining int) {
	r.mu.Lock()
	r.retries = append(r.retries, Retry{Attempt: attempt, Removed: append([]int(nil), removed...), Remaining: remaining})
	r.mu.Unlock()
}

// Iterations returns a copy of the recorded iterations.
func (r *Recorder) Iterations() []Iteration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Iteration(nil), r.iterations...)
}

// Retries returns a copy of the recorded retries.
func (r *Recorder) Retries() []Retry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Retry(nil), r.retries...)
}
