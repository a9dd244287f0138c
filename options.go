package treemerge

import (
	"log/slog"

	"github.com/jward/treemerge/internal/approx"
)

// Option configures a Merger.
type Option func(*Merger)

// ProgressFunc receives a human-readable label once per merged target.
type ProgressFunc func(label string)

// WithLogger sets the structured logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Merger) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithPolicy replaces the approximation key strategy. A policy that also
// implements ErrPolicy is checked after every target and a reported error
// aborts the merge.
func WithPolicy(p approx.Policy) Option {
	return func(m *Merger) {
		if p != nil {
			m.policy = p
		}
	}
}

// WithProgress installs a progress sink. Panics raised by the sink are
// recovered and logged; they never abort a merge.
func WithProgress(fn ProgressFunc) Option {
	return func(m *Merger) {
		m.progress = fn
	}
}

// WithLoadConcurrency bounds how many modules of one target are loaded in
// parallel. Values below 1 fall back to the default.
func WithLoadConcurrency(n int) Option {
	return func(m *Merger) {
		if n > 0 {
			m.loadConcurrency = n
		}
	}
}
