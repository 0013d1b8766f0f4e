package recovery

import "time"

// Options configures a Worker.
type Options struct {
	// PollInterval bounds how often the reconcile loop re-probes an
	// INCOMPLETE set's remaining members (spec.md §4.6 step 1).
	PollInterval time.Duration
	// ExecTimeout bounds each remote round trip (probe query, terminal
	// command, connection reset) issued during reconciliation.
	ExecTimeout time.Duration
}

// Option mutates Options.
type Option func(*Options)

// WithPollInterval overrides the default one-second pacing between
// reconcile passes over an INCOMPLETE set.
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) { o.PollInterval = d }
}

// WithExecTimeout overrides the default per-command timeout.
func WithExecTimeout(d time.Duration) Option {
	return func(o *Options) { o.ExecTimeout = d }
}

func repair(o *Options) {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.ExecTimeout <= 0 {
		o.ExecTimeout = 10 * time.Second
	}
}
