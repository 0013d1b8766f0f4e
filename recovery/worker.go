// Package recovery implements the background recovery worker named in
// spec.md §4.6: reload an INCOMPLETE set from its log file, then drive it
// to resolution member by member. Run doubles as the "administrative
// hook" (§6 cleanup(filename)): Launch is the coordinator's async
// fire-and-forget path, Run is the synchronous call cmd/tpcadmin's
// cleanup subcommand makes.
package recovery

import (
	"context"
	"path/filepath"

	"github.com/ruichu233/tpcgo/internal/applog"
	"github.com/ruichu233/tpcgo/internal/metrics"
	"github.com/ruichu233/tpcgo/txnset"
	"github.com/ruichu233/tpcgo/txnstore"
)

// Worker reconciles log files against a store. It holds no per-set state
// between calls; it is restartable by construction, per spec.md §4.6 —
// every externally observable action it takes is idempotent.
type Worker struct {
	store *txnstore.Store
	dial  txnset.Dialer
	opts  *Options
}

// New builds a Worker that reopens members from dial and records
// progress through store.
func New(store *txnstore.Store, dial txnset.Dialer, opts ...Option) *Worker {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	repair(o)
	return &Worker{store: store, dial: dial, opts: o}
}

// Launch starts Run in a detached goroutine and returns immediately. This
// is the coordinator.Launcher implementation a Worker satisfies
// structurally.
func (w *Worker) Launch(logPath string) error {
	go func() {
		if err := w.Run(context.Background(), logPath); err != nil {
			applog.Errorf("recovery worker for %s exited: %v", logPath, err)
		}
	}()
	return nil
}

// Run reconciles the set at logPath to completion and unlinks its log
// file. If logPath is already locked by a live session, Run logs a
// warning and returns nil without error — per spec.md §6, there is
// deliberately no interlock that would make this a hard failure; a racing
// administrator simply gets a no-op this time.
func (w *Worker) Run(ctx context.Context, logPath string) error {
	metrics.RecoveryInFlight.Inc()
	defer metrics.RecoveryInFlight.Dec()

	file, acquired, err := w.store.OpenForRecovery(logPath)
	if err != nil {
		return err
	}
	if !acquired {
		applog.Warnf("recovery: %s is locked by a live session, skipping", logPath)
		return nil
	}

	prefix := filepath.Base(logPath)
	set, err := txnset.Load(prefix, logPath, file, file, w.dial)
	if err != nil {
		file.Close()
		return err
	}

	if err := w.reconcile(ctx, set); err != nil {
		file.Close()
		return err
	}

	if err := file.Unlock(); err != nil {
		applog.Warnf("recovery: could not unlock %s: %v", logPath, err)
	}
	if err := file.Close(); err != nil {
		applog.Warnf("recovery: could not close %s: %v", logPath, err)
	}
	return w.store.Remove(logPath)
}
