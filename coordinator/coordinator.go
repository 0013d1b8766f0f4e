// Package coordinator implements the core of the system: it registers
// remote members into a transaction set, drives that set from PREPARE to
// COMMIT or ROLLBACK, records every step durably, and hands an
// incompletely-resolved set to a recovery worker (spec.md §4.3).
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/ruichu233/tpcgo/component"
	"github.com/ruichu233/tpcgo/internal/applog"
	"github.com/ruichu233/tpcgo/internal/metrics"
	"github.com/ruichu233/tpcgo/internal/txnerrors"
	"github.com/ruichu233/tpcgo/phase"
	"github.com/ruichu233/tpcgo/txnset"
	"github.com/ruichu233/tpcgo/txnstore"
)

// Launcher starts a detached recovery worker for a log file. It is the
// "Background-worker launcher" collaborator named in spec.md §1 — out of
// scope for the core, injected by whatever process-management the host
// environment provides. recovery.Worker implements this interface.
type Launcher interface {
	Launch(logPath string) error
}

// Coordinator is the per-session coordinator state machine. Exactly one
// Coordinator should exist per host session; per spec.md §9 this
// replaces the original's process-wide singleton with an explicit,
// session-scoped value the host runtime carries and passes to the
// host-lifecycle bridge.
type Coordinator struct {
	store    *txnstore.Store
	launcher Launcher
	opts     *Options

	mu      sync.Mutex
	current *txnset.Set
}

// New builds a Coordinator backed by store, handing INCOMPLETE sets to
// launcher.
func New(store *txnstore.Store, launcher Launcher, opts ...Option) *Coordinator {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	repair(o)
	return &Coordinator{store: store, launcher: launcher, opts: o}
}

// HasActiveSet reports whether a set is currently open on this session.
func (c *Coordinator) HasActiveSet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Register associates conn with the current set, creating one (assigning
// it a fresh prefix and opening its log) if none is active yet. On
// success conn has been durably logged as PREPARE-intended and the remote
// PREPARE TRANSACTION has been acknowledged. On failure the host
// transaction must abort, which drives the rollback path for any members
// registered before this one (spec.md §4.3, §7).
func (c *Coordinator) Register(ctx context.Context, conn component.RemoteConn) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	justBegan := false
	if c.current == nil {
		set, err := c.begin()
		if err != nil {
			return err
		}
		c.current = set
		justBegan = true
	}
	set := c.current

	if err := set.EnterPrepare(); err != nil {
		return err
	}

	name, err := set.NextMemberName()
	if err != nil {
		return err
	}
	url := component.URL(conn)

	if err := set.WritePrepareTodo(url, name); err != nil {
		return err
	}

	query := fmt.Sprintf("PREPARE TRANSACTION '%s'", name)
	execCtx, cancel := c.boundedContext(ctx)
	defer cancel()
	if err := conn.Exec(execCtx, query); err != nil {
		return txnerrors.Invalidf("query ("+query+") failed", err)
	}

	set.AppendMember(&txnset.Member{Conn: conn, Name: name, URL: url})
	if justBegan {
		metrics.SetsBegun.Inc()
	}
	return nil
}

func (c *Coordinator) begin() (*txnset.Set, error) {
	if err := c.store.EnsureDir(); err != nil {
		return nil, err
	}
	prefix, err := txnset.NewPrefix()
	if err != nil {
		return nil, err
	}
	file, err := c.store.Create(prefix)
	if err != nil {
		return nil, err
	}
	set, err := txnset.New(prefix, file.Path, file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return set, nil
}

// DriveToCommit issues COMMIT PREPARED to every member in registration
// order and finalizes the set. It never returns an error from a remote
// command failure — per spec.md §7, by the time the host has reached its
// commit point there is no way for the caller to react, so failures are
// captured as INCOMPLETE and handed to recovery instead. It does return an
// error for a precondition violation (phase is not PREPARE).
func (c *Coordinator) DriveToCommit(ctx context.Context) error {
	return c.drive(ctx, phase.Commit, "COMMIT PREPARED")
}

// DriveToRollback is the rollback-path counterpart to DriveToCommit.
func (c *Coordinator) DriveToRollback(ctx context.Context) error {
	return c.drive(ctx, phase.Rollback, "ROLLBACK PREPARED")
}

func (c *Coordinator) drive(ctx context.Context, target phase.Phase, verb string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := c.current
	if set == nil {
		return txnerrors.Invalid("no active transaction set to drive")
	}

	var enter func() error
	if target == phase.Commit {
		enter = set.EnterCommit
	} else {
		enter = set.EnterRollback
	}
	if err := enter(); err != nil {
		return err
	}

	canComplete := true
	for _, m := range set.Members {
		query := fmt.Sprintf("%s '%s'", verb, m.Name)
		execCtx, cancel := c.boundedContext(ctx)
		err := m.Conn.Exec(execCtx, query)
		cancel()
		ok := err == nil
		if !ok {
			canComplete = false
			applog.WarnContextf(ctx, "member %s: %s failed: %v", m.Name, verb, err)
		}
		if werr := set.WriteMemberOutcome(m.URL, m.Name, ok); werr != nil {
			applog.ErrorContextf(ctx, "could not write outcome record for %s: %v", m.Name, werr)
		}
		metrics.MemberOutcomes.WithLabelValues(phase.LabelOf(target), statusLabel(ok)).Inc()
	}

	return c.finalize(ctx, canComplete)
}

func statusLabel(ok bool) string {
	if ok {
		return "OK"
	}
	return "BAD"
}

// finalize closes out the driven set: COMPLETE removes the log file,
// INCOMPLETE leaves it in place and launches recovery. A persistence
// failure while writing the terminal record is logged as a warning rather
// than raised, per spec.md §7 — raising here would be silent data loss,
// since the caller can no longer react.
func (c *Coordinator) finalize(ctx context.Context, canComplete bool) error {
	set := c.current
	if err := set.Finalize(canComplete); err != nil {
		applog.WarnContextf(ctx, "could not finalize set %s: %v", set.Prefix, err)
	}
	if canComplete {
		if err := c.store.Remove(set.LogPath); err != nil {
			applog.WarnContextf(ctx, "could not remove completed set file %s: %v", set.LogPath, err)
		}
		metrics.SetsCompleted.Inc()
		return nil
	}

	metrics.SetsIncomplete.Inc()
	applog.WarnContextf(ctx, "could not clean up set %s, starting recovery worker", set.LogPath)
	if err := c.launcher.Launch(set.LogPath); err != nil {
		applog.WarnContextf(ctx, "could not start recovery worker for %s: %v; manual cleanup required", set.LogPath, err)
	}
	return nil
}

// Cleanup clears the per-session current-set slot. It does not close any
// connection — those remain owned by the caller's session, per spec.md
// §4.3.
func (c *Coordinator) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

// CurrentPhase reports the active set's phase, or phase.Complete with ok
// false if no set is active (there is nothing meaningful to report once
// cleanup has run).
func (c *Coordinator) CurrentPhase() (p phase.Phase, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return phase.Complete, false
	}
	return c.current.Phase, true
}

func (c *Coordinator) boundedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opts.ExecTimeout)
}
