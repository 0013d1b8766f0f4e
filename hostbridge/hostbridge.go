// Package hostbridge translates host transaction-runtime lifecycle events
// into coordinator calls (spec.md §4.5). It is the thin glue layer named
// in spec.md §2 ("Host-lifecycle bridge... ~5%"); all decision logic
// lives in coordinator.
package hostbridge

import (
	"context"

	"github.com/ruichu233/tpcgo/coordinator"
	"github.com/ruichu233/tpcgo/internal/applog"
	"github.com/ruichu233/tpcgo/internal/txnerrors"
)

// Event is a host transaction-runtime lifecycle event. The host runtime
// that embeds this module fires one of these once per active set per
// local transaction boundary.
type Event int

const (
	// PreCommit fires before the host's local transaction commits —
	// the only safe point from which to drive the remote commit, since
	// the caller can still abort in reaction to a failure here.
	PreCommit Event = iota
	// ParallelPreCommit is PreCommit's parallel-worker counterpart.
	ParallelPreCommit
	// Commit fires after the host's local transaction has already
	// committed. Driving from here is unsafe (see Bridge.Handle) but
	// still attempted, since by this point there is no alternative.
	Commit
	// ParallelCommit is Commit's parallel-worker counterpart.
	ParallelCommit
	// Abort fires when the host's local transaction aborts.
	Abort
	// ParallelAbort is Abort's parallel-worker counterpart.
	ParallelAbort
	// PrePrepare fires when the host itself is nested inside another
	// two-phase commit as a participant.
	PrePrepare
	// Prepare is PrePrepare's point-of-no-return counterpart.
	Prepare
	// Other covers every host event this bridge does not act on.
	Other
)

// Bridge wires a Coordinator to a stream of host lifecycle Events.
type Bridge struct {
	c *coordinator.Coordinator
}

// New builds a Bridge over c.
func New(c *coordinator.Coordinator) *Bridge {
	return &Bridge{c: c}
}

// Handle dispatches ev per the table in spec.md §4.5. It returns
// FeatureNotSupported for PrePrepare/Prepare (nested two-phase commit is
// not offered). For the drive events it returns only the precondition
// error of the drive call (the active set is not in PREPARE); a remote
// command failure is never returned — the failing set has already been
// pushed into recovery, since by the time these events fire the host can
// no longer react to a remote failure.
func (b *Bridge) Handle(ctx context.Context, ev Event) error {
	switch ev {
	case PreCommit, ParallelPreCommit:
		return b.driveAndCleanup(ctx, b.c.DriveToCommit)

	case Commit, ParallelCommit:
		applog.WarnContextf(ctx, "remote transaction committed implicitly; unsafe")
		return b.driveAndCleanup(ctx, b.c.DriveToCommit)

	case Abort, ParallelAbort:
		return b.driveAndCleanup(ctx, b.c.DriveToRollback)

	case PrePrepare, Prepare:
		return txnerrors.NotSupported("nested two-phase commit is not supported")

	default:
		return nil
	}
}

func (b *Bridge) driveAndCleanup(ctx context.Context, drive func(context.Context) error) error {
	if !b.c.HasActiveSet() {
		return nil
	}
	err := drive(ctx)
	b.c.Cleanup()
	return err
}
