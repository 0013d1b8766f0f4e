package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/ruichu233/tpcgo/internal/applog"
	"github.com/ruichu233/tpcgo/internal/metrics"
	"github.com/ruichu233/tpcgo/phase"
	"github.com/ruichu233/tpcgo/txnset"
)

// prober is satisfied by connections that can answer whether a probe
// query returned any rows. pqclient.Conn implements it; a connection that
// does not is skipped with a warning rather than treated as resolved —
// silently assuming resolution here would risk dropping a still-pending
// prepared transaction.
type prober interface {
	HasRows(ctx context.Context, query string) (bool, error)
}

// reconcile runs the probe-then-resolve loop of spec.md §4.6 over set
// until every member has been resolved. It returns once set.Members is
// empty; the caller is responsible for unlinking the log file afterward.
func (w *Worker) reconcile(ctx context.Context, set *txnset.Set) error {
	verb := "ROLLBACK PREPARED"
	if set.ShouldCommit() {
		verb = "COMMIT PREPARED"
	}

	for len(set.Members) > 0 {
		metrics.RecoveryIterations.Inc()

		if set.Phase == phase.Incomplete {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.opts.PollInterval):
			}
		}

		for i := 0; i < len(set.Members); {
			m := set.Members[i]

			if m.Conn.Broken() {
				rctx, cancel := context.WithTimeout(ctx, w.opts.ExecTimeout)
				err := m.Conn.Reset(rctx)
				cancel()
				if err != nil {
					applog.WarnContextf(ctx, "recovery: could not reset connection for %s: %v", m.Name, err)
					i++
					continue
				}
			}

			p, ok := m.Conn.(prober)
			if !ok {
				applog.WarnContextf(ctx, "recovery: connection for %s cannot be probed, leaving in place", m.Name)
				i++
				continue
			}

			probe := fmt.Sprintf("SELECT * FROM pg_prepared_xacts WHERE gid = '%s'", m.Name)
			pctx, cancel := context.WithTimeout(ctx, w.opts.ExecTimeout)
			present, err := p.HasRows(pctx, probe)
			cancel()
			if err != nil {
				applog.WarnContextf(ctx, "recovery: probe failed for %s: %v", m.Name, err)
				i++
				continue
			}
			if !present {
				m.Conn.Close()
				set.RemoveMember(i)
				continue
			}

			query := fmt.Sprintf("%s '%s'", verb, m.Name)
			ectx, cancel := context.WithTimeout(ctx, w.opts.ExecTimeout)
			err = m.Conn.Exec(ectx, query)
			cancel()
			if err != nil {
				applog.WarnContextf(ctx, "recovery: %s failed for %s: %v", verb, m.Name, err)
				i++
				continue
			}
			m.Conn.Close()
			set.RemoveMember(i)
		}

		if len(set.Members) > 0 {
			if err := set.MarkIncomplete(); err != nil {
				applog.ErrorContextf(ctx, "recovery: could not record INCOMPLETE pass: %v", err)
			}
		}
	}
	return nil
}
