// Command tpcd is a minimal example of a host runtime wiring
// hostbridge to a coordinator session: it registers each
// postgresql://host:port/db URL given on the command line as a member of
// one transaction set, then fires the pre_commit lifecycle event (or the
// abort event, with -abort). It
// exists to exercise the wiring end to end, not as a production host
// integration — a real host runtime calls coordinator.Register and
// hostbridge.Handle from its own transaction lifecycle hooks instead of a
// CLI's argument list.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ruichu233/tpcgo/coordinator"
	"github.com/ruichu233/tpcgo/hostbridge"
	"github.com/ruichu233/tpcgo/internal/applog"
	"github.com/ruichu233/tpcgo/internal/metrics"
	"github.com/ruichu233/tpcgo/pqclient"
	"github.com/ruichu233/tpcgo/recovery"
	"github.com/ruichu233/tpcgo/txnstore"
)

func main() {
	dataRoot := flag.String("data-root", ".", "data root containing the extglobalxact log directory")
	logPath := flag.String("log", "", "path to the rotated application log file (stderr if empty)")
	abort := flag.Bool("abort", false, "drive the set to rollback instead of commit")
	flag.Parse()

	if *logPath != "" {
		applog.Configure(*logPath, 100, 3, 28)
	}
	metrics.MustRegister(prometheus.DefaultRegisterer)

	if err := run(*dataRoot, *abort, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(dataRoot string, abort bool, urls []string) error {
	if len(urls) == 0 {
		return fmt.Errorf("usage: tpcd [-data-root dir] [-abort] postgresql://host:port/db ...")
	}

	store := txnstore.New(dataRoot)
	dialer := pqclient.NewDialer()
	worker := recovery.New(store, dialer.Dial)
	c := coordinator.New(store, worker)
	bridge := hostbridge.New(c)

	ctx := context.Background()
	conns := make([]*pqclient.Conn, 0, len(urls))
	defer func() {
		for _, conn := range conns {
			conn.Close()
		}
	}()

	for _, url := range urls {
		rc, err := dialer.Dial(url)
		if err != nil {
			return err
		}
		conn, ok := rc.(*pqclient.Conn)
		if !ok {
			return fmt.Errorf("unexpected connection type for %s", url)
		}
		conns = append(conns, conn)
		if err := c.Register(ctx, conn); err != nil {
			return fmt.Errorf("register %s: %w", url, err)
		}
	}

	ev := hostbridge.PreCommit
	if abort {
		ev = hostbridge.Abort
	}
	return bridge.Handle(ctx, ev)
}
