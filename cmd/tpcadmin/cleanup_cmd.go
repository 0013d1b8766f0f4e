package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ruichu233/tpcgo/pqclient"
	"github.com/ruichu233/tpcgo/recovery"
	"github.com/ruichu233/tpcgo/txnstore"
)

// newCleanupCommand implements the administrative hook named in
// spec.md §6: "cleanup(filename) — launches the recovery worker for a
// specific log file. Superuser-only by policy." It runs the worker
// synchronously so the operator sees the outcome before the command
// returns. If a still-live session holds the file's advisory lock, the
// worker skips the file with a warning and the command returns without
// error.
func newCleanupCommand(dataRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup <file>",
		Short: "Force recovery of a specific transaction set log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := txnstore.New(*dataRoot)
			path := store.Path(args[0])
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no such transaction set: %w", err)
			}
			dialer := pqclient.NewDialer(pqclient.WithCredentials(envCredentials))
			worker := recovery.New(store, dialer.Dial)
			return worker.Run(cmd.Context(), path)
		},
	}
}

// envCredentials resolves connection parameters from the environment, the
// way a PostgreSQL client library conventionally does (PGUSER, PGPASSWORD,
// PGSSLMODE), since the log never records credentials (spec.md §4.2).
func envCredentials(host, port, database string) (string, error) {
	extra := "sslmode=" + firstNonEmpty(os.Getenv("PGSSLMODE"), "disable")
	if user := os.Getenv("PGUSER"); user != "" {
		extra += " user=" + user
	}
	if pass := os.Getenv("PGPASSWORD"); pass != "" {
		extra += " password=" + pass
	}
	return extra, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
