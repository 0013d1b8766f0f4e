package main

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ruichu233/tpcgo/txnstore"
)

// newWatchCommand live-tails the log directory so an operator sees
// transaction sets appear and disappear without polling list repeatedly.
func newWatchCommand(dataRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the log directory for transaction sets appearing or clearing",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := txnstore.New(*dataRoot)
			if err := store.EnsureDir(); err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("could not start directory watch: %w", err)
			}
			defer watcher.Close()
			if err := watcher.Add(store.Dir()); err != nil {
				return fmt.Errorf("could not watch %s: %w", store.Dir(), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "watching %s\n", store.Dir())
			ctx := cmd.Context()
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					switch {
					case ev.Op&fsnotify.Create != 0:
						fmt.Fprintf(out, "+ %s\n", filepath.Base(ev.Name))
					case ev.Op&fsnotify.Remove != 0:
						fmt.Fprintf(out, "- %s\n", filepath.Base(ev.Name))
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
				}
			}
		},
	}
}
