// Command tpcadmin is the superuser-only administrative surface named in
// spec.md §6: list in-flight transaction sets, force a cleanup of one, or
// watch the log directory for changes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var dataRoot string
	cmd := &cobra.Command{
		Use:   "tpcadmin",
		Short: "Administer in-flight two-phase commit transaction sets",
	}
	cmd.PersistentFlags().StringVar(&dataRoot, "data-root", ".", "data root containing the extglobalxact log directory")
	cmd.AddCommand(
		newListCommand(&dataRoot),
		newCleanupCommand(&dataRoot),
		newWatchCommand(&dataRoot),
	)
	return cmd
}
