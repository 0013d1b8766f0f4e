package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ruichu233/tpcgo/txnstore"
)

func newListCommand(dataRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List in-flight transaction sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := txnstore.New(*dataRoot)
			paths, err := store.List()
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no in-flight transaction sets")
				return nil
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Base(p))
			}
			return nil
		},
	}
}
