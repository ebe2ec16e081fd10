package cmd

import (
	"github.com/spf13/cobra"

	"github.com/szj2ys/arb/internal/update"
)

// newUpdateHelperCmd is the hidden entry point the applier spawns from
// the staged bundle. It runs detached from the user's session and must
// not print to a terminal; progress goes to the work directory's
// update.log instead.
func newUpdateHelperCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "update-helper <target-app> <new-app> <work-dir>",
		Short:  "Internal: swap a staged update into place",
		Hidden: true,
		Args:   cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return update.RunHelper(args[0], args[1], args[2])
		},
	}
}
