package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fleetctl/cmd/fleetctl/handlers"
)

// Workon returns the command that switches the working fleet.
func Workon() *cobra.Command {
	return &cobra.Command{
		Use:   "workon <fleet>",
		Short: "Switch to an existing fleet",
		Long: `Workon looks up the controller of a running fleet and records it
as the working fleet.

Example:
  fleetctl workon analysis`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Workon(cmd.Context(), globals, args[0])
		},
	}
}
