package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fleetctl/cmd/fleetctl/handlers"
)

// Destroy returns the destroy command.
func Destroy() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy the working fleet and all associated resources",
		Long: `Destroy removes every resource of the working fleet.

Teardown runs these steps in order:
  - Terminate every instance tagged with the fleet and wait until gone
  - Delete the shared volume
  - Delete the security group
  - Close persistent tunnels and remove the local fleet record

A failing step does not stop the remaining ones; all failures are
reported together.

Example:
  fleetctl destroy --yes

WARNING: This operation is irreversible. Data on the shared volume is lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), globals, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
