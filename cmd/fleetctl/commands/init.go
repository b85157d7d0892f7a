package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fleetctl/cmd/fleetctl/handlers"
)

// Init returns the command that provisions a fleet from a definition file.
func Init() *cobra.Command {
	return &cobra.Command{
		Use:   "init <fleet.yml>",
		Short: "Provision a fleet and make it the working fleet",
		Long: `Init provisions the fleet described by a definition file.

The definition names the fleet and its worker groups:

  name: analysis
  controller:
    server_type: cx32
  worker_groups:
    - label: compute
      server_type: cx42
      count: 4

Provisioning registers the SSH key, creates the bucket and the security
group, launches the controller, attaches the shared volume, launches every
worker group in parallel and runs the configuration playbooks. The fleet
becomes the working fleet for later commands.

Example:
  fleetctl init analysis.yml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Init(cmd.Context(), globals, args[0])
		},
	}
}
