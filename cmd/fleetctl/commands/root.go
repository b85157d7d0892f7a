// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fleetctl/cmd/fleetctl/handlers"
)

// globals is bound to the root command's persistent flags.
var globals handlers.Globals

// Root returns the root command for the fleetctl CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fleetctl",
		Short:         "Provision and operate compute fleets on Hetzner Cloud",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&globals.ConfigPath, "config", "", "Path to the profile (default ~/.fleetctl.yml)")
	cmd.PersistentFlags().CountVarP(&globals.Verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	cmd.PersistentFlags().StringVar(&globals.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile on exit")

	// Fleet lifecycle
	cmd.AddCommand(Init())
	cmd.AddCommand(Workon())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Info())

	// Controller access
	cmd.AddCommand(Tunnel())
	cmd.AddCommand(Ls())
	cmd.AddCommand(Rm())
	cmd.AddCommand(Sync())

	cmd.AddCommand(Version())

	return cmd
}
