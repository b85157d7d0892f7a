package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fleetctl/cmd/fleetctl/handlers"
	"github.com/imamik/fleetctl/internal/tunnel"
)

// Tunnel returns the tunnel command group.
func Tunnel() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tunnel",
		Short: "Manage SSH tunnels to the working fleet",
	}

	cmd.AddCommand(tunnelCreate())
	cmd.AddCommand(tunnelDestroyAll())
	cmd.AddCommand(tunnelNode())

	return cmd
}

func tunnelCreate() *cobra.Command {
	var (
		remotePort int
		localPort  int
		prefix     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Forward a local port to a controller port",
		Long: `Create opens a persistent tunnel from localhost to the controller.

The tunnel keeps running after the command exits and is closed by
"fleetctl tunnel destroy-all" or "fleetctl destroy".

Example:
  fleetctl tunnel create --remote-port 8080 --local-port 18080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.TunnelCreate(cmd.Context(), globals, remotePort, localPort, prefix)
		},
	}

	cmd.Flags().IntVar(&remotePort, "remote-port", 0, "Port on the controller (required)")
	cmd.Flags().IntVar(&localPort, "local-port", 0, "Local port (default: the remote port)")
	cmd.Flags().StringVar(&prefix, "prefix", tunnel.DefaultPrefix, "Name prefix of the tunnel socket")
	_ = cmd.MarkFlagRequired("remote-port")

	return cmd
}

func tunnelDestroyAll() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "destroy-all",
		Short: "Close every persistent tunnel under a prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.TunnelDestroyAll(cmd.Context(), globals, prefix)
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", tunnel.DefaultPrefix, "Name prefix of the tunnel sockets")

	return cmd
}

func tunnelNode() *cobra.Command {
	var (
		remotePort  int
		localPort   int
		controlPort int
	)

	cmd := &cobra.Command{
		Use:   "node <host>",
		Short: "Forward a local port to a worker through the controller",
		Long: `Node forwards a local port to a port on a fleet host that is only
reachable from the controller. The tunnel stays open until interrupted.

Example:
  fleetctl tunnel node 10.0.0.5 --remote-port 8888`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.NodeTunnel(cmd.Context(), globals, args[0], remotePort, localPort, controlPort)
		},
	}

	cmd.Flags().IntVar(&remotePort, "remote-port", 0, "Port on the host (required)")
	cmd.Flags().IntVar(&localPort, "local-port", 0, "Local port (default: the remote port)")
	cmd.Flags().IntVar(&controlPort, "control-port", 0, "Relay port on the controller (default: the remote port)")
	_ = cmd.MarkFlagRequired("remote-port")

	return cmd
}
