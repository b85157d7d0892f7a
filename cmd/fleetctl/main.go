// Package main is the entry point for the fleetctl CLI.
//
// fleetctl provisions a fleet of cloud instances (one controller and any
// number of worker groups), keeps SSH tunnels to the controller, manages
// files on the controller's shared volume and tears the fleet down again.
//
// Commands: init, workon, destroy, info, tunnel, ls, rm, sync, version.
//
// For detailed usage information, run:
//
//	fleetctl --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/fleetctl/cmd/fleetctl/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
