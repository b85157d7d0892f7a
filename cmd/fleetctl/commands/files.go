package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fleetctl/cmd/fleetctl/handlers"
)

// Ls returns the command that lists a shared volume folder.
func Ls() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List a folder on the shared volume",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return handlers.List(cmd.Context(), globals, path)
		},
	}
}

// Rm returns the command that deletes from the shared volume.
func Rm() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file or folder on the shared volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Remove(cmd.Context(), globals, args[0])
		},
	}
}

// Sync returns the command group that copies folders to and from the
// shared volume.
func Sync() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy folders between this machine and the shared volume",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "put <local-folder> <remote-path>",
		Short: "Copy a local folder to the shared volume",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.SyncPut(cmd.Context(), globals, args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <remote-path> <local-folder>",
		Short: "Copy a shared volume folder to this machine",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.SyncGet(cmd.Context(), globals, args[0], args[1])
		},
	})

	return cmd
}
