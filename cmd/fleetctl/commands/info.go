package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imamik/fleetctl/cmd/fleetctl/handlers"
)

// Info returns the info command.
func Info() *cobra.Command {
	return &cobra.Command{
		Use:       fmt.Sprintf("info [%s]", strings.Join(handlers.InfoSections, "|")),
		Short:     "Show the working fleet's status, instances and shared volume",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: handlers.InfoSections,
		RunE: func(cmd *cobra.Command, args []string) error {
			section := ""
			if len(args) == 1 {
				section = args[0]
			}
			return handlers.Info(cmd.Context(), globals, section)
		},
	}
}
