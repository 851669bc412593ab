package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atelierhq/atelier-api/internal/version"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("atelier %s (commit %s, built %s)\n", version.Version, version.Commit, version.BuildDate)
		},
	}
}
