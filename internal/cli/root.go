// Package cli provides the command-line interface for the Atelier API.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atelierhq/atelier-api/internal/cli/commands"
	"github.com/atelierhq/atelier-api/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "atelier",
	Short:   "Atelier API - portfolio/agency content-management backend",
	Long:    `Atelier API serves the REST backend for a portfolio/agency site: authentication, projects, services, testimonials, contacts, settings, and uploads.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewAdminCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is ./atelier.json)")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
