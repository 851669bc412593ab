// Package main provides the entry point for the Atelier API CLI.
package main

import (
	"os"

	"github.com/atelierhq/atelier-api/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
