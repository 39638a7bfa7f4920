// Package main is the entry point for the mosaic CLI.
package main

import (
	"os"

	"github.com/rshade/mosaic/internal/cli"
	"github.com/rshade/mosaic/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps the outcome to an exit code.
// Cobra has already reported the error by the time it returns here.
func run() int {
	if err := cli.NewRootCmd(version.GetVersion()).Execute(); err != nil {
		return 1
	}
	return 0
}
