// Package main provides the entry point for the orcengine CLI.
package main

import (
	"os"

	"github.com/orcforge/engine/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
