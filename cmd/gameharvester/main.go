// Package main is the entry point for the gameharvester CLI.
package main

import (
	"os"

	"GameHarvester/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
