// Package main provides the entry point for the savegame CLI.
package main

import (
	"fmt"
	"os"

	"github.com/kurobon/gitsavegame/cmd/savegame/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
