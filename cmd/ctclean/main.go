// Package main is the entry point for the ctclean CLI.
package main

import (
	"os"

	"github.com/jmylchreest/ctclean/cmd/ctclean/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
