package main

import (
	"os"

	"github.com/aristath/quantpick/cmd/picker/commands"
)

// main is the entry point for the picker CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
