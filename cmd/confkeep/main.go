// Package main is the entry point for the confkeep CLI.
package main

import (
	"fmt"
	"os"

	"github.com/thoreinstein/confkeep/cmd/confkeep/commands"
	"github.com/thoreinstein/confkeep/internal/errors"
)

func main() {
	if err := commands.Execute(); err != nil {
		exitErr := errors.Classify(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr)
		if exitErr.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", exitErr.Suggestion)
		}
		os.Exit(exitErr.Code)
	}
}
