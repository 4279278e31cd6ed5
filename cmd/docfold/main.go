// Command docfold is the entry point for the docfold document chat backend.
// It provides a CLI interface (via Cobra) and an HTTP server exposing the
// document and chat API.
package main

import (
	"fmt"
	"os"

	"github.com/docfold/docfold/cmd/docfold/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
