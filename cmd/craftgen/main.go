// Package main is the entry point for the craftgen desktop shell.
package main

import (
	"os"

	"github.com/craftgen/craftgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
