// Package main provides the entry point for the semloc CLI.
package main

import (
	"os"

	"github.com/llk214/semantic-locator/cmd/semloc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
