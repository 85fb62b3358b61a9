// Package main provides the entry point for the rig game installer CLI.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		printError("%v", err)
		os.Exit(exitCode(err))
	}
}
