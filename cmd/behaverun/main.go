// Package main is the entry point for the behaverun CLI.
package main

import (
	"os"

	"github.com/jimasp/behave-vsc-sub002/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
