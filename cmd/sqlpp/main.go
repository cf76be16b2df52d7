// Package main is the entry point for the sqlpp binary.
package main

import (
	"os"

	"sqlpp/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
