package main

import (
	"fmt"
	"os"

	"marketsched/internal/cmd"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := cmd.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
