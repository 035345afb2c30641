package main

import (
	"fmt"
	"os"

	"github.com/joseignaciorc/great-expectations/internal/cli"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// Version information (injected via ldflags at build time)
var (
	version   = ir.Version
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	rootCmd := cli.NewRootCommand()
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gx: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
