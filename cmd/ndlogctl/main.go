// Command ndlogctl inspects non-deterministic event logs offline: print
// the header, dump entries one per line, or walk the whole file checking
// it for structural and monotonicity problems.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "ndlogctl",
		Short: "Inspect non-deterministic event logs",
		Long: `ndlogctl reads the binary rr-nondet.log files produced by a recording
session and reports on their contents without needing a running emulator.`,
	}

	root.AddCommand(newHeaderCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newVerifyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
