package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "plumbscan",
		Short:         "Find and classify plumbing sheets in a PDF drawing set",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(processCmd())
	root.AddCommand(scanCmd())

	return root
}
