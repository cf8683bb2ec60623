// Command smithy is the CLI entry point for this module: expand
// file/directory arguments, assemble a model, and run a query, transform,
// or build plugin against it, all wired through github.com/spf13/cobra's
// command tree.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/smithy-lang/smithy-model-core/internal/diag"
)

var log = logrus.New()

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   "smithy",
		Short: "Load, validate, query, transform, and build Smithy models",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.AddCommand(
		newValidateCmd(),
		newASTCmd(),
		newIDLCmd(),
		newListCmd(),
		newSelectCmd(),
		newBuildCmd(),
	)
	return root
}

func printEvents(events []diag.Event) {
	for _, e := range events {
		fmt.Fprintln(os.Stderr, e.String())
	}
}
