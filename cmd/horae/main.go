package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "horae",
		Short: "Weekly planner and work-session keeper",
	}
	root.AddCommand(
		newServeCmd(),
		newPlanCmd(),
		newRunnerCmd(),
	)
	return root
}
