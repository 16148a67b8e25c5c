package main

import (
	"context"
	"errors"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/horae/internal/runner"
)

func newRunnerCmd() *cobra.Command {
	var serverURL, user string
	cmd := &cobra.Command{
		Use:   "runner",
		Short: "Track the current work session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return errors.New("runner needs an interactive terminal")
			}
			client := runner.NewClient(serverURL, user)
			return runner.Run(context.Background(), client)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "horae server URL")
	cmd.Flags().StringVar(&user, "user", "default", "user to act as")
	return cmd
}
