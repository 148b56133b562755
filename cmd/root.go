// Package cmd holds the attendance-backend command line.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"attendance-backend/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "attendance-backend",
		Short:         "College attendance capture and reporting",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newReportCmd(), newCalendarCmd())
	return root
}

// Execute runs the command line; with no subcommand it serves HTTP.
// SIGINT and SIGTERM cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

// loadConfig is swapped out in tests.
var loadConfig = config.Load
