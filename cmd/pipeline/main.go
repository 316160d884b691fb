// Command pipeline is the CLI surface for the zone pipeline ingestion
// engine (SPEC_FULL.md §6.1): run, status, credentials check/refresh, and
// the cron-backed scheduler daemon, built with spf13/cobra.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exitCode is set by whichever subcommand ran and read by main after
// Execute returns, so exit codes can follow the table in spec.md §6
// instead of cobra's generic 0/1 success/error split.
var exitCode int

func main() {
	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "Zone pipeline ingestion engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "config/services.yaml", "path to the service policy document")

	root.AddCommand(newRunCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newCredentialsCommand())
	root.AddCommand(newSchedulerCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}
