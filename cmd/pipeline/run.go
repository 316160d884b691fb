package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fntelecomllc/zonepipe/internal/orchestrator"
)

func newRunCommand() *cobra.Command {
	var services string
	var noExtractors bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Invoke the Service Orchestrator for one pass over the configured services",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			a, err := buildApp(configPath)
			if err != nil {
				exitCode = 3
				return err
			}

			opts := orchestrator.RunOptions{NoExtractors: noExtractors}
			if services != "" {
				opts.Services = strings.Split(services, ",")
			}

			report, err := a.orch.Run(context.Background(), opts)
			if err != nil {
				exitCode = 3
				return err
			}

			switch {
			case report.AllFailed():
				exitCode = 3
			case report.Failed():
				exitCode = 2
			default:
				exitCode = 0
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&services, "services", "", "comma-separated service allow-list")
	cmd.Flags().BoolVar(&noExtractors, "no-extractors", false, "skip the extractor phase and only run cleaners")
	return cmd
}
