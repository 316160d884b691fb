package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fntelecomllc/zonepipe/internal/health"
)

func newStatusCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Compute and emit the latest Health Snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			a, err := buildApp(configPath)
			if err != nil {
				exitCode = 5
				return err
			}

			snap, err := a.monitor.Snapshot(context.Background())
			if err != nil {
				exitCode = 5
				return err
			}
			if err := health.SaveSnapshot(a.layout, snap); err != nil {
				a.logger.Warn("status: failed to persist snapshot", zap.Error(err))
			}

			if asJSON {
				b, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					exitCode = 5
					return err
				}
				fmt.Println(string(b))
			} else {
				printHumanSnapshot(snap)
			}

			switch snap.OverallStatus {
			case health.StatusFailed:
				exitCode = 5
			case health.StatusCritical:
				exitCode = 4
			default:
				exitCode = 0
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the snapshot as JSON")
	return cmd
}

func printHumanSnapshot(snap health.Snapshot) {
	fmt.Printf("overall: %s (taken at %s)\n", snap.OverallStatus, snap.TakenAt.Format("2006-01-02T15:04:05Z07:00"))
	for _, s := range snap.Services {
		fmt.Printf("  %-20s %-10s score=%-3d bottlenecks=%d\n", s.Service, s.Status, s.HealthScore, len(s.Bottlenecks))
		for _, rec := range s.Recommendations {
			fmt.Printf("    - %s\n", rec)
		}
	}
}
