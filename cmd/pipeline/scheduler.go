package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fntelecomllc/zonepipe/internal/health"
)

func newSchedulerCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "scheduler", Short: "Manage the cron-backed orchestration scheduler"}
	cmd.AddCommand(newSchedulerDaemonCommand())
	return cmd
}

func newSchedulerDaemonCommand() *cobra.Command {
	var cronExpr string
	var healthAddr string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the scheduler and health HTTP surface until signaled to stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			a, err := buildApp(configPath)
			if err != nil {
				exitCode = 1
				return err
			}

			if err := a.sched.Start(cronExpr); err != nil {
				exitCode = 1
				return err
			}
			defer a.sched.Stop()

			srv := health.NewServer(a.monitor, a.logger)
			httpServer := &http.Server{Addr: healthAddr, Handler: srv.Handler()}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				ticker := time.NewTicker(1 * time.Minute)
				defer ticker.Stop()
				for {
					if err := srv.Refresh(ctx); err != nil {
						a.logger.Warn("scheduler daemon: health refresh failed", zap.Error(err))
					}
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
					}
				}
			}()

			go func() {
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					a.logger.Error("scheduler daemon: health server exited", zap.Error(err))
				}
			}()

			<-ctx.Done()
			a.logger.Info("scheduler daemon: shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("scheduler daemon: health server shutdown error", zap.Error(err))
			}

			exitCode = 0
			return nil
		},
	}
	cmd.Flags().StringVar(&cronExpr, "cron", "@every 1h", "cron expression driving the fixed orchestration trigger")
	cmd.Flags().StringVar(&healthAddr, "health-addr", ":8090", "listen address for the /healthz and /metrics endpoints")
	return cmd
}
