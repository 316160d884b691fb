package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fntelecomllc/zonepipe/internal/credstore"
	"github.com/fntelecomllc/zonepipe/internal/errs"
)

func newCredentialsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "credentials", Short: "Inspect and refresh stored service credentials"}
	cmd.AddCommand(newCredentialsCheckCommand())
	cmd.AddCommand(newCredentialsRefreshCommand())
	return cmd
}

func newCredentialsCheckCommand() *cobra.Command {
	var service, account string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Emit a service's credential status",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			a, err := buildApp(configPath)
			if err != nil {
				exitCode = 8
				return err
			}

			policy, ok := a.cfg.PolicyFor(service)
			if !ok {
				exitCode = 8
				return fmt.Errorf("credentials check: no policy configured for service %q", service)
			}

			status := a.creds.Status(service, account, policy)
			fmt.Println(status)

			switch status {
			case credstore.StatusValid:
				exitCode = 0
			case credstore.StatusExpiringSoon:
				exitCode = 6
			case credstore.StatusExpired:
				exitCode = 7
			case credstore.StatusMissing:
				exitCode = 8
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&service, "service", "", "service name")
	cmd.Flags().StringVar(&account, "account", "", "account name (default account when omitted)")
	cmd.MarkFlagRequired("service")
	return cmd
}

func newCredentialsRefreshCommand() *cobra.Command {
	var service, account string
	var all bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-acquire credentials, interactively only when the stored ones fail silent validation",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			a, err := buildApp(configPath)
			if err != nil {
				exitCode = 9
				return err
			}

			policy, ok := a.cfg.PolicyFor(service)
			if !ok {
				exitCode = 9
				return fmt.Errorf("credentials refresh: no policy configured for service %q", service)
			}

			accounts := []string{account}
			if all {
				accounts = policy.EffectiveAccounts()
			}

			for _, acc := range accounts {
				if _, err := a.acquirer.Acquire(context.Background(), service, acc); err != nil {
					exitCode = 9
					if kind, ok := errs.As(err); ok {
						return fmt.Errorf("credentials refresh: %s: %w", kind, err)
					}
					return err
				}
			}
			exitCode = 0
			return nil
		},
	}
	cmd.Flags().StringVar(&service, "service", "", "service name")
	cmd.Flags().StringVar(&account, "account", "", "account name (default account when omitted)")
	cmd.Flags().BoolVar(&all, "all", false, "refresh every configured account for the service")
	cmd.MarkFlagRequired("service")
	return cmd
}
