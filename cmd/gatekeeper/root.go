// Package main provides the entry point for the Gatekeeper CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for Gatekeeper.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatekeeper",
		Short: "Daily gatepass submission automation for the KPCL AMS portal",
		Long: `Gatekeeper automates the daily gatepass submission workflow.

It keeps one authenticated session per configured account, scrapes the
live gatepass form to pick up server-rendered values, applies per-account
overrides, and submits every account concurrently at 06:59:59 - one
second before the portal opens its daily window.

Accounts are configured in a YAML file (.gatekeeper.yml). Scheduled runs
authenticate with stored session cookies; use the login command to
refresh cookies through the interactive OTP challenge.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewFireCmd())
	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
