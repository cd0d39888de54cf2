package main

import (
	"fmt"

	"github.com/kpcl-automation/gatekeeper/internal/config"
	"github.com/spf13/cobra"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the account configuration file",
		Long: `Validate loads the account configuration file and checks it for
problems: missing identities, duplicate identities, and accounts with
neither session cookies nor a password.

On success it prints a summary of every configured account so an
operator can confirm the file says what they think it says before the
next scheduled pass.

Examples:
  # Validate .gatekeeper.yml from the current or home directory
  gatekeeper validate

  # Validate a specific file
  gatekeeper validate --accounts /etc/gatekeeper/accounts.yml`,
		Args: cobra.NoArgs,
		RunE: runValidateCmd,
	}

	cmd.Flags().StringP("accounts", "a", "",
		"Account configuration file path (default: .gatekeeper.yml in current or home directory)")

	return cmd
}

// runValidateCmd executes the validate command.
func runValidateCmd(cmd *cobra.Command, _ []string) error {
	accountsPath, err := cmd.Flags().GetString("accounts")
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	cfg.AccountsFile = accountsPath
	accounts, path, err := loadAccounts(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: OK (%d account(s))\n\n", path, len(accounts))

	for _, account := range accounts {
		fmt.Fprintf(out, "  %s\n", account.Identity)
		fmt.Fprintf(out, "    cookies:   %d\n", len(account.Cookies))
		if account.HasCredentials() {
			fmt.Fprintln(out, "    password:  set (login command available)")
		} else {
			fmt.Fprintln(out, "    password:  not set (cookie-only)")
		}
		fmt.Fprintf(out, "    overrides: %d\n", len(account.Overrides))

		// Scheduled runs need cookies; a password alone only helps the
		// interactive login flow.
		if len(account.Cookies) == 0 {
			fmt.Fprintf(out, "    warning:   no session cookies; scheduled passes will fail until %q is logged in\n",
				account.Identity)
		}
	}

	return nil
}
