package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/kpcl-automation/gatekeeper/internal/config"
	"github.com/kpcl-automation/gatekeeper/internal/model"
	"github.com/kpcl-automation/gatekeeper/internal/portal"
	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login [identity...]",
		Short: "Refresh session cookies through the interactive OTP challenge",
		Long: `Login walks the full portal login challenge for the given accounts.

For each account it establishes a fresh session, requests a one-time
passcode (delivered to the account holder's phone), prompts for the
passcode on the terminal, verifies it, and signs in with the account's
password. On success it prints the new session cookies in a form ready
to paste into the account configuration file.

Scheduled runs never see a passcode prompt; they authenticate with the
cookies this command establishes. Accounts without a password in the
configuration file cannot use this command.

Without arguments, every account that has a password is logged in.

Examples:
  # Refresh cookies for one account
  gatekeeper login userA

  # Refresh cookies for every account with a password
  gatekeeper login`,
		Args: cobra.ArbitraryArgs,
		RunE: runLoginCmd,
	}

	cmd.Flags().StringP("accounts", "a", "",
		"Account configuration file path (default: .gatekeeper.yml in current or home directory)")
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Portal base URL")
	cmd.Flags().Duration("auth-timeout", config.DefaultAuthTimeout,
		"Timeout for each authentication request")

	return cmd
}

// runLoginCmd executes the login command.
func runLoginCmd(cmd *cobra.Command, args []string) error {
	accountsPath, err := cmd.Flags().GetString("accounts")
	if err != nil {
		return err
	}
	baseURL, err := cmd.Flags().GetString("base-url")
	if err != nil {
		return err
	}
	authTimeout, err := cmd.Flags().GetDuration("auth-timeout")
	if err != nil {
		return err
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	cfg := config.NewConfig()
	cfg.AccountsFile = accountsPath
	accounts, path, err := loadAccounts(cfg)
	if err != nil {
		return err
	}

	targets, err := selectLoginAccounts(accounts, args)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logging in %d account(s) from %s\n\n", len(targets), path)

	otp := promptOTPSource(cmd.InOrStdin(), cmd.OutOrStdout())

	var failed int
	for _, account := range targets {
		if err := loginAccount(cmd, account, baseURL, authTimeout, otp, logger); err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "Login failed for %s: %v\n\n", account.Identity, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d login(s) failed", failed, len(targets))
	}
	return nil
}

// selectLoginAccounts picks the accounts to log in: the named identities,
// or every account with a password when no names are given.
func selectLoginAccounts(accounts []model.Account, identities []string) ([]model.Account, error) {
	if len(identities) == 0 {
		var targets []model.Account
		for _, account := range accounts {
			if account.HasCredentials() {
				targets = append(targets, account)
			}
		}
		if len(targets) == 0 {
			return nil, errors.New("no account in the configuration file has a password")
		}
		return targets, nil
	}

	byIdentity := make(map[string]model.Account, len(accounts))
	for _, account := range accounts {
		byIdentity[account.Identity] = account
	}

	targets := make([]model.Account, 0, len(identities))
	for _, identity := range identities {
		account, ok := byIdentity[identity]
		if !ok {
			return nil, fmt.Errorf("account %q not found in the configuration file", identity)
		}
		if !account.HasCredentials() {
			return nil, fmt.Errorf("account %q has no password; the login challenge needs one", identity)
		}
		targets = append(targets, account)
	}
	return targets, nil
}

// promptOTPSource returns an OTP source that prompts on the terminal and
// reads one line from input.
func promptOTPSource(in io.Reader, out io.Writer) portal.OTPSource {
	reader := bufio.NewReader(in)
	return func(_ context.Context, identity string) (string, error) {
		fmt.Fprintf(out, "Enter the OTP sent to the phone for %s: ", identity)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read passcode: %w", err)
		}
		code := strings.TrimSpace(line)
		if code == "" {
			return "", errors.New("empty passcode")
		}
		return code, nil
	}
}

// loginAccount runs the login challenge for one account and prints the
// refreshed cookies as a config snippet ready for the accounts file.
func loginAccount(cmd *cobra.Command, account model.Account, baseURL string, timeout time.Duration, otp portal.OTPSource, logger *slog.Logger) error {
	session, err := portal.NewSession(baseURL)
	if err != nil {
		return err
	}

	auth := portal.NewAuthenticator(session,
		portal.WithAuthTimeout(timeout),
		portal.WithAuthLogger(logger),
	)
	if err := auth.Authenticate(cmd.Context(), account, otp); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nLogin succeeded for %s. Update the accounts file with:\n\n", account.Identity)
	fmt.Fprintf(out, "  - identity: %s\n", account.Identity)
	fmt.Fprintln(out, "    cookies:")

	cookies := session.Cookies()
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "      %s: %q\n", name, cookies[name])
	}
	fmt.Fprintln(out)

	return nil
}
