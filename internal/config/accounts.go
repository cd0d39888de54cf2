package config

import (
	"fmt"

	"github.com/kpcl-automation/gatekeeper/internal/model"
)

// AccountRecord holds the configuration for a single portal account.
type AccountRecord struct {
	// Identity is the portal username. Required and unique.
	Identity string `yaml:"identity"`

	// Password is the portal password. Only needed for the interactive
	// OTP login flow; scheduled runs work from cookies alone.
	Password string `yaml:"password,omitempty"`

	// Cookies holds the pre-established session cookies, e.g.
	// PHPSESSID. Required for scheduled runs.
	Cookies map[string]string `yaml:"cookies"`

	// Overrides maps form field names to values that take precedence
	// over anything scraped from the live form.
	Overrides map[string]string `yaml:"overrides,omitempty"`
}

// AccountDefaults contains default settings applied to all accounts
// unless overridden in the account-specific record.
type AccountDefaults struct {
	// Overrides are default form field overrides shared by every
	// account. Account-specific overrides win on conflict.
	Overrides map[string]string `yaml:"overrides,omitempty"`
}

// AccountsFile represents the structure of the .gatekeeper.yml account
// configuration file.
type AccountsFile struct {
	// Accounts lists the configured portal accounts. Order matters: the
	// run report lists outcomes in this order.
	Accounts []AccountRecord `yaml:"accounts"`

	// Defaults contains default settings applied to all accounts.
	Defaults AccountDefaults `yaml:"defaults,omitempty"`
}

// Validate checks the structural integrity of the account file.
// It returns the first problem found, wrapped with the offending
// account's position so the user can find it in the file.
func (f *AccountsFile) Validate() error {
	if len(f.Accounts) == 0 {
		return ErrNoAccounts
	}

	seen := make(map[string]bool, len(f.Accounts))
	for i, rec := range f.Accounts {
		if rec.Identity == "" {
			return fmt.Errorf("account %d: %w", i+1, ErrMissingIdentity)
		}
		if seen[rec.Identity] {
			return fmt.Errorf("account %d (%s): %w", i+1, rec.Identity, ErrDuplicateIdentity)
		}
		seen[rec.Identity] = true

		// An account needs either live session cookies (scheduled runs)
		// or a password (interactive OTP login establishes the cookies).
		if len(rec.Cookies) == 0 && rec.Password == "" {
			return fmt.Errorf("account %d (%s): %w", i+1, rec.Identity, ErrMissingCookies)
		}
	}

	return nil
}

// ResolveAccounts converts the file records into model accounts, merging
// the default overrides under each account's own. The returned slice
// preserves file order.
func (f *AccountsFile) ResolveAccounts() []model.Account {
	accounts := make([]model.Account, 0, len(f.Accounts))
	for _, rec := range f.Accounts {
		accounts = append(accounts, model.Account{
			Identity:  rec.Identity,
			Password:  rec.Password,
			Cookies:   copyMap(rec.Cookies),
			Overrides: f.mergedOverrides(rec),
		})
	}
	return accounts
}

// mergedOverrides layers the account-specific overrides over the file
// defaults. The account value wins on conflict.
func (f *AccountsFile) mergedOverrides(rec AccountRecord) map[string]string {
	if len(f.Defaults.Overrides) == 0 {
		return copyMap(rec.Overrides)
	}

	merged := copyMap(f.Defaults.Overrides)
	for k, v := range rec.Overrides {
		merged[k] = v
	}
	return merged
}

// copyMap returns a detached copy of a string map, or nil for empty input.
func copyMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
