package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultAccountsFile is the default account configuration file name.
const DefaultAccountsFile = ".gatekeeper.yml"

// ErrAccountsNotFound is returned when the account configuration file
// does not exist.
var ErrAccountsNotFound = errors.New("account configuration file not found")

// LoadAccountsFile loads account records from a YAML file.
// If the file does not exist, it returns ErrAccountsNotFound.
// The file is validated before being returned, so callers can rely on
// identities being present and unique.
func LoadAccountsFile(path string) (*AccountsFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrAccountsNotFound
		}
		return nil, err
	}

	var af AccountsFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return nil, err
	}

	if err := af.Validate(); err != nil {
		return nil, err
	}

	return &af, nil
}

// FindAccountsFile searches for the account configuration file in the
// following order:
// 1. If path is specified, use it directly
// 2. Look for .gatekeeper.yml in the current directory
// 3. Look for .gatekeeper.yml in the user's home directory
//
// Returns the path to the file if found, or empty string if not found.
func FindAccountsFile(path string) string {
	// If explicit path is provided, use it
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultAccountsFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultAccountsFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
