package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and AccountsFile.Validate()
// and provide specific information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances at each validation site. This allows callers
// to use errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoBaseURL is returned when the portal base URL is empty.
	ErrNoBaseURL = errors.New("no portal base URL configured")

	// ErrInvalidTriggerTime is returned when the daily trigger time is not
	// a valid hh:mm:ss wall-clock time.
	ErrInvalidTriggerTime = errors.New("invalid trigger time: must be hh:mm:ss")

	// ErrInvalidTimeout is returned when a network timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the task concurrency bound is
	// not positive. Zero concurrency would mean no account ever runs.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidLivenessInterval is returned when the idle liveness
	// reporting interval is not positive.
	ErrInvalidLivenessInterval = errors.New("invalid liveness interval: must be positive")

	// ErrNoAccounts is returned when the account file contains no accounts.
	ErrNoAccounts = errors.New("no accounts configured")

	// ErrMissingIdentity is returned when an account record has no identity.
	ErrMissingIdentity = errors.New("account missing identity")

	// ErrMissingCookies is returned when an account record has neither
	// session cookies nor a password. Scheduled runs authenticate with
	// cookies; the interactive login flow needs at least a password.
	ErrMissingCookies = errors.New("account missing session cookies and password")

	// ErrDuplicateIdentity is returned when two account records share the
	// same identity. Sessions are keyed per account and must not be shared.
	ErrDuplicateIdentity = errors.New("duplicate account identity")
)
