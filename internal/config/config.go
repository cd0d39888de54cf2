package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The portal URLs and timeouts reproduce the values the remote system is
// known to accept; the scheduling defaults match the portal's daily
// submission window.
const (
	// DefaultBaseURL is the portal base URL. It is configurable so tests
	// can point the whole stack at a local httptest server.
	DefaultBaseURL = "https://kpcl-ams.com"

	// DefaultLoginPath is the page that establishes the initial session
	// cookie. The sign-in POST goes to the same path.
	DefaultLoginPath = "/signin_page.php"

	// DefaultOTPRequestPath receives the OTP-request POST.
	DefaultOTPRequestPath = "/send_otp.php"

	// DefaultOTPVerifyPath receives the OTP-verify POST.
	DefaultOTPVerifyPath = "/verify_otp.php"

	// DefaultFormPath is the gatepass form page that reconciliation scrapes.
	DefaultFormPath = "/user/gatepass.php"

	// DefaultSubmitPath receives the final form submission.
	DefaultSubmitPath = "/user/proof_uploade_code.php"

	// DefaultAuthTimeout bounds each authentication request. The portal
	// answers login calls quickly; 10 seconds matches its observed behavior.
	DefaultAuthTimeout = 10 * time.Second

	// DefaultScrapeTimeout bounds the form page fetch. The gatepass page
	// is heavier than the login pages, so it gets a larger budget.
	DefaultScrapeTimeout = 30 * time.Second

	// DefaultSubmitTimeout bounds the final submission POST. Each network
	// call carries its own timeout so one unreachable account cannot
	// stall a batch indefinitely.
	DefaultSubmitTimeout = 30 * time.Second

	// DefaultTriggerAt is the daily wall-clock firing time in hh:mm:ss.
	// The portal opens its submission window at 07:00:00; firing one
	// second early lands the submissions at the front of the queue.
	DefaultTriggerAt = "06:59:59"

	// DefaultLivenessInterval is how often the idle scheduler logs that
	// it is alive and when it will fire next.
	DefaultLivenessInterval = time.Hour

	// DefaultConcurrency is the maximum number of account tasks running
	// at once. Account lists are small; this is a safety bound, not a
	// throughput knob.
	DefaultConcurrency = 10

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB is sufficient for the portal's HTML while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "gatekeeper"
)

// Config holds all configuration options for Gatekeeper.
// This struct is designed to be populated from CLI flags and passed
// through the application via dependency injection rather than global
// state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., PortalConfig, ScheduleConfig) for simplicity. The number of
// options is manageable, and nesting would add complexity without
// significant benefit.
type Config struct {
	// BaseURL is the portal base URL, without a trailing slash.
	BaseURL string

	// AccountsFile is the path to the YAML account configuration file.
	// If empty, the tool searches for .gatekeeper.yml in the current
	// directory and then in the user's home directory.
	AccountsFile string

	// TriggerAt is the daily firing time in "hh:mm:ss" form.
	TriggerAt string

	// LivenessInterval is how often the idle loop reports liveness.
	LivenessInterval time.Duration

	// AuthTimeout bounds each authentication network call.
	AuthTimeout time.Duration

	// ScrapeTimeout bounds the form page fetch.
	ScrapeTimeout time.Duration

	// SubmitTimeout bounds the final submission POST.
	SubmitTimeout time.Duration

	// Concurrency is the maximum number of account tasks running at once.
	Concurrency int

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated.
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON run-report output instead of the
	// human-readable format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown run-report output instead of the
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for run reports. When set, the
	// report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory path for the SQLite history database.
	// When empty, outcomes are not persisted.
	DBDir string

	// SaveToDB indicates whether to save run outcomes to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (URLs, timeouts).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		BaseURL:          DefaultBaseURL,
		TriggerAt:        DefaultTriggerAt,
		LivenessInterval: DefaultLivenessInterval,
		AuthTimeout:      DefaultAuthTimeout,
		ScrapeTimeout:    DefaultScrapeTimeout,
		SubmitTimeout:    DefaultSubmitTimeout,
		Concurrency:      DefaultConcurrency,
		MaxBodySize:      DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for Gatekeeper.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/gatekeeper
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for Gatekeeper.
// On Linux: ~/.config/gatekeeper
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any scheduling begins.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}

	if _, _, _, err := ParseTriggerAt(c.TriggerAt); err != nil {
		return err
	}

	// Timeouts must be positive; zero would cause immediate failures
	if c.AuthTimeout <= 0 || c.ScrapeTimeout <= 0 || c.SubmitTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.LivenessInterval <= 0 {
		return ErrInvalidLivenessInterval
	}

	return nil
}
