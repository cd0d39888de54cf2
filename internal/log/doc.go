// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, OTP codes, passwords)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie)
//   - Portal session cookies (PHPSESSID and friends)
//   - Passwords and one-time passcodes
//   - Secret values detected by pattern matching (bearer tokens, long opaque strings)
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of portal credentials in logs that may be shared or stored.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("request sent",
//	    "cookie", "PHPSESSID=abc123",  // Will be sanitized
//	    "url", "https://kpcl-ams.com/user/gatepass.php",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
