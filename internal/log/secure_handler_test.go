package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandler_SanitizesSensitiveKeys tests that sensitive keys are sanitized.
func TestSecureHandler_SanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{
			name:     "cookie key is sanitized",
			key:      "cookie",
			value:    "PHPSESSID=abc123",
			wantMask: true,
		},
		{
			name:     "Cookie key (uppercase) is sanitized",
			key:      "Cookie",
			value:    "PHPSESSID=abc123",
			wantMask: true,
		},
		{
			name:     "phpsessid key is sanitized",
			key:      "phpsessid",
			value:    "9f86d081884c",
			wantMask: true,
		},
		{
			name:     "password key is sanitized",
			key:      "password",
			value:    "secretpassword",
			wantMask: true,
		},
		{
			name:     "otp key is sanitized",
			key:      "otp",
			value:    "483920",
			wantMask: true,
		},
		{
			name:     "otp_code key is sanitized",
			key:      "otp_code",
			value:    "483920",
			wantMask: true,
		},
		{
			name:     "session_id key is sanitized",
			key:      "session_id",
			value:    "sess_12345",
			wantMask: true,
		},
		{
			name:     "authorization key is sanitized",
			key:      "authorization",
			value:    "Bearer token123",
			wantMask: true,
		},
		{
			name:     "identity key is NOT sanitized",
			key:      "identity",
			value:    "userA",
			wantMask: false,
		},
		{
			name:     "url key is NOT sanitized",
			key:      "url",
			value:    "https://kpcl-ams.com/user/gatepass.php",
			wantMask: false,
		},
		{
			name:     "status_code key is NOT sanitized",
			key:      "status_code",
			value:    "200",
			wantMask: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			handler := NewSecureHandler(slog.NewTextHandler(&buf, nil))
			logger := slog.New(handler)

			logger.Info("test message", tt.key, tt.value)

			output := buf.String()
			if tt.wantMask {
				if !strings.Contains(output, MaskValue) {
					t.Errorf("expected %q to be masked, got output: %s", tt.key, output)
				}
				if strings.Contains(output, tt.value) {
					t.Errorf("sensitive value %q leaked into output: %s", tt.value, output)
				}
			} else {
				if strings.Contains(output, MaskValue) {
					t.Errorf("expected %q not to be masked, got output: %s", tt.key, output)
				}
			}
		})
	}
}

// TestSecureHandler_SanitizesSensitiveValues tests pattern-based sanitization.
func TestSecureHandler_SanitizesSensitiveValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		wantMask bool
	}{
		{
			name:     "cookie pair with PHPSESSID is masked",
			value:    "PHPSESSID=9f86d081884c7d65",
			wantMask: true,
		},
		{
			name:     "bearer token is masked",
			value:    "Bearer eyJhbGciOiJIUzI1NiJ9",
			wantMask: true,
		},
		{
			name:     "long opaque string is masked",
			value:    strings.Repeat("a1b2", 10),
			wantMask: true,
		},
		{
			name:     "short plain value is untouched",
			value:    "BTPS",
			wantMask: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			handler := NewSecureHandler(slog.NewTextHandler(&buf, nil))
			logger := slog.New(handler)

			// Use a neutral key so only value patterns trigger masking.
			logger.Info("test message", "detail", tt.value)

			output := buf.String()
			if tt.wantMask && !strings.Contains(output, MaskValue) {
				t.Errorf("expected value %q to be masked, got output: %s", tt.value, output)
			}
			if !tt.wantMask && strings.Contains(output, MaskValue) {
				t.Errorf("expected value %q not to be masked, got output: %s", tt.value, output)
			}
		})
	}
}

// TestSecureHandler_Groups tests that attributes inside groups are sanitized.
func TestSecureHandler_Groups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := NewSecureHandler(slog.NewTextHandler(&buf, nil))
	logger := slog.New(handler)

	logger.Info("login attempt",
		slog.Group("account",
			slog.String("identity", "userA"),
			slog.String("password", "hunter2"),
		),
	)

	output := buf.String()
	if strings.Contains(output, "hunter2") {
		t.Errorf("password inside group leaked: %s", output)
	}
	if !strings.Contains(output, "userA") {
		t.Errorf("non-sensitive group attribute was lost: %s", output)
	}
}

// TestNewSecureLogger tests logger construction and level behavior.
func TestNewSecureLogger(t *testing.T) {
	t.Parallel()

	t.Run("verbose logger emits debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)
		logger.Debug("debug message")

		if !strings.Contains(buf.String(), "debug message") {
			t.Error("expected debug message in verbose mode")
		}
	})

	t.Run("non-verbose logger suppresses info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, false)
		logger.Info("info message")

		if buf.Len() != 0 {
			t.Errorf("expected no output at info level, got: %s", buf.String())
		}
	})
}
