package model

import (
	"strings"
	"testing"
	"time"
)

// TestStatusRetryable verifies that only network errors are retryable.
// Every other status is terminal for the account's run.
func TestStatusRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		want   bool
	}{
		{StatusSuccess, false},
		{StatusAuthFailed, false},
		{StatusScrapeFailed, false},
		{StatusNetworkError, true},
		{StatusRemoteRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			if got := tt.status.Retryable(); got != tt.want {
				t.Errorf("Retryable(%s): expected %v, got %v", tt.status, tt.want, got)
			}
		})
	}
}

// TestExcerpt verifies the response excerpt bound.
func TestExcerpt(t *testing.T) {
	t.Parallel()

	t.Run("short body is untouched", func(t *testing.T) {
		t.Parallel()
		if got := Excerpt("OTP Verified"); got != "OTP Verified" {
			t.Errorf("expected unchanged body, got %q", got)
		}
	})

	t.Run("long body is truncated to the bound", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("x", MaxResponseExcerpt+50)
		if got := Excerpt(long); len(got) != MaxResponseExcerpt {
			t.Errorf("expected %d bytes, got %d", MaxResponseExcerpt, len(got))
		}
	})
}

// TestRunReportCounts verifies success and failure tallies.
func TestRunReportCounts(t *testing.T) {
	t.Parallel()

	report := NewRunReport(TriggerManual)
	report.Outcomes = []SubmissionOutcome{
		{Identity: "userA", Status: StatusSuccess},
		{Identity: "userB", Status: StatusAuthFailed},
		{Identity: "userC", Status: StatusRemoteRejected},
	}

	if got := report.Succeeded(); got != 1 {
		t.Errorf("expected 1 success, got %d", got)
	}
	if got := report.Failed(); got != 2 {
		t.Errorf("expected 2 failures, got %d", got)
	}
}

// TestRunReportDuration verifies elapsed time computation.
func TestRunReportDuration(t *testing.T) {
	t.Parallel()

	report := NewRunReport(TriggerScheduled)
	report.StartedAt = time.Date(2025, 1, 2, 6, 59, 59, 0, time.UTC)
	report.FinishedAt = report.StartedAt.Add(3 * time.Second)

	if got := report.Duration(); got != 3*time.Second {
		t.Errorf("expected 3s, got %v", got)
	}
}
