package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestValidateCmd tests the validate command against real files.
func TestValidateCmd(t *testing.T) {
	t.Parallel()

	t.Run("valid file prints a summary", func(t *testing.T) {
		t.Parallel()

		path := writeAccountsFile(t, `
accounts:
  - identity: userA
    cookies:
      PHPSESSID: abc123
    overrides:
      vehicle_no: KA01AB1234
  - identity: userB
    password: hunter2
`)

		var buf bytes.Buffer
		cmd := NewValidateCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--accounts", path})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("validate failed: %v", err)
		}

		out := buf.String()
		for _, want := range []string{"OK (2 account(s))", "userA", "userB", "overrides: 1"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q:\n%s", want, out)
			}
		}

		// userB has a password but no cookies yet; the operator should be
		// told scheduled passes will fail.
		if !strings.Contains(out, "warning") {
			t.Errorf("expected a cookie warning for userB:\n%s", out)
		}
	})

	t.Run("duplicate identity fails validation", func(t *testing.T) {
		t.Parallel()

		path := writeAccountsFile(t, `
accounts:
  - identity: userA
    cookies: {PHPSESSID: a}
  - identity: userA
    cookies: {PHPSESSID: b}
`)

		cmd := NewValidateCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--accounts", path})

		if err := cmd.Execute(); err == nil {
			t.Error("expected validation to fail for duplicate identities")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		t.Parallel()

		cmd := NewValidateCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--accounts", "/nonexistent/accounts.yml"})

		if err := cmd.Execute(); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}
