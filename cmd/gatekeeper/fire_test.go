package main

import (
	"testing"
)

// TestNewFireCmd tests the fire command creation.
func TestNewFireCmd(t *testing.T) {
	t.Parallel()

	cmd := NewFireCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "fire" {
			t.Errorf("expected use 'fire', got %q", cmd.Use)
		}
	})

	t.Run("has portal flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"accounts", "base-url", "auth-timeout", "scrape-timeout", "submit-timeout", "concurrency"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("has no scheduler flags", func(t *testing.T) {
		t.Parallel()
		// A one-shot pass has no trigger instant to wait for.
		if cmd.Flags().Lookup("trigger-at") != nil {
			t.Error("fire must not expose the trigger-at flag")
		}
	})

	t.Run("has otp-stdin flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("otp-stdin") == nil {
			t.Error("expected otp-stdin flag")
		}
	})

	t.Run("has report flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"json", "markdown", "output"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}
