package model

import (
	"testing"
)

// TestMergedFormOrdering verifies that insertion order is preserved and
// that overwriting a value does not move the field.
func TestMergedFormOrdering(t *testing.T) {
	t.Parallel()

	f := NewMergedForm()
	f.Set("gp_flag", "")
	f.Set("tps", "BTPS")
	f.Set("ash_price", "120")
	f.Set("tps", "RTPS") // overwrite, position must not change

	want := []string{"gp_flag", "tps", "ash_price"}
	got := f.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d]: expected %q, got %q", i, want[i], got[i])
		}
	}

	if v, ok := f.Get("tps"); !ok || v != "RTPS" {
		t.Errorf("expected tps=RTPS, got %q (present=%v)", v, ok)
	}
}

// TestMergedFormEmptyValue verifies that an explicit empty-string entry is
// present, not missing. Unchecked checkboxes depend on this distinction.
func TestMergedFormEmptyValue(t *testing.T) {
	t.Parallel()

	f := NewMergedForm()
	f.Set("generate_flyash_gatepass", "")

	if !f.Has("generate_flyash_gatepass") {
		t.Error("expected empty-string field to be present")
	}
	if v, ok := f.Get("generate_flyash_gatepass"); !ok || v != "" {
		t.Errorf("expected empty value, got %q", v)
	}
	if f.Len() != 1 {
		t.Errorf("expected length 1, got %d", f.Len())
	}
}

// TestMergedFormEncode verifies the URL encoding preserves insertion order
// and escapes reserved characters.
func TestMergedFormEncode(t *testing.T) {
	t.Parallel()

	t.Run("preserves insertion order", func(t *testing.T) {
		t.Parallel()

		f := NewMergedForm()
		f.Set("zeta", "1")
		f.Set("alpha", "2")

		if got := f.Encode(); got != "zeta=1&alpha=2" {
			t.Errorf("expected 'zeta=1&alpha=2', got %q", got)
		}
	})

	t.Run("escapes reserved characters", func(t *testing.T) {
		t.Parallel()

		f := NewMergedForm()
		f.Set("vehicle_no", "KA 01 AB&1234")

		if got := f.Encode(); got != "vehicle_no=KA+01+AB%261234" {
			t.Errorf("unexpected encoding %q", got)
		}
	})

	t.Run("identical inputs encode identically", func(t *testing.T) {
		t.Parallel()

		build := func() *MergedForm {
			f := NewMergedForm()
			f.Set("tps", "BTPS")
			f.Set("silo_no", "")
			f.Set("ash_price", "120.5")
			return f
		}

		if a, b := build().Encode(), build().Encode(); a != b {
			t.Errorf("expected byte-identical encodings, got %q and %q", a, b)
		}
	})
}

// TestMergedFormMap verifies that Map returns a detached copy.
func TestMergedFormMap(t *testing.T) {
	t.Parallel()

	f := NewMergedForm()
	f.Set("tps", "BTPS")

	m := f.Map()
	m["tps"] = "mutated"

	if v, _ := f.Get("tps"); v != "BTPS" {
		t.Errorf("mutating the copy changed the form: %q", v)
	}
}
