package history

import (
	"context"
	"testing"
	"time"

	"github.com/kpcl-automation/gatekeeper/internal/model"
)

// openTestDB opens a fresh database in a temp directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

// sampleReport builds a two-account run report.
func sampleReport(trigger string) *model.RunReport {
	started := time.Date(2026, 3, 10, 6, 59, 59, 0, time.UTC)
	return &model.RunReport{
		Trigger:    trigger,
		StartedAt:  started,
		FinishedAt: started.Add(4 * time.Second),
		Outcomes: []model.SubmissionOutcome{
			{
				Identity:        "userA",
				Status:          model.StatusSuccess,
				HTTPStatus:      200,
				Latency:         850 * time.Millisecond,
				ResponseExcerpt: "Gatepass generated successfully",
				Timestamp:       started.Add(time.Second),
			},
			{
				Identity:        "userB",
				Status:          model.StatusScrapeFailed,
				ResponseExcerpt: "form page redirected for userB: session expired",
				Timestamp:       started.Add(2 * time.Second),
			},
		},
	}
}

// TestSaveAndGetRun tests the round trip of a full run report.
func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.SaveRun(ctx, sampleReport(model.TriggerScheduled))
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	got, err := db.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got == nil {
		t.Fatal("expected a stored run")
	}

	if got.Trigger != model.TriggerScheduled {
		t.Errorf("expected scheduled trigger, got %q", got.Trigger)
	}
	if len(got.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(got.Outcomes))
	}
	if got.Outcomes[0].Identity != "userA" || got.Outcomes[1].Identity != "userB" {
		t.Errorf("outcome order lost: %v", got.Outcomes)
	}
	if got.Outcomes[0].Status != model.StatusSuccess {
		t.Errorf("expected success for userA, got %s", got.Outcomes[0].Status)
	}
	if got.Outcomes[0].Latency != 850*time.Millisecond {
		t.Errorf("latency round trip failed: %v", got.Outcomes[0].Latency)
	}
	if got.Outcomes[1].ResponseExcerpt == "" {
		t.Error("expected the failure excerpt stored")
	}
	if !got.StartedAt.Equal(time.Date(2026, 3, 10, 6, 59, 59, 0, time.UTC)) {
		t.Errorf("start time round trip failed: %v", got.StartedAt)
	}
}

// TestGetRunMissing tests the nil-without-error contract for unknown IDs.
func TestGetRunMissing(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	got, err := db.GetRun(context.Background(), 9999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil for a missing run")
	}
}

// TestRecentRuns tests ordering and the per-run success counts.
func TestRecentRuns(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveRun(ctx, sampleReport(model.TriggerScheduled)); err != nil {
		t.Fatalf("failed to save first run: %v", err)
	}
	if _, err := db.SaveRun(ctx, sampleReport(model.TriggerManual)); err != nil {
		t.Fatalf("failed to save second run: %v", err)
	}

	runs, err := db.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}

	// Newest first.
	if runs[0].Trigger != model.TriggerManual {
		t.Errorf("expected newest run first, got %q", runs[0].Trigger)
	}
	if runs[0].Succeeded != 1 || runs[0].Failed != 1 {
		t.Errorf("expected 1/1 counts, got %d/%d", runs[0].Succeeded, runs[0].Failed)
	}
}

// TestRecentRunsLimit tests the limit clamp.
func TestRecentRunsLimit(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	for range 3 {
		if _, err := db.SaveRun(ctx, sampleReport(model.TriggerScheduled)); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}

	runs, err := db.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs with limit 2, got %d", len(runs))
	}
}

// TestIdentityHistory tests per-account outcome queries.
func TestIdentityHistory(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveRun(ctx, sampleReport(model.TriggerScheduled)); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	if _, err := db.SaveRun(ctx, sampleReport(model.TriggerScheduled)); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	outcomes, err := db.IdentityHistory(ctx, "userB", 10)
	if err != nil {
		t.Fatalf("failed to query identity history: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes for userB, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Identity != "userB" {
			t.Errorf("expected only userB outcomes, got %s", o.Identity)
		}
		if o.Status != model.StatusScrapeFailed {
			t.Errorf("expected scrape-failed, got %s", o.Status)
		}
	}

	none, err := db.IdentityHistory(ctx, "nobody", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no outcomes for unknown identity, got %d", len(none))
	}
}

// TestOpenWithoutCreate tests that mode=rw refuses a missing database.
func TestOpenWithoutCreate(t *testing.T) {
	t.Parallel()

	_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
	if err == nil {
		t.Fatal("expected an error opening a missing database")
	}
}
