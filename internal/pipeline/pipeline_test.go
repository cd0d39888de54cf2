package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kpcl-automation/gatekeeper/internal/model"
	"github.com/kpcl-automation/gatekeeper/internal/portal"
	"github.com/kpcl-automation/gatekeeper/internal/scrape"
)

// fakeStep is a configurable step for pipeline tests.
type fakeStep struct {
	name string
	err  error
	do   func(task *Task)
	runs int
}

func (s *fakeStep) Name() string { return s.name }

func (s *fakeStep) Do(_ context.Context, task *Task) error {
	s.runs++
	if s.do != nil {
		s.do(task)
	}
	return s.err
}

// recordOutcome returns a step that stores a success outcome, standing in
// for the submit step.
func recordOutcome(identity string) *fakeStep {
	return &fakeStep{
		name: "submit",
		do: func(task *Task) {
			task.Outcome = &model.SubmissionOutcome{
				Identity:  identity,
				Status:    model.StatusSuccess,
				Timestamp: time.Now(),
			}
		},
	}
}

// TestPipelineExecuteRunsStepsInOrder tests ordering and the recorded
// outcome of a clean pass.
func TestPipelineExecuteRunsStepsInOrder(t *testing.T) {
	t.Parallel()

	var order []string
	first := &fakeStep{name: "session", do: func(*Task) { order = append(order, "session") }}
	second := &fakeStep{name: "reconcile", do: func(*Task) { order = append(order, "reconcile") }}
	third := recordOutcome("userA")

	p := New()
	p.AddSteps(first, second, third)

	outcome := p.Execute(context.Background(), model.Account{Identity: "userA"})

	if outcome.Status != model.StatusSuccess {
		t.Errorf("expected success outcome, got %s", outcome.Status)
	}
	if len(order) != 2 || order[0] != "session" || order[1] != "reconcile" {
		t.Errorf("steps ran out of order: %v", order)
	}
	if got := p.StepNames(); len(got) != 3 || got[2] != "submit" {
		t.Errorf("unexpected step names %v", got)
	}
}

// TestPipelineExecuteStopsOnFirstError tests that a failed step ends the
// pass and later steps never run.
func TestPipelineExecuteStopsOnFirstError(t *testing.T) {
	t.Parallel()

	failing := &fakeStep{name: "session", err: fmt.Errorf("boom: %w", portal.ErrAuthFailed)}
	later := recordOutcome("userA")

	p := New()
	p.AddSteps(failing, later)

	outcome := p.Execute(context.Background(), model.Account{Identity: "userA"})

	if later.runs != 0 {
		t.Error("steps after a failure must not run")
	}
	if outcome.Status != model.StatusAuthFailed {
		t.Errorf("expected auth-failed, got %s", outcome.Status)
	}
	if outcome.Identity != "userA" {
		t.Errorf("synthesized outcome lost identity: %q", outcome.Identity)
	}
	if outcome.ResponseExcerpt == "" {
		t.Error("expected the step error recorded in the excerpt")
	}
	if outcome.Timestamp.IsZero() {
		t.Error("expected a synthesized timestamp")
	}
}

// TestPipelineExecuteCancelledContext tests that cancellation before a
// step still yields an outcome.
func TestPipelineExecuteCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	step := recordOutcome("userA")
	p := New()
	p.AddStep(step)

	outcome := p.Execute(ctx, model.Account{Identity: "userA"})

	if step.runs != 0 {
		t.Error("no step should run after cancellation")
	}
	if outcome.Status != model.StatusNetworkError {
		t.Errorf("expected network-error for cancellation, got %s", outcome.Status)
	}
}

// TestPipelineExecuteMissingSubmit tests the guard against a pipeline
// wired without a submitting step.
func TestPipelineExecuteMissingSubmit(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&fakeStep{name: "session"})

	outcome := p.Execute(context.Background(), model.Account{Identity: "userA"})
	if outcome.Status != model.StatusNetworkError {
		t.Errorf("expected an error outcome, got %s", outcome.Status)
	}
}

// TestStatusFromError pins the error-to-status taxonomy.
func TestStatusFromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want model.Status
	}{
		{"wrapped auth failure", fmt.Errorf("sign-in rejected: %w", portal.ErrAuthFailed), model.StatusAuthFailed},
		{"missing otp source", portal.ErrNoOTP, model.StatusAuthFailed},
		{"scrape failure", fmt.Errorf("status 503: %w", scrape.ErrScrapeFailed), model.StatusScrapeFailed},
		{"expired session is a scrape failure", scrape.ErrSessionExpired, model.StatusScrapeFailed},
		{"plain transport error", errors.New("connection refused"), model.StatusNetworkError},
		{"context deadline", context.DeadlineExceeded, model.StatusNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StatusFromError(tt.err); got != tt.want {
				t.Errorf("StatusFromError(%v): expected %s, got %s", tt.err, tt.want, got)
			}
		})
	}
}
