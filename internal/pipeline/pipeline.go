package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kpcl-automation/gatekeeper/internal/model"
	"github.com/kpcl-automation/gatekeeper/internal/portal"
	"github.com/kpcl-automation/gatekeeper/internal/scrape"
)

// Task carries one account's state through a submission pass. Steps fill
// the fields in order: Session after authentication, Form after
// reconciliation, Outcome after submission. A Task is owned by a single
// goroutine and never shared across accounts.
type Task struct {
	// Account is the account being processed. Read-only for steps.
	Account model.Account

	// Session is the account's portal session, set by the session step.
	Session *portal.Session

	// Form is the merged submission form, set by the reconcile step.
	Form *model.MergedForm

	// Outcome is the recorded result, set by the submit step or
	// synthesized by the pipeline when an earlier step fails.
	Outcome *model.SubmissionOutcome
}

// Step is one stage of an account's submission pass.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and debugging
// 3. It's more extensible for future features (e.g., retries per step)
type Step interface {
	// Do executes the step, mutating the task. An error ends the
	// account's pass; the pipeline classifies it into an outcome.
	Do(ctx context.Context, task *Task) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs the steps of one account's pass in order.
//
// Unlike a batch, a single pass is strictly sequential: each step depends
// on the previous one's output, so the first error always ends the pass.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// now is the clock for synthesized outcomes, injectable for tests.
	now func() time.Time
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the pass for one account and always returns an outcome.
// A step failure is classified by its wrapped sentinel: auth failures and
// scrape failures map to their terminal statuses, everything else is a
// network error. The submission step records its own outcome; Execute
// synthesizes one only when the pass ended before submission.
func (p *Pipeline) Execute(ctx context.Context, account model.Account) model.SubmissionOutcome {
	task := &Task{Account: account}

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pass cancelled",
				"step", step.Name(),
				"identity", account.Identity,
				"reason", ctx.Err(),
			)
			return p.synthesize(account.Identity, ctx.Err())
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"identity", account.Identity,
		)

		if err := step.Do(ctx, task); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"identity", account.Identity,
				"error", err,
			)
			return p.synthesize(account.Identity, err)
		}
	}

	if task.Outcome == nil {
		// A pipeline without a submit step is a wiring bug; surface it as
		// an error outcome rather than panicking mid-batch.
		return p.synthesize(account.Identity, errors.New("pass produced no outcome"))
	}
	return *task.Outcome
}

// synthesize builds the outcome for a pass that ended before submission.
func (p *Pipeline) synthesize(identity string, err error) model.SubmissionOutcome {
	return model.SubmissionOutcome{
		Identity:        identity,
		Status:          StatusFromError(err),
		ResponseExcerpt: model.Excerpt(err.Error()),
		Timestamp:       p.now(),
	}
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// StatusFromError maps a step error to an outcome status. The sentinel
// checks use errors.Is, so wrapped errors classify correctly; anything
// unrecognized is a transport-level failure.
func StatusFromError(err error) model.Status {
	switch {
	case errors.Is(err, portal.ErrAuthFailed), errors.Is(err, portal.ErrNoOTP):
		return model.StatusAuthFailed
	case errors.Is(err, scrape.ErrScrapeFailed):
		return model.StatusScrapeFailed
	default:
		return model.StatusNetworkError
	}
}
