package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kpcl-automation/gatekeeper/internal/model"
)

// State is the dispatch loop's current mode.
type State string

// Dispatch loop states.
const (
	// StateIdle means the loop is waiting for the next trigger instant.
	StateIdle State = "idle"

	// StateFiring means a batch of account passes is in flight.
	StateFiring State = "firing"
)

// Runner produces the outcomes of one firing pass. The loop wraps the
// outcomes into a RunReport; the runner only runs the batch.
type Runner func(ctx context.Context) []model.SubmissionOutcome

// DispatchLoop fires the daily batch at a fixed wall-clock instant.
type DispatchLoop struct {
	// run executes one batch of account passes.
	run Runner

	// Trigger instant, local wall-clock.
	triggerHour   int
	triggerMinute int
	triggerSecond int

	// livenessInterval spaces the idle heartbeat log lines.
	livenessInterval time.Duration

	// onReport is called after every firing pass with the finished
	// report. Nil is allowed.
	onReport func(*model.RunReport)

	// logger is used for structured logging.
	logger *slog.Logger

	// now is the clock, injectable for tests.
	now func() time.Time

	mu        sync.Mutex
	state     State
	lastFired time.Time
}

// LoopOption configures a DispatchLoop.
type LoopOption func(*DispatchLoop)

// WithTriggerTime sets the daily trigger instant (local wall-clock).
func WithTriggerTime(hour, minute, second int) LoopOption {
	return func(l *DispatchLoop) {
		l.triggerHour = hour
		l.triggerMinute = minute
		l.triggerSecond = second
	}
}

// WithLivenessInterval sets the idle heartbeat interval.
func WithLivenessInterval(interval time.Duration) LoopOption {
	return func(l *DispatchLoop) {
		if interval > 0 {
			l.livenessInterval = interval
		}
	}
}

// WithOnReport registers a callback invoked after each firing pass.
func WithOnReport(fn func(*model.RunReport)) LoopOption {
	return func(l *DispatchLoop) {
		l.onReport = fn
	}
}

// WithLoopLogger sets a custom logger.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *DispatchLoop) {
		l.logger = logger
	}
}

// WithLoopClock injects a clock for tests.
func WithLoopClock(now func() time.Time) LoopOption {
	return func(l *DispatchLoop) {
		l.now = now
	}
}

// NewDispatchLoop creates a loop that calls run at the trigger instant.
// The default trigger is 06:59:59, one second before the portal opens
// its daily submission window at 07:00:00.
func NewDispatchLoop(run Runner, opts ...LoopOption) *DispatchLoop {
	l := &DispatchLoop{
		run:              run,
		triggerHour:      6,
		triggerMinute:    59,
		triggerSecond:    59,
		livenessInterval: time.Hour,
		now:              time.Now,
		state:            StateIdle,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.logger == nil {
		l.logger = slog.Default()
	}

	return l
}

// State returns the loop's current state.
func (l *DispatchLoop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// LastFired returns when the loop last started a firing pass, or the
// zero time if it never fired.
func (l *DispatchLoop) LastFired() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastFired
}

// NextFire returns the next trigger instant strictly after the given
// time. A trigger instant earlier today that has already passed rolls
// over to tomorrow.
func (l *DispatchLoop) NextFire(after time.Time) time.Time {
	next := time.Date(after.Year(), after.Month(), after.Day(),
		l.triggerHour, l.triggerMinute, l.triggerSecond, 0, after.Location())
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks until the context is cancelled, firing one batch per day at
// the trigger instant and logging a heartbeat while idle.
//
// The context stops the waiting, not a pass already in flight: once a
// batch starts it runs to completion on its own per-call timeouts.
func (l *DispatchLoop) Run(ctx context.Context) error {
	l.logger.Info("dispatch loop started",
		"trigger_at", l.triggerInstant(),
		"liveness_interval", l.livenessInterval,
	)

	heartbeat := time.NewTicker(l.livenessInterval)
	defer heartbeat.Stop()

	for {
		next := l.NextFire(l.now())
		timer := time.NewTimer(next.Sub(l.now()))

		l.logger.Info("waiting for next trigger", "next_fire", next)

	wait:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				l.logger.Info("dispatch loop stopped", "reason", ctx.Err())
				return ctx.Err()

			case <-heartbeat.C:
				l.logger.Info("dispatch loop alive",
					"state", string(l.State()),
					"next_fire", next,
				)

			case <-timer.C:
				break wait
			}
		}

		// The pass itself is not bound to the loop context; see Run's
		// doc comment.
		l.RunOnce(context.WithoutCancel(ctx), model.TriggerScheduled)
	}
}

// RunOnce executes one firing pass immediately and returns its report.
// Used by the loop at trigger instants and by the manual fire command.
func (l *DispatchLoop) RunOnce(ctx context.Context, trigger string) *model.RunReport {
	l.setState(StateFiring)
	defer l.setState(StateIdle)

	l.logger.Info("firing pass started", "trigger", trigger)

	report := model.NewRunReport(trigger)
	report.StartedAt = l.now()
	report.Outcomes = l.run(ctx)
	report.FinishedAt = l.now()

	l.logger.Info("firing pass finished",
		"trigger", trigger,
		"accounts", len(report.Outcomes),
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"duration", report.Duration(),
	)

	if l.onReport != nil {
		l.onReport(report)
	}
	return report
}

// setState transitions the loop state and stamps lastFired on entry to
// the firing state.
func (l *DispatchLoop) setState(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = s
	if s == StateFiring {
		l.lastFired = l.now()
	}
}

// triggerInstant formats the configured trigger time for logs.
func (l *DispatchLoop) triggerInstant() string {
	return time.Date(0, 1, 1, l.triggerHour, l.triggerMinute, l.triggerSecond, 0, time.UTC).
		Format("15:04:05")
}
