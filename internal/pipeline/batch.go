package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kpcl-automation/gatekeeper/internal/model"
)

// BatchProcessor runs one submission pass per account concurrently.
//
// Design decision: We use a separate BatchProcessor rather than adding
// batch functionality to Pipeline because:
// 1. It keeps the Pipeline focused on a single account's pass
// 2. It owns the failure-isolation contract: one outcome per account,
//    no cross-account cancellation
// 3. It allows different batch strategies later (e.g., rate limiting)
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline per account so no state
	// leaks between passes.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of simultaneous passes.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent passes.
// Default is 10 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory is called once per account; each pass gets its own
// pipeline instance and session, so accounts never share mutable state.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     10,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs a pass for every account and returns one outcome per
// account, in the same order the accounts were given.
//
// Failure isolation is absolute here: Execute never returns an error, so
// the errgroup never cancels, and a rejected or unreachable account
// leaves every other pass untouched.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, accounts []model.Account) []model.SubmissionOutcome {
	bp.logger.Info("starting batch",
		"total_accounts", len(accounts),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocated so each goroutine writes only its own index; no
	// locking needed and order matches the account list.
	outcomes := make([]model.SubmissionOutcome, len(accounts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, account := range accounts {
		g.Go(func() error {
			bp.logger.Info("processing account",
				"identity", account.Identity,
				"index", i+1,
				"total", len(accounts),
			)

			outcomes[i] = bp.pipelineFactory().Execute(ctx, account)

			bp.logger.Info("account processed",
				"identity", account.Identity,
				"status", string(outcomes[i].Status),
			)
			return nil
		})
	}

	// No goroutine returns an error, so Wait only synchronizes.
	_ = g.Wait() //nolint:errcheck // Failures live in the outcomes

	bp.logger.Info("batch complete",
		"total_accounts", len(accounts),
		"succeeded", countStatus(outcomes, model.StatusSuccess),
		"elapsed", time.Since(startTime),
	)

	return outcomes
}

// ProcessBatchWithCallback runs the batch and additionally calls the
// callback as each account finishes. The callback runs on the goroutine
// that completed the pass, so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	accounts []model.Account,
	callback func(outcome model.SubmissionOutcome, index int),
) []model.SubmissionOutcome {
	outcomes := make([]model.SubmissionOutcome, len(accounts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, account := range accounts {
		g.Go(func() error {
			outcomes[i] = bp.pipelineFactory().Execute(ctx, account)
			callback(outcomes[i], i)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // Failures live in the outcomes
	return outcomes
}

// countStatus counts outcomes with the given status.
func countStatus(outcomes []model.SubmissionOutcome, status model.Status) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
