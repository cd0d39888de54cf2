package portal

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/kpcl-automation/gatekeeper/internal/model"
)

// Dispatcher issues the final form submission for one account.
//
// A Dispatcher never returns an error: every result, including transport
// failures, is folded into a SubmissionOutcome. The caller inspects the
// outcome's status; a non-2xx portal answer is data, not an exception.
type Dispatcher struct {
	// session is the account's authenticated session.
	session *Session

	// submitPath receives the form POST.
	submitPath string

	// refererPath is the form page path. The portal rejects submissions
	// without a Referer pointing at its own form page.
	refererPath string

	// timeout bounds the submission request.
	timeout time.Duration

	// maxBodySize bounds the response body read.
	maxBodySize int64

	// logger is used for structured logging.
	logger *slog.Logger

	// now is the clock, injectable for tests.
	now func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSubmitTimeout sets the submission request timeout.
func WithSubmitTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithSubmitPaths overrides the submission and referer paths.
func WithSubmitPaths(submit, referer string) DispatcherOption {
	return func(d *Dispatcher) {
		d.submitPath = submit
		d.refererPath = referer
	}
}

// WithSubmitLogger sets a custom logger.
func WithSubmitLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithSubmitMaxBodySize sets the maximum response body size to read.
func WithSubmitMaxBodySize(size int64) DispatcherOption {
	return func(d *Dispatcher) {
		d.maxBodySize = size
	}
}

// WithSubmitClock injects a clock for tests.
func WithSubmitClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher creates a Dispatcher over the given session.
func NewDispatcher(session *Session, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		session:     session,
		submitPath:  "/user/proof_uploade_code.php",
		refererPath: "/user/gatepass.php",
		timeout:     30 * time.Second,
		maxBodySize: DefaultMaxBodySize,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = slog.Default()
	}

	return d
}

// Submit posts the merged form for the given identity and records the
// outcome: HTTP status, elapsed time, and a truncated response excerpt,
// regardless of how the portal answered.
func (d *Dispatcher) Submit(ctx context.Context, identity string, form *model.MergedForm) model.SubmissionOutcome {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	headers := map[string]string{
		"Referer": d.session.URL(d.refererPath),
	}

	start := d.now()
	resp, err := d.session.PostForm(ctx, d.session.URL(d.submitPath), form.Encode(), headers)
	latency := d.now().Sub(start)

	outcome := model.SubmissionOutcome{
		Identity:  identity,
		Latency:   latency,
		Timestamp: d.now(),
	}

	if err != nil {
		d.logger.Warn("submission failed at transport",
			"identity", identity,
			"error", err,
		)
		outcome.Status = model.StatusNetworkError
		outcome.ResponseExcerpt = model.Excerpt(err.Error())
		return outcome
	}

	body, readErr := readBody(resp, d.maxBodySize)
	outcome.HTTPStatus = resp.StatusCode
	outcome.ResponseExcerpt = model.Excerpt(body)

	switch {
	case readErr != nil:
		outcome.Status = model.StatusNetworkError
		outcome.ResponseExcerpt = model.Excerpt(readErr.Error())
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		outcome.Status = model.StatusSuccess
	default:
		outcome.Status = model.StatusRemoteRejected
	}

	d.logger.Info("submission recorded",
		"identity", identity,
		"status", string(outcome.Status),
		"status_code", outcome.HTTPStatus,
		"latency", latency,
		"fields", form.Len(),
	)

	return outcome
}
