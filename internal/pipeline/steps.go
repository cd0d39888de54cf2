package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kpcl-automation/gatekeeper/internal/portal"
	"github.com/kpcl-automation/gatekeeper/internal/scrape"
)

// SessionStep creates the account's portal session and makes it
// authenticated: either by seeding pre-established cookies from the
// account config, or by running the full OTP login challenge when the
// account has credentials and a passcode source is available.
//
// Design decision: Scheduled runs rely on seeded cookies. The passcode
// arrives out-of-band on the account holder's phone, so an unattended
// run cannot complete the challenge; the interactive login command is
// the only place a live OTP source exists.
type SessionStep struct {
	// baseURL is the portal base URL for new sessions.
	baseURL string

	// otp supplies passcodes for the login challenge. Nil in unattended
	// runs.
	otp portal.OTPSource

	// authOpts configure the Authenticator when the challenge runs.
	authOpts []portal.AuthOption

	// logger for structured logging.
	logger *slog.Logger
}

// SessionStepOption configures a SessionStep.
type SessionStepOption func(*SessionStep)

// WithOTPSource sets the passcode source, enabling the full login
// challenge for accounts that carry credentials.
func WithOTPSource(otp portal.OTPSource) SessionStepOption {
	return func(s *SessionStep) {
		s.otp = otp
	}
}

// WithAuthOptions forwards options to the Authenticator.
func WithAuthOptions(opts ...portal.AuthOption) SessionStepOption {
	return func(s *SessionStep) {
		s.authOpts = opts
	}
}

// WithSessionLogger sets a custom logger for the session step.
func WithSessionLogger(logger *slog.Logger) SessionStepOption {
	return func(s *SessionStep) {
		s.logger = logger
	}
}

// NewSessionStep creates a session step for the portal at baseURL.
func NewSessionStep(baseURL string, opts ...SessionStepOption) *SessionStep {
	s := &SessionStep{
		baseURL: baseURL,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *SessionStep) Name() string {
	return "session"
}

// Do creates the session, seeds cookies, and runs the login challenge
// when both credentials and a passcode source are present.
func (s *SessionStep) Do(ctx context.Context, task *Task) error {
	session, err := portal.NewSession(s.baseURL)
	if err != nil {
		return fmt.Errorf("failed to create session for %s: %w", task.Account.Identity, err)
	}
	session.SeedCookies(task.Account.Cookies)
	task.Session = session

	if task.Account.HasCredentials() && s.otp != nil {
		auth := portal.NewAuthenticator(session, s.authOpts...)
		if err := auth.Authenticate(ctx, task.Account, s.otp); err != nil {
			return err
		}
		s.logger.Debug("login challenge completed", "identity", task.Account.Identity)
		return nil
	}

	if len(task.Account.Cookies) == 0 {
		return fmt.Errorf("account %s has no session cookies and no way to log in: %w",
			task.Account.Identity, portal.ErrAuthFailed)
	}

	s.logger.Debug("session seeded from stored cookies",
		"identity", task.Account.Identity,
		"cookies", len(task.Account.Cookies),
	)
	return nil
}

// ReconcileStep scrapes the live form page and merges it with the
// account's overrides.
type ReconcileStep struct {
	// opts configure the Reconciler built for each task.
	opts []scrape.ReconcilerOption
}

// NewReconcileStep creates a reconcile step. The options are forwarded
// to the per-task Reconciler.
func NewReconcileStep(opts ...scrape.ReconcilerOption) *ReconcileStep {
	return &ReconcileStep{opts: opts}
}

// Name returns the step name.
func (s *ReconcileStep) Name() string {
	return "reconcile"
}

// Do builds the merged form from the live page and the account's
// overrides.
func (s *ReconcileStep) Do(ctx context.Context, task *Task) error {
	r := scrape.NewReconciler(task.Session, s.opts...)
	form, err := r.Reconcile(ctx, task.Account.Identity, task.Account.Overrides)
	if err != nil {
		return err
	}
	task.Form = form
	return nil
}

// SubmitStep posts the merged form and records the outcome on the task.
// It never fails the pass: the dispatcher folds every result, including
// rejections and transport errors, into the outcome.
type SubmitStep struct {
	// opts configure the Dispatcher built for each task.
	opts []portal.DispatcherOption
}

// NewSubmitStep creates a submit step. The options are forwarded to the
// per-task Dispatcher.
func NewSubmitStep(opts ...portal.DispatcherOption) *SubmitStep {
	return &SubmitStep{opts: opts}
}

// Name returns the step name.
func (s *SubmitStep) Name() string {
	return "submit"
}

// Do submits the form and stores the recorded outcome.
func (s *SubmitStep) Do(ctx context.Context, task *Task) error {
	d := portal.NewDispatcher(task.Session, s.opts...)
	outcome := d.Submit(ctx, task.Account.Identity, task.Form)
	task.Outcome = &outcome
	return nil
}
