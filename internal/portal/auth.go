package portal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kpcl-automation/gatekeeper/internal/model"
)

// OTPSource supplies the one-time passcode for an identity. The passcode
// is delivered out-of-band (SMS to the registered mobile number), so the
// source is typically an interactive prompt.
type OTPSource func(ctx context.Context, identity string) (string, error)

// Authenticator drives the portal's multi-step OTP login challenge for
// one account. All steps share the session's cookie jar; cookies
// accumulate monotonically and no step is skipped or retried internally.
//
// Step failures split into two categories:
//   - transport errors (timeout, connection refused) surface unchanged
//     and are classified as network errors by the caller
//   - a step that reaches the portal but fails its textual success check
//     returns an error wrapping ErrAuthFailed, terminal for this run
type Authenticator struct {
	// session is the account's session. The authenticator never creates
	// its own; exclusive per-account ownership is the caller's business.
	session *Session

	// Portal paths for the login flow.
	loginPath      string
	otpRequestPath string
	otpVerifyPath  string
	signInPath     string

	// timeout bounds each individual network call.
	timeout time.Duration

	// maxBodySize bounds response body reads.
	maxBodySize int64

	// logger is used for structured logging of the login steps.
	logger *slog.Logger

	// Response classifiers, injectable for tests. Defaults preserve the
	// portal's textual heuristics exactly.
	otpSent     Classifier
	otpVerified Classifier
	signedIn    Classifier
}

// AuthOption configures an Authenticator.
type AuthOption func(*Authenticator)

// WithAuthTimeout sets the per-request timeout for login steps.
func WithAuthTimeout(timeout time.Duration) AuthOption {
	return func(a *Authenticator) {
		a.timeout = timeout
	}
}

// WithAuthLogger sets a custom logger.
func WithAuthLogger(logger *slog.Logger) AuthOption {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// WithAuthMaxBodySize sets the maximum response body size to read.
func WithAuthMaxBodySize(size int64) AuthOption {
	return func(a *Authenticator) {
		a.maxBodySize = size
	}
}

// WithAuthPaths overrides the portal paths for the login flow.
func WithAuthPaths(login, otpRequest, otpVerify, signIn string) AuthOption {
	return func(a *Authenticator) {
		a.loginPath = login
		a.otpRequestPath = otpRequest
		a.otpVerifyPath = otpVerify
		a.signInPath = signIn
	}
}

// WithOTPSentClassifier overrides the OTP-request success classifier.
func WithOTPSentClassifier(c Classifier) AuthOption {
	return func(a *Authenticator) {
		a.otpSent = c
	}
}

// WithOTPVerifiedClassifier overrides the OTP-verify success classifier.
func WithOTPVerifiedClassifier(c Classifier) AuthOption {
	return func(a *Authenticator) {
		a.otpVerified = c
	}
}

// WithSignedInClassifier overrides the sign-in success classifier.
func WithSignedInClassifier(c Classifier) AuthOption {
	return func(a *Authenticator) {
		a.signedIn = c
	}
}

// NewAuthenticator creates an Authenticator over the given session.
func NewAuthenticator(session *Session, opts ...AuthOption) *Authenticator {
	a := &Authenticator{
		session:        session,
		loginPath:      "/signin_page.php",
		otpRequestPath: "/send_otp.php",
		otpVerifyPath:  "/verify_otp.php",
		signInPath:     "/signin_page.php",
		timeout:        10 * time.Second,
		maxBodySize:    DefaultMaxBodySize,
		otpSent:        OTPSent,
		otpVerified:    OTPVerified,
		signedIn:       SignedIn,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}

	return a
}

// Authenticate runs the full login challenge for the account:
// establish session, request OTP, verify the code from the OTP source,
// and sign in. It returns nil once the portal shows the authenticated
// area.
func (a *Authenticator) Authenticate(ctx context.Context, account model.Account, otp OTPSource) error {
	if otp == nil {
		return ErrNoOTP
	}

	if err := a.EstablishSession(ctx); err != nil {
		return err
	}

	if err := a.RequestOTP(ctx, account.Identity); err != nil {
		return err
	}

	code, err := otp(ctx, account.Identity)
	if err != nil {
		return fmt.Errorf("failed to obtain OTP for %s: %w", account.Identity, err)
	}

	if err := a.VerifyOTP(ctx, account.Identity, code); err != nil {
		return err
	}

	return a.SignIn(ctx, account.Identity, account.Password, code)
}

// EstablishSession fetches the login page so the portal sets its initial
// session cookie. A failure here is a network error, never an auth
// rejection: the portal rejects nothing at this step.
func (a *Authenticator) EstablishSession(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.session.Get(ctx, a.session.URL(a.loginPath))
	if err != nil {
		return fmt.Errorf("failed to reach login page: %w", err)
	}
	// Body content is irrelevant; only the Set-Cookie headers matter.
	if _, err := readBody(resp, a.maxBodySize); err != nil {
		return err
	}

	a.logger.Debug("session established", "url", a.session.URL(a.loginPath))
	return nil
}

// RequestOTP asks the portal to send the one-time passcode to the
// account's registered mobile number. The portal expects the request to
// look like its own AJAX call, header for header.
func (a *Authenticator) RequestOTP(ctx context.Context, identity string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body := url.Values{"user_id": {identity}}.Encode()
	headers := map[string]string{
		"X-Requested-With": "XMLHttpRequest",
		"Referer":          a.session.URL(a.loginPath),
		"Origin":           a.session.BaseURL(),
		"Content-Type":     "application/x-www-form-urlencoded; charset=UTF-8",
		"Accept":           "application/json, text/javascript, */*; q=0.01",
	}

	resp, err := a.session.PostForm(ctx, a.session.URL(a.otpRequestPath), body, headers)
	if err != nil {
		return fmt.Errorf("otp request failed: %w", err)
	}

	text, err := readBody(resp, a.maxBodySize)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest || !a.otpSent(text) {
		a.logger.Warn("otp request rejected",
			"identity", identity,
			"status_code", resp.StatusCode,
		)
		return fmt.Errorf("otp request rejected for %s: %w", identity, ErrAuthFailed)
	}

	a.logger.Debug("otp requested", "identity", identity)
	return nil
}

// VerifyOTP submits the received passcode. Success is judged purely on
// the response text, as the portal answers 200 either way.
func (a *Authenticator) VerifyOTP(ctx context.Context, identity, code string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body := url.Values{"otp": {code}, "username": {identity}}.Encode()

	resp, err := a.session.PostForm(ctx, a.session.URL(a.otpVerifyPath), body, nil)
	if err != nil {
		return fmt.Errorf("otp verify failed: %w", err)
	}

	text, err := readBody(resp, a.maxBodySize)
	if err != nil {
		return err
	}

	if !a.otpVerified(text) {
		a.logger.Warn("otp verify rejected", "identity", identity)
		return fmt.Errorf("otp verify rejected for %s: %w", identity, ErrAuthFailed)
	}

	a.logger.Debug("otp verified", "identity", identity)
	return nil
}

// SignIn performs the final sign-in POST with identity, password, and the
// verified passcode. Success means the response shows the authenticated
// area (dashboard or logout markers).
func (a *Authenticator) SignIn(ctx context.Context, identity, password, code string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body := url.Values{
		"username": {identity},
		"password": {password},
		"otp_code": {code},
		"submit":   {"Sign In"},
	}.Encode()

	resp, err := a.session.PostForm(ctx, a.session.URL(a.signInPath), body, nil)
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	text, err := readBody(resp, a.maxBodySize)
	if err != nil {
		return err
	}

	if !a.signedIn(text) {
		a.logger.Warn("sign-in rejected", "identity", identity)
		return fmt.Errorf("sign-in rejected for %s: %w", identity, ErrAuthFailed)
	}

	a.logger.Info("signed in", "identity", identity)
	return nil
}
