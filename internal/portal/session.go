package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
)

// Session is one account's stateful HTTP session with the portal.
// It owns a cookie jar that accumulates cookies monotonically across the
// login steps and is never shared with another account.
//
// Design decision: We build one http.Client per account rather than
// sharing a client with per-request cookie headers because:
//  1. The portal's login flow sets cookies on several responses and
//     expects all of them back on later requests
//  2. Exclusive ownership removes any need for cross-task locking
//  3. Timeouts are enforced per request via context, not on the client,
//     so different steps can carry different budgets
type Session struct {
	// client performs all requests for this account. It follows
	// redirects, which the login flow relies on.
	client *http.Client

	// noRedirect is the same transport and jar but stops at the first
	// response. The form page fetch uses it so an expired-session
	// redirect is observable instead of silently followed.
	noRedirect *http.Client

	// baseURL is the parsed portal base URL.
	baseURL *url.URL
}

// NewSession creates a Session for the portal at baseURL with an empty
// cookie jar.
func NewSession(baseURL string) (*Session, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid portal base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := &http.Client{Jar: jar}
	noRedirect := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &Session{
		client:     client,
		noRedirect: noRedirect,
		baseURL:    u,
	}, nil
}

// SeedCookies installs pre-established session cookies (e.g. PHPSESSID
// from the account config) into the jar for the portal's base URL.
func (s *Session) SeedCookies(cookies map[string]string) {
	if len(cookies) == 0 {
		return
	}

	set := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		set = append(set, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	s.client.Jar.SetCookies(s.baseURL, set)
}

// Cookies returns a snapshot of the jar's cookies for the portal base
// URL as a name to value map.
func (s *Session) Cookies() map[string]string {
	out := make(map[string]string)
	for _, c := range s.client.Jar.Cookies(s.baseURL) {
		out[c.Name] = c.Value
	}
	return out
}

// URL resolves a portal path against the base URL.
func (s *Session) URL(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return s.baseURL.String() + path
	}
	return s.baseURL.ResolveReference(ref).String()
}

// BaseURL returns the portal base URL as a string, without a trailing slash.
func (s *Session) BaseURL() string {
	return strings.TrimSuffix(s.baseURL.String(), "/")
}

// Get issues a GET request through the session, following redirects.
func (s *Session) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return s.client.Do(req)
}

// GetNoRedirect issues a GET request that stops at the first response
// instead of following redirects. A 3xx answer is returned as-is.
func (s *Session) GetNoRedirect(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return s.noRedirect.Do(req)
}

// PostForm issues a form-encoded POST through the session with the given
// extra headers. The Content-Type header defaults to form encoding but an
// entry in headers wins, since the portal's OTP endpoint insists on an
// exact charset suffix.
func (s *Session) PostForm(ctx context.Context, rawURL, body string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return s.client.Do(req)
}

// readBody drains and closes a response body, bounded by maxSize bytes.
// A read error is reported alongside whatever was read so callers can
// still inspect partial bodies.
func readBody(resp *http.Response, maxSize int64) (string, error) {
	defer resp.Body.Close() //nolint:errcheck // Best-effort close on read path

	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSize))
	if err != nil {
		return string(body), fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}

// DefaultMaxBodySize bounds response body reads when the caller does not
// configure a limit. Matches the application-wide 5MB default.
const DefaultMaxBodySize = 5 * 1024 * 1024
