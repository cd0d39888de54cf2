package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kpcl-automation/gatekeeper/internal/model"
	"github.com/kpcl-automation/gatekeeper/internal/portal"
)

// Reconciler fetches the portal's form page through an account session
// and builds the merged submission form for one pass.
type Reconciler struct {
	// session is the account's authenticated session.
	session *portal.Session

	// formPath is the portal path of the submission form page.
	formPath string

	// timeout bounds the form-page fetch.
	timeout time.Duration

	// maxBodySize bounds the form-page body read.
	maxBodySize int64

	// rules and dynamicFields drive the best-effort dynamic pass.
	rules         []DynamicRule
	dynamicFields []string

	logger *slog.Logger
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithFormPath overrides the portal path of the form page.
func WithFormPath(path string) ReconcilerOption {
	return func(r *Reconciler) {
		r.formPath = path
	}
}

// WithScrapeTimeout sets the timeout for the form-page fetch.
func WithScrapeTimeout(timeout time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		r.timeout = timeout
	}
}

// WithScrapeMaxBodySize sets the maximum form-page body size to read.
func WithScrapeMaxBodySize(size int64) ReconcilerOption {
	return func(r *Reconciler) {
		r.maxBodySize = size
	}
}

// WithDynamicRules overrides the dynamic probing rules.
func WithDynamicRules(rules []DynamicRule) ReconcilerOption {
	return func(r *Reconciler) {
		r.rules = rules
	}
}

// WithDynamicFields overrides the field names probed by the dynamic pass.
func WithDynamicFields(fields []string) ReconcilerOption {
	return func(r *Reconciler) {
		r.dynamicFields = fields
	}
}

// WithScrapeLogger sets a custom logger.
func WithScrapeLogger(logger *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// NewReconciler creates a Reconciler over the given session.
func NewReconciler(session *portal.Session, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		session:       session,
		formPath:      "/user/gatepass.php",
		timeout:       30 * time.Second,
		maxBodySize:   portal.DefaultMaxBodySize,
		rules:         DefaultDynamicRules(),
		dynamicFields: DynamicFieldNames,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Reconcile fetches the live form page and merges its fields with the
// account's overrides. The fetch never follows redirects: the portal
// answers an expired session with a redirect to the login page, and that
// signal must reach the caller as ErrSessionExpired rather than a
// silently scraped login form.
func (r *Reconciler) Reconcile(ctx context.Context, identity string, overrides map[string]string) (*model.MergedForm, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	formURL := r.session.URL(r.formPath)
	resp, err := r.session.GetNoRedirect(ctx, formURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch form page for %s: %w", identity, err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices && resp.StatusCode < http.StatusBadRequest {
		resp.Body.Close() //nolint:errcheck // Body is irrelevant on redirect
		r.logger.Warn("form page redirected, session expired",
			"identity", identity,
			"status_code", resp.StatusCode,
			"location", resp.Header.Get("Location"),
		)
		return nil, fmt.Errorf("form page redirected for %s: %w", identity, ErrSessionExpired)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close() //nolint:errcheck // Body is irrelevant on error status
		return nil, fmt.Errorf("form page returned status %d for %s: %w", resp.StatusCode, identity, ErrScrapeFailed)
	}

	page, err := readAll(resp, r.maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("failed to read form page for %s: %w", identity, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse form page for %s: %v: %w", identity, err, ErrScrapeFailed)
	}

	fs := newFieldSet()
	extractStructural(doc, fs)
	extractDynamic(page, doc, r.rules, r.dynamicFields, fs)

	form := Merge(fs.fields, overrides)

	r.logger.Debug("form reconciled",
		"identity", identity,
		"scraped_fields", len(fs.fields),
		"overrides", len(overrides),
		"merged_fields", form.Len(),
	)

	return form, nil
}

// readAll drains and closes the response body, bounded by maxSize bytes.
func readAll(resp *http.Response, maxSize int64) (string, error) {
	defer resp.Body.Close() //nolint:errcheck // Best-effort close on read path

	if maxSize <= 0 {
		maxSize = portal.DefaultMaxBodySize
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSize))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
