package scrape

import (
	"errors"
	"fmt"
)

var (
	// ErrScrapeFailed means the form page could not be fetched or parsed.
	// Submitting stale or guessed data is worse than skipping the day, so
	// a reconciliation pass never falls back to a cached form.
	ErrScrapeFailed = errors.New("failed to scrape form page")

	// ErrSessionExpired means the portal redirected the form-page request,
	// which is how it answers an unauthenticated session. It wraps
	// ErrScrapeFailed so callers matching the broader class still catch
	// it.
	ErrSessionExpired = fmt.Errorf("%w: session expired", ErrScrapeFailed)
)
