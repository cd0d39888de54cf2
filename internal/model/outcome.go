package model

import (
	"time"
)

// Status categorizes the result of one account's submission attempt.
type Status string

// Status values, from the error taxonomy of the submission flow.
const (
	// StatusSuccess means the submission reached the portal and returned
	// a 2xx response.
	StatusSuccess Status = "success"

	// StatusAuthFailed means a login step reached the portal but failed
	// the textual success check. Terminal for that account's run.
	StatusAuthFailed Status = "auth-failed"

	// StatusScrapeFailed means the form page was unreachable or answered
	// with a non-2xx or redirect response (typically an expired session).
	// Terminal for that account's run; the submission is skipped.
	StatusScrapeFailed Status = "scrape-failed"

	// StatusNetworkError means a timeout or connection failure at the
	// transport layer. Transient; retrying is a caller policy.
	StatusNetworkError Status = "network-error"

	// StatusRemoteRejected means the submission reached the portal but
	// returned a non-2xx status. Reported with the status code, never
	// treated as an exception.
	StatusRemoteRejected Status = "remote-rejected"
)

// Retryable reports whether the status represents a transient failure
// that a caller-side retry policy may reasonably act on.
func (s Status) Retryable() bool {
	return s == StatusNetworkError
}

// MaxResponseExcerpt bounds the response body excerpt recorded in an
// outcome. 200 bytes is enough to see the portal's textual verdict
// without dragging whole HTML pages into reports and logs.
const MaxResponseExcerpt = 200

// Excerpt truncates a response body to MaxResponseExcerpt bytes.
func Excerpt(body string) string {
	if len(body) <= MaxResponseExcerpt {
		return body
	}
	return body[:MaxResponseExcerpt]
}

// SubmissionOutcome is the per-account result of one submission attempt.
// Every configured account produces exactly one outcome per run, even on
// total task failure.
type SubmissionOutcome struct {
	// Identity is the account the outcome belongs to.
	Identity string `json:"identity"`

	// Status is the outcome category.
	Status Status `json:"status"`

	// HTTPStatus is the HTTP status code of the final response, or zero
	// if the request never reached the portal.
	HTTPStatus int `json:"http_status,omitempty"`

	// Latency is the elapsed time of the submission request. Zero when
	// the task failed before the submission was attempted.
	Latency time.Duration `json:"latency"`

	// ResponseExcerpt is a truncated slice of the response body, or the
	// task error text for outcomes synthesized from earlier failures.
	ResponseExcerpt string `json:"response_excerpt,omitempty"`

	// Timestamp is when the outcome was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// RunReport is the aggregate result of one firing pass. Outcomes appear
// in the same order accounts were configured.
type RunReport struct {
	// Trigger records what started the run: "scheduled" or "manual".
	Trigger string `json:"trigger"`

	// StartedAt is when the firing pass began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last account task completed.
	FinishedAt time.Time `json:"finished_at"`

	// Outcomes holds one entry per configured account, in config order.
	Outcomes []SubmissionOutcome `json:"outcomes"`
}

// Run trigger values.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// NewRunReport creates a RunReport for the given trigger with the start
// time set to now.
func NewRunReport(trigger string) *RunReport {
	return &RunReport{
		Trigger:   trigger,
		StartedAt: time.Now(),
		Outcomes:  make([]SubmissionOutcome, 0),
	}
}

// Succeeded returns the number of successful outcomes.
func (r *RunReport) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusSuccess {
			n++
		}
	}
	return n
}

// Failed returns the number of non-successful outcomes.
func (r *RunReport) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Duration returns the elapsed time of the firing pass.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
