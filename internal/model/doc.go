// Package model defines the core data structures used throughout Gatekeeper.
//
// This package contains the following main types:
//   - Account: One configured portal account with its session cookies and overrides
//   - ScrapedField: A single form field extracted from live portal HTML
//   - MergedForm: The final ordered field mapping submitted to the portal
//   - SubmissionOutcome: The per-account result of one submission attempt
//   - RunReport: The aggregate result of one scheduled or manual run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (portal, scrape, pipeline, report, history)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
