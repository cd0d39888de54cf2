// Package pipeline composes the per-account submission flow and fans it
// out over all configured accounts.
//
// One account's pass is a sequence of steps over a shared Task: establish
// the session, reconcile the live form, submit. Steps run in order and
// the first failure ends the pass; the failure is classified into an
// outcome status, so a pass always produces exactly one outcome.
//
// The BatchProcessor runs one pass per account concurrently with a
// bounded limit. Account failures are isolated: no account's failure
// cancels, delays, or reorders another account's pass.
package pipeline
