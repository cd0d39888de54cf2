// Package schedule owns the long-running dispatch loop.
//
// The loop alternates between two states: Idle, waiting for the next
// daily trigger instant, and Firing, running one batch of account
// passes. The trigger fires once per day at a fixed wall-clock time,
// chosen just before the portal opens its daily window, so the pass
// lands at the earliest moment the submission can succeed.
//
// While idle the loop emits a periodic liveness log line. A process that
// sleeps for most of a day is indistinguishable from a hung one without
// it.
//
// Firing passes are never cancelled mid-flight: individual network calls
// carry their own timeouts, and cutting a pass off between authentication
// and submission would leave the portal session in an unknown state.
package schedule
