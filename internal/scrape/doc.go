// Package scrape reconstructs the portal's current submission form from
// live HTML and merges it with per-account overrides and fallback
// defaults.
//
// The form's structure is external and unstable: the portal can add,
// remove, or rename fields at any time, so nothing about the form is
// hard-coded beyond a small set of critical field defaults. A
// reconciliation pass has four steps:
//
//  1. Fetch the form page with the account's session. A redirect means
//     the session expired; both redirects and other non-2xx answers stop
//     the pass.
//  2. Structural extraction: walk every input, select, and textarea
//     element and record its current value. Unchecked checkboxes and
//     radios are recorded as explicit empty-string entries; absence never
//     means "unchecked".
//  3. Dynamic extraction (best-effort): probe script-embedded variable
//     assignments, CSS selectors, and data attributes for a fixed set of
//     numeric fields (balances, prices). Failures here never abort the
//     pass.
//  4. Merge, field by field: a non-empty override wins, else the
//     extracted value (even empty), else a critical-field default, else
//     the field is absent.
//
// The merge precedence is the package's central invariant. It holds for
// every field independently, and an override is never suppressed by a
// later default pass.
package scrape
