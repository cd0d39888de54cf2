// Package portal implements the wire-level interaction with the KPCL AMS
// portal: per-account HTTP sessions, the multi-step OTP login challenge,
// and the final form submission.
//
// The portal exposes no formal API. Its contract is four login URLs, one
// submission URL, a handful of exact request headers, and free-text HTML
// whose success markers are matched by substring. The Classifier type
// makes those heuristics injectable while preserving their semantics
// exactly; inventing a stricter protocol against a contract that does not
// exist would only break the integration.
//
// Each Session owns one cookie jar, exclusively, for one account and one
// run. Timeouts are enforced per network call via context so a hung
// request cannot stall a whole batch.
package portal
