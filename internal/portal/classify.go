package portal

import "strings"

// Classifier decides whether a portal response body signals success.
//
// The portal has no formal API contract: its only success signal is
// free-text HTML. These substring heuristics are load-bearing and must be
// preserved exactly as the remote system established them; stricter
// parsing would break against a contract that does not exist. The
// classifiers are injectable so individual heuristics can be swapped in
// tests without touching the login flow.
type Classifier func(body string) bool

// ContainsFold returns a Classifier matching a case-insensitive substring.
func ContainsFold(token string) Classifier {
	lower := strings.ToLower(token)
	return func(body string) bool {
		return strings.Contains(strings.ToLower(body), lower)
	}
}

// ContainsExact returns a Classifier matching a case-sensitive substring.
func ContainsExact(token string) Classifier {
	return func(body string) bool {
		return strings.Contains(body, token)
	}
}

// AnyOf returns a Classifier that succeeds when any of the given
// classifiers succeeds.
func AnyOf(classifiers ...Classifier) Classifier {
	return func(body string) bool {
		for _, c := range classifiers {
			if c(body) {
				return true
			}
		}
		return false
	}
}

// Default classifiers for the portal's login flow responses.
var (
	// OTPSent matches the OTP-request response. The portal answers with
	// a blob containing "success" in some casing.
	OTPSent = ContainsFold("success")

	// OTPVerified matches the OTP-verify response: either the literal
	// "OTP Verified" marker or a generic success token.
	OTPVerified = AnyOf(ContainsExact("OTP Verified"), ContainsFold("success"))

	// SignedIn matches the post-sign-in page: the authenticated area
	// carries dashboard or logout markers.
	SignedIn = AnyOf(ContainsFold("dashboard"), ContainsFold("logout"))
)
