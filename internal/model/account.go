package model

// Account represents one configured portal account for a single run.
//
// Accounts are constructed once per run from the external account config
// and discarded afterwards. The session cookies seed a per-account cookie
// jar that is owned exclusively by that account's task; no other task
// reads or writes it, so no cross-task locking is required.
type Account struct {
	// Identity is the portal username. It is the key used in all
	// authentication calls and in every SubmissionOutcome.
	Identity string `json:"identity"`

	// Password is the portal password. It is only needed for the full
	// OTP login flow; scheduled runs that reuse pre-established session
	// cookies may leave it empty.
	Password string `json:"-"`

	// Cookies holds the pre-established session cookies (PHPSESSID and
	// friends) used to seed this account's cookie jar. The jar mutates
	// as the portal sets new cookies; this map is never written back.
	Cookies map[string]string `json:"-"`

	// Overrides maps form field names to caller-supplied values. A
	// non-empty override always wins over any scraped or default value.
	// The map is immutable for the duration of the run.
	Overrides map[string]string `json:"overrides,omitempty"`
}

// HasCredentials reports whether the account carries everything needed
// to attempt the full OTP login flow.
func (a *Account) HasCredentials() bool {
	return a.Identity != "" && a.Password != ""
}
