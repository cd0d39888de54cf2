package portal

import "errors"

// Portal interaction errors.
//
// Design decision: We expose coarse sentinel errors and wrap them with
// step detail via fmt.Errorf("%w: ...") instead of defining error structs
// because callers only ever classify: auth rejection is terminal for the
// account's run, everything else at this layer is a transient network
// failure. errors.Is() against these sentinels is the whole contract.
var (
	// ErrAuthFailed means a login step reached the portal but the
	// response failed the textual success check. Terminal for the
	// account's run; never retried internally.
	ErrAuthFailed = errors.New("portal authentication failed")

	// ErrNoOTP means the full login flow was requested but no OTP source
	// was available to supply the passcode.
	ErrNoOTP = errors.New("no OTP source available")
)
