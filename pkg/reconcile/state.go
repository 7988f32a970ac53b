package reconcile

import "github.com/feralbyte/authgate/pkg/oauth"

// State is the authentication state. Exactly one holds at any time.
type State uint8

const (
	// StateLoading means the stored session is still being resolved.
	StateLoading State = iota

	// StateUnauthenticated means no valid session exists.
	StateUnauthenticated

	// StateAuthenticating means a consent flow, token exchange, or
	// profile fetch is in flight.
	StateAuthenticating

	// StateAuthenticated means a valid session and profile are held.
	StateAuthenticated
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time view of the reconciler's output state.
// Err carries the user-visible message for StateUnauthenticated; it is
// empty in every other state.
type Snapshot struct {
	State   State
	Profile *oauth.Profile
	Err     string
}

// Authenticated reports whether the snapshot is in the authenticated state.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated
}
