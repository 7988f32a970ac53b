package reconcile

import "errors"

var (
	// ErrSignInPending is returned when sign-in is invoked while an
	// attempt is already outstanding. The caller must wait for the
	// current attempt to finish; attempts are never queued.
	ErrSignInPending = errors.New("reconcile: sign-in already in progress")

	// ErrAlreadyAuthenticated is returned when sign-in is invoked while
	// a session is already held.
	ErrAlreadyAuthenticated = errors.New("reconcile: already authenticated")

	// ErrNotReady is returned when sign-in is invoked before the stored
	// session has been resolved.
	ErrNotReady = errors.New("reconcile: still resolving stored session")

	// ErrNilProvider, ErrNilStore, and ErrNilLauncher report missing
	// constructor dependencies.
	ErrNilProvider = errors.New("reconcile: nil provider")
	ErrNilStore    = errors.New("reconcile: nil store")
	ErrNilLauncher = errors.New("reconcile: nil launcher")
)
