package reconcile

import (
	"log/slog"
	"time"

	"github.com/feralbyte/authgate/pkg/oauth"
)

// OnChange is invoked after every state change with the authoritative
// (authenticated, profile) signal. It runs on the reconciler's event
// goroutine; implementations must not call back into the reconciler
// synchronously.
type OnChange func(authenticated bool, profile *oauth.Profile)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the reconciler's logger. Default: no-op.
func WithLogger(log *slog.Logger) Option {
	return func(r *Reconciler) {
		r.log = log
	}
}

// WithOnChange registers the state-change callback.
func WithOnChange(fn OnChange) Option {
	return func(r *Reconciler) {
		r.onChange = fn
	}
}

// WithNow replaces the clock used for session issue timestamps.
// Intended for tests.
func WithNow(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}
