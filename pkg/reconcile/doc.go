// Package reconcile merges the racing signals of a browser-based OAuth
// flow into one authoritative authentication state.
//
// Three independent sources can report the same logical sign-in: the
// consent flow's own terminal response, an OS-level redirect/deep link,
// and a session persisted by a previous run. The Reconciler consumes all
// of them as events on a single queue processed by one goroutine, so
// every transition runs to completion before the next event is looked at,
// under any delivery order.
//
// The machine has four states: Loading while the stored session is being
// validated, Unauthenticated (optionally with a user-visible error
// message), Authenticating while a consent flow or token exchange is in
// flight, and Authenticated with the fetched profile.
//
// Duplicate delivery is the normal case, not an edge case: the first
// authorization code observed for an attempt starts exactly one exchange
// and clears the attempt in the same transition; any code arriving while
// that exchange is in flight is a logged no-op. Slow network calls
// (exchange, profile fetch) run in worker goroutines and re-enter the
// queue as internal events, so the loop itself never blocks.
//
//	rec, err := reconcile.New(provider, store, reqCfg, launcher,
//		reconcile.WithOnChange(func(ok bool, p *oauth.Profile) { ... }),
//	)
//	go rec.Run(ctx)
//	...
//	if err := rec.SignIn(ctx); err != nil { ... }
package reconcile
