// Package authrequest manages the lifecycle of one outstanding
// authorization request.
//
// Building a Request from a Config is pure and deterministic apart from
// the generated state parameter. Launching it (opening the consent flow
// and waiting for its terminal outcome) is wrapped by Prompter, which
// enforces the single-pending-request rule: a second launch while one is
// outstanding fails fast with ErrRequestAlreadyPending instead of
// queueing.
//
// Every launch ends in exactly one terminal Response: success (carrying a
// code or, for the implicit flow, an access token), cancel, dismiss, or
// error. Returning to the app without an observable outcome counts as
// dismiss.
package authrequest
