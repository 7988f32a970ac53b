// Package tokenstore persists a single auth session record.
//
// The store holds exactly one session at a time (the signed-in user's
// access token); Save replaces any previous record. Three backends are
// provided: Memory for tests, File for local single-user persistence, and
// Redis for shared deployments. All backends serialize the session as the
// JSON object {"accessToken": ..., "issuedAt": ...} under one fixed key.
//
// Store failures are designed to be non-fatal to callers: Load errors are
// treated like an absent session, and Save/Clear errors are logged and
// absorbed by the reconciler rather than blocking a state transition.
package tokenstore
