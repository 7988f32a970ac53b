// Package redirect turns externally delivered redirect URLs into
// authorization results.
//
// A redirect URL is any URI that re-activates the application after the
// browser consent flow: an OS deep link, a custom-scheme callback, or a
// hit on a local loopback server. Parse extracts the authorization
// outcome (code, implicit access token, or provider error) from the URL's
// query and fragment; URLs carrying none of these are reported as
// ErrNoAuthParams and are expected to be dropped silently.
//
// Listener bridges a Source of URLs to a sink function. It checks the
// source's initial URL synchronously before consuming subsequent events,
// so a redirect that launched the process is not lost. CallbackServer is
// a concrete Source: a small chi-served loopback HTTP endpoint that
// converts each request on the redirect path into a URL event.
package redirect
