package oauth

import "errors"

var (
	// ErrMissingClientID is returned when the OAuth client ID is not provided.
	ErrMissingClientID = errors.New("oauth: missing client ID")

	// ErrMissingClientSecret is returned when the OAuth client secret is not provided.
	ErrMissingClientSecret = errors.New("oauth: missing client secret")

	// ErrInvalidCode is returned when the token endpoint rejects the
	// authorization code.
	ErrInvalidCode = errors.New("oauth: invalid authorization code")

	// ErrExchangeFailed is returned when the code-for-token exchange fails
	// for reasons other than code rejection (network, server errors).
	ErrExchangeFailed = errors.New("oauth: token exchange failed")

	// ErrUnauthorized is returned when the provider rejects the access token.
	// Callers should treat the stored session as invalid and purge it.
	ErrUnauthorized = errors.New("oauth: access token rejected")

	// ErrFetchFailed is returned when fetching the profile from the provider fails.
	ErrFetchFailed = errors.New("oauth: failed to fetch from provider")

	// ErrRequestFailed is returned when the provider returns a non-OK status.
	ErrRequestFailed = errors.New("oauth: request returned non-OK status")

	// ErrDecodeFailed is returned when decoding the provider response fails.
	ErrDecodeFailed = errors.New("oauth: failed to decode response")

	// ErrNilResponse is returned when the provider returns a nil response.
	ErrNilResponse = errors.New("oauth: nil response from provider")
)
