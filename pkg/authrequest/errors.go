package authrequest

import "errors"

var (
	// ErrRequestAlreadyPending is returned when a launch is attempted
	// while another request is outstanding.
	ErrRequestAlreadyPending = errors.New("authrequest: request already pending")

	// ErrMissingClientID is returned when the request config has no client ID.
	ErrMissingClientID = errors.New("authrequest: missing client ID")

	// ErrInvalidResponseType is returned for response types other than
	// "code" and "token".
	ErrInvalidResponseType = errors.New("authrequest: invalid response type")

	// ErrBrowserOpenFailed is returned when the system browser cannot be
	// launched.
	ErrBrowserOpenFailed = errors.New("authrequest: failed to open browser")
)
