package authrequest

// Type is the terminal outcome of a launched authorization request.
type Type string

const (
	// TypeSuccess means the provider returned an authorization result.
	TypeSuccess Type = "success"

	// TypeCancel means the user explicitly canceled the consent flow.
	TypeCancel Type = "cancel"

	// TypeDismiss means the flow ended without an observable outcome
	// (browser closed, user returned to the app, context canceled).
	TypeDismiss Type = "dismiss"

	// TypeError means the provider reported an error.
	TypeError Type = "error"
)

// Response is the single terminal response observed for a launch.
// For TypeSuccess exactly one of Code or AccessToken is set; for
// TypeError Err carries the provider's error string.
type Response struct {
	Type        Type
	Code        string
	AccessToken string
	Err         string
}
