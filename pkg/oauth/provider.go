package oauth

import (
	"context"

	"golang.org/x/oauth2"
)

// Profile represents the user information retrieved from the identity
// provider's userinfo endpoint. It is replaced wholesale on each fetch,
// never merged field by field.
type Profile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

// Provider abstracts provider-specific OAuth operations.
// Implementations handle provider details internally, including how
// unauthorized responses are reported (see ErrUnauthorized).
type Provider interface {
	// Name returns the provider identifier (e.g., "google", "mock").
	Name() string

	// AuthCodeURL generates the authorization URL for the consent flow.
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string

	// Exchange trades an authorization code for tokens. It is a pure
	// function of the code and the client configuration: on failure no
	// state is mutated anywhere.
	Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error)

	// FetchProfile retrieves the user's profile using the access token.
	// A result matching ErrUnauthorized means the token is invalid and
	// should be discarded by the caller.
	FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error)
}
