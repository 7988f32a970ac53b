package oauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// MockProviderName is the identifier for the mock OAuth provider.
const MockProviderName = "mock"

// MockTokenPrefix prefixes every access token minted by MockProvider, so
// mock sessions are recognizable at a glance in stores and logs.
const MockTokenPrefix = "mock_token_"

// MockProvider is an explicit stand-in for a real identity provider. It
// performs no network I/O: Exchange mints a token that is a pure function
// of the authorization code, and FetchProfile synthesizes a fixed demo
// profile. Use it for demos, offline development, and tests; never in
// production.
type MockProvider struct {
	clientID string
	scopes   []string
}

// NewMockProvider creates a mock provider. Returns an error if clientID
// is empty, matching the real provider's contract.
func NewMockProvider(clientID string, scopes []string) (*MockProvider, error) {
	if clientID == "" {
		return nil, ErrMissingClientID
	}
	if len(scopes) == 0 {
		scopes = []string{"profile", "email"}
	}
	return &MockProvider{clientID: clientID, scopes: scopes}, nil
}

// Name returns the provider identifier.
func (p *MockProvider) Name() string {
	return MockProviderName
}

// AuthCodeURL generates a consent URL in the same shape a real provider
// would produce. Nothing serves it; it exists so flows that display or log
// the URL behave identically in mock mode.
func (p *MockProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	v := url.Values{
		"response_type": {"code"},
		"client_id":     {p.clientID},
		"scope":         {strings.Join(p.scopes, " ")},
		"state":         {state},
	}
	return "https://auth.invalid/o/oauth2/auth?" + v.Encode()
}

// Exchange mints a deterministic access token from the code. An empty
// code is rejected with ErrInvalidCode, so cancellation paths behave the
// same as against a real endpoint.
func (p *MockProvider) Exchange(_ context.Context, code, _ string) (*oauth2.Token, error) {
	if code == "" {
		return nil, ErrInvalidCode
	}
	sum := sha256.Sum256([]byte(code))
	return &oauth2.Token{
		AccessToken: MockTokenPrefix + hex.EncodeToString(sum[:6]),
		TokenType:   "Bearer",
	}, nil
}

// FetchProfile synthesizes a demo profile. Tokens not minted by this
// provider are rejected with ErrUnauthorized, which lets the purge-on-
// invalid-token path be exercised end to end in mock mode.
func (p *MockProvider) FetchProfile(_ context.Context, token *oauth2.Token) (*Profile, error) {
	if token == nil || !strings.HasPrefix(token.AccessToken, MockTokenPrefix) {
		return nil, ErrUnauthorized
	}
	return &Profile{
		ID:            "demo-user-id",
		Email:         "test@example.com",
		EmailVerified: true,
		Name:          "Test User",
		GivenName:     "Test",
		FamilyName:    "User",
		Picture:       "https://ui-avatars.com/api/?name=Test+User&background=random",
		Locale:        "en",
	}, nil
}
