package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"
)

const (
	// GoogleProviderName is the identifier for the Google OAuth provider.
	GoogleProviderName = "google"
	googleUserInfoURL  = "https://www.googleapis.com/userinfo/v2/me"
)

// GoogleDefaultScopes returns the default scopes for Google OAuth.
func GoogleDefaultScopes() []string {
	return []string{
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/userinfo.profile",
	}
}

// GoogleConfig holds Google OAuth configuration.
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID,required"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET,required"`
	RedirectURL  string   `env:"GOOGLE_OAUTH_REDIRECT_URL" envDefault:""`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:","`
}

// GoogleProvider implements Provider for Google OAuth.
type GoogleProvider struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewGoogleProvider creates a new Google OAuth provider.
// Returns an error if ClientID or ClientSecret is empty.
func NewGoogleProvider(cfg GoogleConfig, opts ...Option) (*GoogleProvider, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = GoogleDefaultScopes()
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     googleOAuth.Endpoint,
		},
		httpClient: o.httpClient,
	}, nil
}

// Name returns the provider identifier.
func (p *GoogleProvider) Name() string {
	return GoogleProviderName
}

// AuthCodeURL generates the authorization URL.
func (p *GoogleProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return p.config.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for tokens. The optional
// redirectURI overrides the configured redirect URL for flows where the
// redirect target varies per request (e.g., loopback servers on ephemeral
// ports).
func (p *GoogleProvider) Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	cfg := p.config
	if redirectURI != "" {
		cfg = &oauth2.Config{
			ClientID:     p.config.ClientID,
			ClientSecret: p.config.ClientSecret,
			RedirectURL:  redirectURI,
			Scopes:       p.config.Scopes,
			Endpoint:     p.config.Endpoint,
		}
	}

	ctx = p.contextWithHTTPClient(ctx)
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
			retrieveErr.Response.StatusCode >= 400 && retrieveErr.Response.StatusCode < 500 {
			return nil, errors.Join(ErrInvalidCode, err)
		}
		return nil, errors.Join(ErrExchangeFailed, err)
	}
	return token, nil
}

// FetchProfile retrieves user information from Google.
// A 401 or 403 from the userinfo endpoint is reported as ErrUnauthorized.
func (p *GoogleProvider) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	ctx = p.contextWithHTTPClient(ctx)
	client := p.config.Client(ctx, token)

	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, errors.Join(ErrFetchFailed, fmt.Errorf("fetch userinfo: %w", err))
	}
	if resp == nil {
		return nil, errors.Join(ErrNilResponse, errors.New("unexpected nil response from google userinfo endpoint"))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.Join(ErrUnauthorized, fmt.Errorf("userinfo request rejected: status=%d body=%s", resp.StatusCode, body))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.Join(ErrRequestFailed, fmt.Errorf("userinfo request failed: status=%d body=%s", resp.StatusCode, body))
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, errors.Join(ErrDecodeFailed, fmt.Errorf("decode userinfo: %w", err))
	}

	return &profile, nil
}

func (p *GoogleProvider) contextWithHTTPClient(ctx context.Context) context.Context {
	if p.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	return ctx
}
