// Package authgate assembles a browser-based OAuth sign-in flow for
// native and CLI clients: one reconciler merging the consent flow's
// response, externally delivered redirects, and the locally persisted
// session into a single authoritative authentication state.
//
// The subpackages can be wired individually; this package offers the
// common assembly in one call:
//
//	store := tokenstore.NewFile(path)
//	launcher := authrequest.NewBrowserLauncher(responses)
//	rec, err := authgate.New(authgate.Config{
//		ClientID:     clientID,
//		ClientSecret: clientSecret,
//		RedirectURI:  "http://127.0.0.1:8765/oauth2/callback",
//		ExchangeMode: authgate.ExchangeModeReal,
//	}, store, launcher)
package authgate

import (
	"errors"

	"github.com/feralbyte/authgate/pkg/authrequest"
	"github.com/feralbyte/authgate/pkg/oauth"
	"github.com/feralbyte/authgate/pkg/reconcile"
	"github.com/feralbyte/authgate/pkg/tokenstore"
)

// ErrInvalidExchangeMode is returned for exchange modes other than
// "real" and "mock".
var ErrInvalidExchangeMode = errors.New("authgate: invalid exchange mode")

// ExchangeMode selects the code-for-token exchange implementation.
type ExchangeMode string

const (
	// ExchangeModeReal exchanges codes against the provider's token
	// endpoint.
	ExchangeModeReal ExchangeMode = "real"

	// ExchangeModeMock uses the deterministic local stand-in; no
	// network calls are made.
	ExchangeModeMock ExchangeMode = "mock"
)

// Config holds the recognized sign-in flow options.
type Config struct {
	ClientID     string                   `env:"AUTHGATE_CLIENT_ID" yaml:"client_id"`
	ClientSecret string                   `env:"AUTHGATE_CLIENT_SECRET" yaml:"client_secret"`
	Scopes       []string                 `env:"AUTHGATE_SCOPES" envSeparator:"," yaml:"scopes"`
	RedirectURI  string                   `env:"AUTHGATE_REDIRECT_URI" yaml:"redirect_uri"`
	ResponseType authrequest.ResponseType `env:"AUTHGATE_RESPONSE_TYPE" envDefault:"code" yaml:"response_type"`
	StorageKey   string                   `env:"AUTHGATE_STORAGE_KEY" envDefault:"authgate:session" yaml:"storage_key"`
	ExchangeMode ExchangeMode             `env:"AUTHGATE_EXCHANGE_MODE" envDefault:"mock" yaml:"exchange_mode"`
}

// New assembles a reconciler from the configuration: provider selected by
// ExchangeMode, request descriptor from the client settings, persistence
// and consent-flow launch from the given collaborators.
func New(cfg Config, store tokenstore.Store, launcher authrequest.Launcher, opts ...reconcile.Option) (*reconcile.Reconciler, error) {
	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}

	reqCfg := authrequest.Config{
		ClientID:     cfg.ClientID,
		Scopes:       cfg.Scopes,
		RedirectURI:  cfg.RedirectURI,
		ResponseType: cfg.ResponseType,
	}
	return reconcile.New(provider, store, reqCfg, launcher, opts...)
}

func newProvider(cfg Config) (oauth.Provider, error) {
	switch cfg.ExchangeMode {
	case ExchangeModeMock, "":
		return oauth.NewMockProvider(cfg.ClientID, cfg.Scopes)
	case ExchangeModeReal:
		return oauth.NewGoogleProvider(oauth.GoogleConfig{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
		})
	default:
		return nil, ErrInvalidExchangeMode
	}
}
