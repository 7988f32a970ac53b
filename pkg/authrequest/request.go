package authrequest

import (
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ResponseType selects the OAuth grant variant.
type ResponseType string

const (
	// ResponseTypeCode requests an authorization code to be exchanged
	// server-side for a token.
	ResponseTypeCode ResponseType = "code"

	// ResponseTypeToken requests an access token directly in the
	// redirect (implicit grant), skipping the exchange.
	ResponseTypeToken ResponseType = "token"
)

// Config describes how authorization requests are built. The redirect-URI
// strategy (custom HTTPS relay vs. app scheme vs. loopback) is just a
// value here, not a separate implementation.
type Config struct {
	ClientID     string
	Scopes       []string
	RedirectURI  string
	ResponseType ResponseType
}

// Request is one outstanding authorization request descriptor.
type Request struct {
	ID           string
	State        string
	ClientID     string
	Scopes       []string
	RedirectURI  string
	ResponseType ResponseType
}

// NewRequest builds a request from cfg. Apart from the generated ID and
// state parameter, the result is a pure function of the configuration.
func NewRequest(cfg Config) (*Request, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	rt := cfg.ResponseType
	if rt == "" {
		rt = ResponseTypeCode
	}
	if rt != ResponseTypeCode && rt != ResponseTypeToken {
		return nil, ErrInvalidResponseType
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"profile", "email"}
	}

	return &Request{
		ID:           uuid.NewString(),
		State:        uuid.NewString(),
		ClientID:     cfg.ClientID,
		Scopes:       scopes,
		RedirectURI:  cfg.RedirectURI,
		ResponseType: rt,
	}, nil
}

// AuthCodeOptions returns the oauth2 URL options encoding this request's
// variant choices, for use with Provider.AuthCodeURL.
func (r *Request) AuthCodeOptions() []oauth2.AuthCodeOption {
	var opts []oauth2.AuthCodeOption
	if r.ResponseType == ResponseTypeToken {
		opts = append(opts, oauth2.SetAuthURLParam("response_type", "token"))
	}
	if r.RedirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", r.RedirectURI))
	}
	return opts
}
