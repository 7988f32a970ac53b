package redirect

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrNoAuthParams is returned when a URL carries neither a code, an
	// access token, nor an error parameter. Such URLs are not
	// authorization redirects and should be ignored without surfacing
	// anything to the user.
	ErrNoAuthParams = errors.New("redirect: no auth parameters in URL")

	// ErrMalformedURL is returned when the URL cannot be parsed at all.
	ErrMalformedURL = errors.New("redirect: malformed URL")
)

// Result is the authorization outcome carried by a redirect URL.
// Exactly one of Code, AccessToken, or Err is non-empty.
type Result struct {
	Code        string
	AccessToken string
	Err         string
}

// Parse extracts the authorization result from a redirect URL.
//
// The authorization code flow delivers parameters in the query string;
// the implicit flow delivers the access token in the URL fragment. Both
// locations are checked, query first. Unknown parameters are ignored.
func Parse(raw string) (*Result, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Join(ErrMalformedURL, fmt.Errorf("parse redirect url: %w", err))
	}

	if res := fromValues(u.Query()); res != nil {
		return res, nil
	}
	if u.Fragment != "" {
		if frag, err := url.ParseQuery(u.Fragment); err == nil {
			if res := fromValues(frag); res != nil {
				return res, nil
			}
		}
	}
	return nil, ErrNoAuthParams
}

func fromValues(v url.Values) *Result {
	switch {
	case v.Get("error") != "":
		return &Result{Err: v.Get("error")}
	case v.Get("code") != "":
		return &Result{Code: v.Get("code")}
	case v.Get("access_token") != "":
		return &Result{AccessToken: v.Get("access_token")}
	default:
		return nil
	}
}
