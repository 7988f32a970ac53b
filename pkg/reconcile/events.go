package reconcile

import (
	"golang.org/x/oauth2"

	"github.com/feralbyte/authgate/pkg/authrequest"
	"github.com/feralbyte/authgate/pkg/oauth"
	"github.com/feralbyte/authgate/pkg/redirect"
)

// event is the closed set of inputs to the transition loop.
type event interface {
	isEvent()
}

// evSignIn requests a new attempt; the loop replies with nil or a
// rejection error.
type evSignIn struct {
	reply chan error
}

// evRedirect carries a parsed redirect result from the listener or the
// manual code entry path.
type evRedirect struct {
	res redirect.Result
}

// evResponse carries the consent flow's terminal response.
type evResponse struct {
	resp authrequest.Response
}

// evSignOut requests session teardown.
type evSignOut struct{}

// evExchanged reports the outcome of a code-for-token exchange worker.
type evExchanged struct {
	token *oauth2.Token
	err   error
}

// evProfile reports the outcome of a profile fetch worker.
type evProfile struct {
	profile *oauth.Profile
	err     error
}

func (evSignIn) isEvent()    {}
func (evRedirect) isEvent()  {}
func (evResponse) isEvent()  {}
func (evSignOut) isEvent()   {}
func (evExchanged) isEvent() {}
func (evProfile) isEvent()   {}
