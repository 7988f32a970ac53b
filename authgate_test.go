package authgate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feralbyte/authgate"
	"github.com/feralbyte/authgate/pkg/authrequest"
	"github.com/feralbyte/authgate/pkg/oauth"
	"github.com/feralbyte/authgate/pkg/tokenstore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	launcher := authrequest.LaunchFunc(func(context.Context, string) (authrequest.Response, error) {
		return authrequest.Response{Type: authrequest.TypeDismiss}, nil
	})

	t.Run("mock mode by default", func(t *testing.T) {
		t.Parallel()
		rec, err := authgate.New(authgate.Config{
			ClientID: "client-id",
		}, tokenstore.NewMemory(), launcher)
		require.NoError(t, err)
		require.NotNil(t, rec)
	})

	t.Run("real mode requires secret", func(t *testing.T) {
		t.Parallel()
		rec, err := authgate.New(authgate.Config{
			ClientID:     "client-id",
			ExchangeMode: authgate.ExchangeModeReal,
		}, tokenstore.NewMemory(), launcher)
		require.ErrorIs(t, err, oauth.ErrMissingClientSecret)
		require.Nil(t, rec)
	})

	t.Run("real mode", func(t *testing.T) {
		t.Parallel()
		rec, err := authgate.New(authgate.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			ExchangeMode: authgate.ExchangeModeReal,
		}, tokenstore.NewMemory(), launcher)
		require.NoError(t, err)
		require.NotNil(t, rec)
	})

	t.Run("unknown exchange mode", func(t *testing.T) {
		t.Parallel()
		rec, err := authgate.New(authgate.Config{
			ClientID:     "client-id",
			ExchangeMode: "staging",
		}, tokenstore.NewMemory(), launcher)
		require.ErrorIs(t, err, authgate.ErrInvalidExchangeMode)
		require.Nil(t, rec)
	})
}
