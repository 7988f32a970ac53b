package redirect_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feralbyte/authgate/pkg/redirect"
)

func TestCallbackServer_RedirectHit(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var mirrored []string

	s := redirect.NewCallbackServer("127.0.0.1:0", "/oauth2/callback",
		redirect.WithOnRedirect(func(raw string) {
			mu.Lock()
			defer mu.Unlock()
			mirrored = append(mirrored, raw)
		}),
	)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/oauth2/callback?code=abc&state=xyz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "Authentication complete")

	select {
	case raw := <-s.URLs():
		res, err := redirect.Parse(raw)
		require.NoError(t, err)
		require.Equal(t, "abc", res.Code)
	case <-time.After(time.Second):
		t.Fatal("no URL delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, mirrored, 1, "onRedirect must see the same delivery")
}

func TestCallbackServer_OtherPathsNotFound(t *testing.T) {
	t.Parallel()

	s := redirect.NewCallbackServer("127.0.0.1:0", "/oauth2/callback")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/favicon.ico")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	select {
	case <-s.URLs():
		t.Fatal("unexpected URL event for unknown path")
	default:
	}
}

func TestCallbackServer_InitialURLEmpty(t *testing.T) {
	t.Parallel()

	s := redirect.NewCallbackServer("127.0.0.1:0", "/cb")
	initial, err := s.InitialURL(context.Background())
	require.NoError(t, err)
	require.Empty(t, initial)
}
