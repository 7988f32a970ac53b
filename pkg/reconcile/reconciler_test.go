package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/feralbyte/authgate/pkg/authrequest"
	"github.com/feralbyte/authgate/pkg/oauth"
	"github.com/feralbyte/authgate/pkg/reconcile"
	"github.com/feralbyte/authgate/pkg/redirect"
	"github.com/feralbyte/authgate/pkg/tokenstore"
)

var testProfile = &oauth.Profile{
	ID:            "user-1",
	Email:         "user@example.com",
	EmailVerified: true,
	Name:          "Test User",
}

// fakeProvider counts exchange and fetch calls. Exchanges can be gated to
// hold the pipeline in flight while more events are delivered.
type fakeProvider struct {
	mu            sync.Mutex
	exchangeCalls []string
	fetchCalls    int
	exchangeErr   error
	fetchErr      error
	started       chan struct{}
	release       chan struct{}
	profile       *oauth.Profile
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) AuthCodeURL(state string, _ ...oauth2.AuthCodeOption) string {
	return "https://auth.example/consent?state=" + state
}

func (f *fakeProvider) Exchange(ctx context.Context, code, _ string) (*oauth2.Token, error) {
	f.mu.Lock()
	f.exchangeCalls = append(f.exchangeCalls, code)
	started, release, err := f.started, f.release, f.exchangeErr
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: "token-" + code, TokenType: "Bearer"}, nil
}

func (f *fakeProvider) FetchProfile(_ context.Context, _ *oauth2.Token) (*oauth.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.profile != nil {
		return f.profile, nil
	}
	return testProfile, nil
}

func (f *fakeProvider) exchanges() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.exchangeCalls...)
}

func (f *fakeProvider) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

// fakeLauncher blocks until a response is fed or the context ends,
// mimicking a browser consent flow.
type fakeLauncher struct {
	responses chan authrequest.Response
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{responses: make(chan authrequest.Response, 1)}
}

func (l *fakeLauncher) Launch(ctx context.Context, _ string) (authrequest.Response, error) {
	select {
	case resp := <-l.responses:
		return resp, nil
	case <-ctx.Done():
		return authrequest.Response{}, ctx.Err()
	}
}

func startReconciler(t *testing.T, p *fakeProvider, store tokenstore.Store, l authrequest.Launcher, opts ...reconcile.Option) *reconcile.Reconciler {
	t.Helper()

	cfg := authrequest.Config{ClientID: "client-id", RedirectURI: "http://127.0.0.1/callback"}
	rec, err := reconcile.New(p, store, cfg, l, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = rec.Run(ctx) }()
	return rec
}

func waitState(t *testing.T, rec *reconcile.Reconciler, want reconcile.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return rec.Snapshot().State == want
	}, time.Second, 5*time.Millisecond, "state never reached %s (now %s)", want, rec.Snapshot().State)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	cfg := authrequest.Config{ClientID: "client-id"}
	store := tokenstore.NewMemory()
	launcher := newFakeLauncher()

	_, err := reconcile.New(nil, store, cfg, launcher)
	require.ErrorIs(t, err, reconcile.ErrNilProvider)

	_, err = reconcile.New(&fakeProvider{}, nil, cfg, launcher)
	require.ErrorIs(t, err, reconcile.ErrNilStore)

	_, err = reconcile.New(&fakeProvider{}, store, cfg, nil)
	require.ErrorIs(t, err, reconcile.ErrNilLauncher)
}

func TestReconciler_NoStoredSession(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{}
	rec := startReconciler(t, p, tokenstore.NewMemory(), newFakeLauncher())

	waitState(t, rec, reconcile.StateUnauthenticated)
	require.Empty(t, p.exchanges(), "no network calls without a stored session")
	require.Zero(t, p.fetches())
	require.Empty(t, rec.Snapshot().Err)
}

func TestReconciler_StoredSession(t *testing.T) {
	t.Parallel()

	t.Run("valid token resolves to authenticated", func(t *testing.T) {
		t.Parallel()

		store := tokenstore.NewMemory()
		require.NoError(t, store.Save(context.Background(), &tokenstore.Session{AccessToken: "stored-token"}))

		p := &fakeProvider{}
		rec := startReconciler(t, p, store, newFakeLauncher())

		waitState(t, rec, reconcile.StateAuthenticated)
		require.Equal(t, testProfile, rec.Snapshot().Profile)
		require.Empty(t, p.exchanges(), "stored token needs no exchange")
	})

	t.Run("unauthorized token is purged", func(t *testing.T) {
		t.Parallel()

		store := tokenstore.NewMemory()
		require.NoError(t, store.Save(context.Background(), &tokenstore.Session{AccessToken: "stale-token"}))

		p := &fakeProvider{fetchErr: oauth.ErrUnauthorized}
		rec := startReconciler(t, p, store, newFakeLauncher())

		waitState(t, rec, reconcile.StateUnauthenticated)
		_, err := store.Load(context.Background())
		require.ErrorIs(t, err, tokenstore.ErrNotFound, "invalid token must be purged")
	})

	t.Run("transient fetch failure keeps the token", func(t *testing.T) {
		t.Parallel()

		store := tokenstore.NewMemory()
		require.NoError(t, store.Save(context.Background(), &tokenstore.Session{AccessToken: "good-token"}))

		p := &fakeProvider{fetchErr: oauth.ErrFetchFailed}
		rec := startReconciler(t, p, store, newFakeLauncher())

		waitState(t, rec, reconcile.StateUnauthenticated)
		require.NotEmpty(t, rec.Snapshot().Err)

		sess, err := store.Load(context.Background())
		require.NoError(t, err, "transient failures must not purge the session")
		require.Equal(t, "good-token", sess.AccessToken)
	})
}

func TestReconciler_SignIn(t *testing.T) {
	t.Parallel()

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()

		p := &fakeProvider{}
		store := tokenstore.NewMemory()
		launcher := newFakeLauncher()
		rec := startReconciler(t, p, store, launcher)
		waitState(t, rec, reconcile.StateUnauthenticated)

		require.NoError(t, rec.SignIn(context.Background()))
		launcher.responses <- authrequest.Response{Type: authrequest.TypeSuccess, Code: "abc"}

		waitState(t, rec, reconcile.StateAuthenticated)
		require.Equal(t, []string{"abc"}, p.exchanges())
		require.Equal(t, testProfile, rec.Snapshot().Profile)

		sess, err := store.Load(context.Background())
		require.NoError(t, err)
		require.Equal(t, "token-abc", sess.AccessToken)
		require.False(t, sess.IssuedAt.IsZero())
	})

	t.Run("cancel returns to unauthenticated without side effects", func(t *testing.T) {
		t.Parallel()

		p := &fakeProvider{}
		store := tokenstore.NewMemory()
		launcher := newFakeLauncher()
		rec := startReconciler(t, p, store, launcher)
		waitState(t, rec, reconcile.StateUnauthenticated)

		require.NoError(t, rec.SignIn(context.Background()))
		launcher.responses <- authrequest.Response{Type: authrequest.TypeCancel}

		waitState(t, rec, reconcile.StateUnauthenticated)
		require.Empty(t, rec.Snapshot().Err)
		require.Empty(t, p.exchanges())

		_, err := store.Load(context.Background())
		require.ErrorIs(t, err, tokenstore.ErrNotFound)
	})

	t.Run("provider error surfaces a message", func(t *testing.T) {
		t.Parallel()

		p := &fakeProvider{}
		launcher := newFakeLauncher()
		rec := startReconciler(t, p, tokenstore.NewMemory(), launcher)
		waitState(t, rec, reconcile.StateUnauthenticated)

		require.NoError(t, rec.SignIn(context.Background()))
		launcher.responses <- authrequest.Response{Type: authrequest.TypeError, Err: "access_denied"}

		waitState(t, rec, reconcile.StateUnauthenticated)
		require.Equal(t, "access_denied", rec.Snapshot().Err)
	})

	t.Run("exchange failure surfaces a message", func(t *testing.T) {
		t.Parallel()

		p := &fakeProvider{exchangeErr: oauth.ErrInvalidCode}
		launcher := newFakeLauncher()
		rec := startReconciler(t, p, tokenstore.NewMemory(), launcher)
		waitState(t, rec, reconcile.StateUnauthenticated)

		require.NoError(t, rec.SignIn(context.Background()))
		launcher.responses <- authrequest.Response{Type: authrequest.TypeSuccess, Code: "bad"}

		waitState(t, rec, reconcile.StateUnauthenticated)
		require.Equal(t, "authorization code rejected", rec.Snapshot().Err)
	})

	t.Run("second sign-in while pending is rejected", func(t *testing.T) {
		t.Parallel()

		launcher := newFakeLauncher()
		rec := startReconciler(t, &fakeProvider{}, tokenstore.NewMemory(), launcher)
		waitState(t, rec, reconcile.StateUnauthenticated)

		require.NoError(t, rec.SignIn(context.Background()))
		waitState(t, rec, reconcile.StateAuthenticating)

		err := rec.SignIn(context.Background())
		require.ErrorIs(t, err, reconcile.ErrSignInPending)
	})

	t.Run("sign-in while authenticated is rejected", func(t *testing.T) {
		t.Parallel()

		store := tokenstore.NewMemory()
		require.NoError(t, store.Save(context.Background(), &tokenstore.Session{AccessToken: "stored-token"}))
		rec := startReconciler(t, &fakeProvider{}, store, newFakeLauncher())
		waitState(t, rec, reconcile.StateAuthenticated)

		err := rec.SignIn(context.Background())
		require.ErrorIs(t, err, reconcile.ErrAlreadyAuthenticated)
	})
}

func TestReconciler_DuplicateCodeDelivery(t *testing.T) {
	t.Parallel()

	// Both orders of the racing sources must trigger exactly one exchange.
	run := func(t *testing.T, redirectFirst bool) {
		t.Helper()

		p := &fakeProvider{
			started: make(chan struct{}, 4),
			release: make(chan struct{}),
		}
		launcher := newFakeLauncher()
		rec := startReconciler(t, p, tokenstore.NewMemory(), launcher)
		waitState(t, rec, reconcile.StateUnauthenticated)

		require.NoError(t, rec.SignIn(context.Background()))
		waitState(t, rec, reconcile.StateAuthenticating)

		if redirectFirst {
			rec.HandleRedirect(redirect.Result{Code: "x"})
			<-p.started
			launcher.responses <- authrequest.Response{Type: authrequest.TypeSuccess, Code: "x"}
		} else {
			launcher.responses <- authrequest.Response{Type: authrequest.TypeSuccess, Code: "x"}
			<-p.started
			rec.HandleRedirect(redirect.Result{Code: "x"})
		}

		close(p.release)
		waitState(t, rec, reconcile.StateAuthenticated)

		require.Equal(t, []string{"x"}, p.exchanges(), "duplicate delivery must not trigger a second exchange")
		require.Equal(t, 1, p.fetches())
	}

	t.Run("redirect then response", func(t *testing.T) {
		t.Parallel()
		run(t, true)
	})

	t.Run("response then redirect", func(t *testing.T) {
		t.Parallel()
		run(t, false)
	})
}

func TestReconciler_DifferentCodesFirstWins(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{
		started: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	launcher := newFakeLauncher()
	rec := startReconciler(t, p, tokenstore.NewMemory(), launcher)
	waitState(t, rec, reconcile.StateUnauthenticated)

	require.NoError(t, rec.SignIn(context.Background()))
	waitState(t, rec, reconcile.StateAuthenticating)

	rec.HandleRedirect(redirect.Result{Code: "first"})
	<-p.started
	rec.HandleRedirect(redirect.Result{Code: "second"})

	close(p.release)
	waitState(t, rec, reconcile.StateAuthenticated)

	require.Equal(t, []string{"first"}, p.exchanges(), "the second code must be discarded")
}

func TestReconciler_ManualCode(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{}
	store := tokenstore.NewMemory()
	rec := startReconciler(t, p, store, newFakeLauncher())
	waitState(t, rec, reconcile.StateUnauthenticated)

	rec.SubmitCode("typed-in")

	waitState(t, rec, reconcile.StateAuthenticated)
	require.Equal(t, []string{"typed-in"}, p.exchanges())

	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-typed-in", sess.AccessToken)
}

func TestReconciler_ImplicitToken(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{}
	store := tokenstore.NewMemory()
	rec := startReconciler(t, p, store, newFakeLauncher())
	waitState(t, rec, reconcile.StateUnauthenticated)

	rec.HandleRedirect(redirect.Result{AccessToken: "implicit-token"})

	waitState(t, rec, reconcile.StateAuthenticated)
	require.Empty(t, p.exchanges(), "implicit grant skips the exchange")

	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "implicit-token", sess.AccessToken)
}

func TestReconciler_SignInAfterOutOfBandCompletion(t *testing.T) {
	t.Parallel()

	// Completing an attempt through the manual code path must release the
	// consent launch, or the single-flight guard would reject every later
	// sign-in.
	p := &fakeProvider{}
	store := tokenstore.NewMemory()
	launcher := newFakeLauncher()
	rec := startReconciler(t, p, store, launcher)
	waitState(t, rec, reconcile.StateUnauthenticated)

	require.NoError(t, rec.SignIn(context.Background()))
	waitState(t, rec, reconcile.StateAuthenticating)

	rec.SubmitCode("typed-in")
	waitState(t, rec, reconcile.StateAuthenticated)

	rec.SignOut()
	waitState(t, rec, reconcile.StateUnauthenticated)

	require.NoError(t, rec.SignIn(context.Background()))
	launcher.responses <- authrequest.Response{Type: authrequest.TypeSuccess, Code: "second"}

	waitState(t, rec, reconcile.StateAuthenticated)
	require.Empty(t, rec.Snapshot().Err)
	require.Equal(t, []string{"typed-in", "second"}, p.exchanges())
}

func TestReconciler_SignOut(t *testing.T) {
	t.Parallel()

	store := tokenstore.NewMemory()
	require.NoError(t, store.Save(context.Background(), &tokenstore.Session{AccessToken: "stored-token"}))
	rec := startReconciler(t, &fakeProvider{}, store, newFakeLauncher())
	waitState(t, rec, reconcile.StateAuthenticated)

	rec.SignOut()

	waitState(t, rec, reconcile.StateUnauthenticated)
	require.Nil(t, rec.Snapshot().Profile)

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestReconciler_RedirectError(t *testing.T) {
	t.Parallel()

	launcher := newFakeLauncher()
	p := &fakeProvider{}
	rec := startReconciler(t, p, tokenstore.NewMemory(), launcher)
	waitState(t, rec, reconcile.StateUnauthenticated)

	require.NoError(t, rec.SignIn(context.Background()))
	waitState(t, rec, reconcile.StateAuthenticating)

	rec.HandleRedirect(redirect.Result{Err: "consent_required"})

	waitState(t, rec, reconcile.StateUnauthenticated)
	require.Equal(t, "consent_required", rec.Snapshot().Err)
	require.Empty(t, p.exchanges())
}

func TestReconciler_OnChange(t *testing.T) {
	t.Parallel()

	type signal struct {
		authenticated bool
		profile       *oauth.Profile
	}

	var mu sync.Mutex
	var signals []signal

	p := &fakeProvider{}
	launcher := newFakeLauncher()
	rec := startReconciler(t, p, tokenstore.NewMemory(), launcher,
		reconcile.WithOnChange(func(authenticated bool, profile *oauth.Profile) {
			mu.Lock()
			defer mu.Unlock()
			signals = append(signals, signal{authenticated, profile})
		}),
	)
	waitState(t, rec, reconcile.StateUnauthenticated)

	require.NoError(t, rec.SignIn(context.Background()))
	launcher.responses <- authrequest.Response{Type: authrequest.TypeSuccess, Code: "abc"}
	waitState(t, rec, reconcile.StateAuthenticated)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, signals)
	last := signals[len(signals)-1]
	require.True(t, last.authenticated)
	require.Equal(t, testProfile, last.profile)
	require.False(t, signals[0].authenticated, "initial resolution signals unauthenticated first")
}

func TestReconciler_StoreWriteFailureDoesNotBlockTransition(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{}
	store := &failingStore{saveErr: errors.New("disk full")}
	launcher := newFakeLauncher()
	rec := startReconciler(t, p, store, launcher)
	waitState(t, rec, reconcile.StateUnauthenticated)

	require.NoError(t, rec.SignIn(context.Background()))
	launcher.responses <- authrequest.Response{Type: authrequest.TypeSuccess, Code: "abc"}

	waitState(t, rec, reconcile.StateAuthenticated)
	require.Equal(t, testProfile, rec.Snapshot().Profile)
}

// failingStore fails every write but behaves like an empty store on read.
type failingStore struct {
	saveErr error
}

func (s *failingStore) Save(context.Context, *tokenstore.Session) error { return s.saveErr }
func (s *failingStore) Load(context.Context) (*tokenstore.Session, error) {
	return nil, tokenstore.ErrNotFound
}
func (s *failingStore) Clear(context.Context) error { return s.saveErr }
