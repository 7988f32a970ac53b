package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/feralbyte/authgate/pkg/authrequest"
	"github.com/feralbyte/authgate/pkg/logger"
	"github.com/feralbyte/authgate/pkg/oauth"
	"github.com/feralbyte/authgate/pkg/redirect"
	"github.com/feralbyte/authgate/pkg/tokenstore"
)

const eventQueueSize = 64

// Reconciler owns the authentication state. All mutation happens on the
// goroutine running Run; public methods only enqueue events or read a
// snapshot.
type Reconciler struct {
	provider oauth.Provider
	store    tokenstore.Store
	reqCfg   authrequest.Config
	prompter *authrequest.Prompter
	log      *slog.Logger
	onChange OnChange
	now      func() time.Time

	events chan event

	// runCtx is set once at the top of Run, before any event is
	// processed, and is the lifetime of all worker goroutines.
	runCtx context.Context

	// Loop-owned. Touched only from the Run goroutine.
	pendingRedirectURI string
	attemptPending     bool
	attemptCancel      context.CancelFunc
	exchanging         bool

	mu   sync.RWMutex
	snap Snapshot
}

// New creates a reconciler. The launcher is what opens the consent flow;
// it is wrapped in a single-flight prompter internally.
func New(provider oauth.Provider, store tokenstore.Store, reqCfg authrequest.Config, launcher authrequest.Launcher, opts ...Option) (*Reconciler, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if store == nil {
		return nil, ErrNilStore
	}
	if launcher == nil {
		return nil, ErrNilLauncher
	}

	r := &Reconciler{
		provider: provider,
		store:    store,
		reqCfg:   reqCfg,
		log:      logger.NewNope(),
		now:      time.Now,
		events:   make(chan event, eventQueueSize),
		snap:     Snapshot{State: StateLoading},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.prompter = authrequest.NewPrompter(launcher, authrequest.WithPrompterLogger(r.log))
	return r, nil
}

// Run resolves the stored session and then processes events until ctx is
// canceled. It must be called exactly once. Results of exchanges or
// fetches still in flight at cancellation are discarded silently.
func (r *Reconciler) Run(ctx context.Context) error {
	r.runCtx = ctx
	r.resolveStoredSession(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-r.events:
			r.handle(ctx, ev)
		}
	}
}

// SignIn starts a new sign-in attempt. It fails fast with ErrSignInPending
// while an attempt is outstanding, ErrAlreadyAuthenticated while a session
// is held, and ErrNotReady before the stored session has been resolved.
func (r *Reconciler) SignIn(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case r.events <- evSignIn{reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitCode routes an operator-typed authorization code through the same
// transition as a received redirect. Empty codes are ignored.
func (r *Reconciler) SubmitCode(code string) {
	if code == "" {
		return
	}
	r.post(evRedirect{res: redirect.Result{Code: code}})
}

// HandleRedirect is the sink for a redirect listener.
func (r *Reconciler) HandleRedirect(res redirect.Result) {
	r.post(evRedirect{res: res})
}

// HandleResponse delivers the consent flow's terminal response. Launches
// started by SignIn feed this automatically; it is exported for hosts
// that drive the consent flow themselves.
func (r *Reconciler) HandleResponse(resp authrequest.Response) {
	r.post(evResponse{resp: resp})
}

// SignOut purges the stored session and clears the profile.
func (r *Reconciler) SignOut() {
	r.post(evSignOut{})
}

// Snapshot returns the current output state.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

func (r *Reconciler) post(ev event) {
	select {
	case r.events <- ev:
	default:
		r.log.Warn("event queue full, dropping event")
	}
}

// postFromWorker blocks until the event is accepted or the run context
// ends, so late results are discarded rather than delivered to a stopped
// loop.
func (r *Reconciler) postFromWorker(ev event) {
	select {
	case r.events <- ev:
	case <-r.runCtx.Done():
	}
}

func (r *Reconciler) resolveStoredSession(ctx context.Context) {
	sess, err := r.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, tokenstore.ErrNotFound) {
			// Load failures are treated like an absent session.
			r.log.WarnContext(ctx, "failed to load stored session", slog.Any("error", err))
		}
		r.transition(ctx, StateUnauthenticated, nil, "")
		return
	}

	r.log.InfoContext(ctx, "stored session found, validating token")
	r.startProfileFetch(&oauth2.Token{AccessToken: sess.AccessToken, TokenType: "Bearer"})
}

func (r *Reconciler) handle(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case evSignIn:
		ev.reply <- r.startSignIn(ctx)
	case evRedirect:
		r.handleResult(ctx, ev.res.Code, ev.res.AccessToken, ev.res.Err, "redirect")
	case evResponse:
		r.handleTerminalResponse(ctx, ev.resp)
	case evSignOut:
		r.handleSignOut(ctx)
	case evExchanged:
		r.handleExchanged(ctx, ev)
	case evProfile:
		r.handleProfile(ctx, ev)
	}
}

func (r *Reconciler) startSignIn(ctx context.Context) error {
	switch {
	case r.snap.State == StateLoading:
		return ErrNotReady
	case r.snap.State == StateAuthenticated:
		return ErrAlreadyAuthenticated
	case r.attemptPending || r.exchanging || r.snap.State == StateAuthenticating:
		return ErrSignInPending
	}

	req, err := authrequest.NewRequest(r.reqCfg)
	if err != nil {
		return err
	}
	authURL := r.provider.AuthCodeURL(req.State, req.AuthCodeOptions()...)

	promptCtx, cancel := context.WithCancel(r.runCtx)
	r.attemptPending = true
	r.attemptCancel = cancel
	r.pendingRedirectURI = req.RedirectURI
	r.transition(ctx, StateAuthenticating, nil, "")
	r.log.InfoContext(ctx, "authorization request issued",
		slog.String("provider", r.provider.Name()),
		slog.String("response_type", string(req.ResponseType)))

	go func() {
		resp, err := r.prompter.Prompt(promptCtx, authURL)
		if err != nil {
			resp = authrequest.Response{Type: authrequest.TypeError, Err: err.Error()}
		}
		r.postFromWorker(evResponse{resp: resp})
	}()
	return nil
}

// concludeAttempt clears the pending attempt and cancels its consent
// launch. Without the cancel, an attempt completed by another source
// (manual code, redirect) would leave the launch goroutine waiting
// forever and its single-flight guard held, blocking every later
// sign-in.
func (r *Reconciler) concludeAttempt() {
	r.attemptPending = false
	if r.attemptCancel != nil {
		r.attemptCancel()
		r.attemptCancel = nil
	}
}

func (r *Reconciler) handleTerminalResponse(ctx context.Context, resp authrequest.Response) {
	switch resp.Type {
	case authrequest.TypeSuccess:
		r.handleResult(ctx, resp.Code, resp.AccessToken, resp.Err, "response")
	case authrequest.TypeCancel, authrequest.TypeDismiss:
		if r.snap.State == StateAuthenticating && !r.exchanging {
			r.concludeAttempt()
			r.log.InfoContext(ctx, "consent flow ended without result", slog.String("outcome", string(resp.Type)))
			r.transition(ctx, StateUnauthenticated, nil, "")
		}
	case authrequest.TypeError:
		msg := resp.Err
		if msg == "" {
			msg = "authentication failed"
		}
		r.handleResult(ctx, "", "", msg, "response")
	}
}

// handleResult is the shared transition for authorization outcomes from
// any source: redirects, terminal responses, and manual code entry.
func (r *Reconciler) handleResult(ctx context.Context, code, accessToken, errMsg, source string) {
	switch {
	case errMsg != "":
		if r.snap.State == StateAuthenticating && !r.exchanging {
			r.concludeAttempt()
			r.log.WarnContext(ctx, "authorization failed", slog.String("source", source), slog.String("error", errMsg))
			r.transition(ctx, StateUnauthenticated, nil, errMsg)
		}
	case accessToken != "":
		r.acceptToken(ctx, accessToken, source)
	case code != "":
		r.acceptCode(ctx, code, source)
	}
}

// acceptCode starts the one exchange for the current attempt. The pending
// attempt is cleared in the same transition that marks the exchange in
// flight, so any later delivery of the same authorization, whether from
// the other racing source or a repeated deep link, is a no-op.
func (r *Reconciler) acceptCode(ctx context.Context, code, source string) {
	if !r.codeAccepted(ctx, source) {
		return
	}

	redirectURI := r.pendingRedirectURI
	if redirectURI == "" {
		redirectURI = r.reqCfg.RedirectURI
	}
	r.concludeAttempt()
	r.exchanging = true
	r.transition(ctx, StateAuthenticating, nil, "")
	r.log.InfoContext(ctx, "authorization code accepted", slog.String("source", source))

	go func() {
		token, err := r.provider.Exchange(r.runCtx, code, redirectURI)
		r.postFromWorker(evExchanged{token: token, err: err})
	}()
}

// acceptToken handles the implicit flow: the redirect carried the access
// token itself, so persistence and profile fetch proceed with no exchange.
func (r *Reconciler) acceptToken(ctx context.Context, accessToken, source string) {
	if !r.codeAccepted(ctx, source) {
		return
	}

	r.concludeAttempt()
	r.transition(ctx, StateAuthenticating, nil, "")
	r.log.InfoContext(ctx, "implicit access token accepted", slog.String("source", source))

	token := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	r.persist(ctx, token)
	r.startProfileFetch(token)
}

// codeAccepted decides whether an authorization outcome is actionable in
// the current state. Codes are accepted while an attempt is outstanding
// and, matching out-of-band completions (manual entry, launch via
// redirect URL), from the unauthenticated idle state.
func (r *Reconciler) codeAccepted(ctx context.Context, source string) bool {
	if r.exchanging {
		r.log.InfoContext(ctx, "duplicate authorization ignored, exchange already in flight", slog.String("source", source))
		return false
	}
	switch r.snap.State {
	case StateAuthenticating, StateUnauthenticated:
		return true
	default:
		r.log.InfoContext(ctx, "authorization ignored in current state",
			slog.String("source", source), slog.String("state", r.snap.State.String()))
		return false
	}
}

func (r *Reconciler) handleExchanged(ctx context.Context, ev evExchanged) {
	if ev.err != nil {
		r.exchanging = false
		r.log.WarnContext(ctx, "token exchange failed", slog.Any("error", ev.err))
		msg := "token exchange failed"
		if errors.Is(ev.err, oauth.ErrInvalidCode) {
			msg = "authorization code rejected"
		}
		r.transition(ctx, StateUnauthenticated, nil, msg)
		return
	}

	r.persist(ctx, ev.token)
	r.startProfileFetch(ev.token)
}

func (r *Reconciler) handleProfile(ctx context.Context, ev evProfile) {
	r.exchanging = false
	if ev.err != nil {
		if errors.Is(ev.err, oauth.ErrUnauthorized) {
			// The stored token is invalid; keeping it would just repeat
			// this failure on the next start.
			r.log.WarnContext(ctx, "access token rejected, purging stored session")
			if cerr := r.store.Clear(ctx); cerr != nil {
				r.log.WarnContext(ctx, "failed to purge stored session", slog.Any("error", cerr))
			}
			r.transition(ctx, StateUnauthenticated, nil, "")
			return
		}
		r.log.WarnContext(ctx, "profile fetch failed", slog.Any("error", ev.err))
		r.transition(ctx, StateUnauthenticated, nil, "failed to fetch profile")
		return
	}

	r.transition(ctx, StateAuthenticated, ev.profile, "")
}

func (r *Reconciler) handleSignOut(ctx context.Context) {
	switch r.snap.State {
	case StateAuthenticated:
		if err := r.store.Clear(ctx); err != nil {
			r.log.WarnContext(ctx, "failed to clear stored session", slog.Any("error", err))
		}
		r.log.InfoContext(ctx, "signed out")
		r.transition(ctx, StateUnauthenticated, nil, "")
	case StateUnauthenticated:
		// Clears a lingering error message, nothing else.
		r.transition(ctx, StateUnauthenticated, nil, "")
	default:
	}
}

func (r *Reconciler) persist(ctx context.Context, token *oauth2.Token) {
	sess := &tokenstore.Session{AccessToken: token.AccessToken, IssuedAt: r.now()}
	if err := r.store.Save(ctx, sess); err != nil {
		// Store failures never block the in-memory transition.
		r.log.WarnContext(ctx, "failed to persist session", slog.Any("error", err))
	}
}

func (r *Reconciler) startProfileFetch(token *oauth2.Token) {
	r.exchanging = true
	go func() {
		profile, err := r.provider.FetchProfile(r.runCtx, token)
		r.postFromWorker(evProfile{profile: profile, err: err})
	}()
}

func (r *Reconciler) transition(ctx context.Context, state State, profile *oauth.Profile, errMsg string) {
	r.mu.Lock()
	prev := r.snap
	r.snap = Snapshot{State: state, Profile: profile, Err: errMsg}
	r.mu.Unlock()

	if prev.State == state && prev.Profile == profile && prev.Err == errMsg {
		return
	}
	r.log.DebugContext(ctx, "state transition",
		slog.String("from", prev.State.String()),
		slog.String("to", state.String()))
	if r.onChange != nil {
		r.onChange(state == StateAuthenticated, profile)
	}
}
