package redirect

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/feralbyte/authgate/pkg/logger"
)

const callbackPage = `<!DOCTYPE html>
<html><head><title>Signed in</title></head>
<body><p>Authentication complete. You can close this window and return to the app.</p></body></html>`

// CallbackServer is a loopback HTTP server acting as the redirect target
// for browser consent flows. Every request on the redirect path becomes a
// URL event; it implements Source so a Listener can consume it directly.
type CallbackServer struct {
	addr       string
	path       string
	urls       chan string
	onRedirect func(raw string)
	log        *slog.Logger
}

// CallbackOption configures a CallbackServer.
type CallbackOption func(*CallbackServer)

// WithCallbackLogger sets the server's logger. Default: no-op.
func WithCallbackLogger(log *slog.Logger) CallbackOption {
	return func(s *CallbackServer) {
		s.log = log
	}
}

// WithOnRedirect registers an extra callback invoked with the raw URL of
// every redirect hit, in addition to the URLs channel. This lets a second
// consumer (e.g., a pending browser launch waiting for its terminal
// response) observe the same delivery.
func WithOnRedirect(fn func(raw string)) CallbackOption {
	return func(s *CallbackServer) {
		s.onRedirect = fn
	}
}

// NewCallbackServer creates a loopback redirect server listening on addr
// (e.g., "127.0.0.1:8765") serving the given path (e.g., "/oauth2/callback").
func NewCallbackServer(addr, path string, opts ...CallbackOption) *CallbackServer {
	if path == "" {
		path = "/"
	}
	s := &CallbackServer{
		addr: addr,
		path: path,
		urls: make(chan string, 8),
		log:  logger.NewNope(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitialURL implements Source. A freshly started loopback server cannot
// have been hit before the process existed.
func (s *CallbackServer) InitialURL(context.Context) (string, error) {
	return "", nil
}

// URLs implements Source.
func (s *CallbackServer) URLs() <-chan string {
	return s.urls
}

// Handler returns the server's HTTP handler: the redirect path plus a
// 404 for everything else.
func (s *CallbackServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(s.path, s.handleRedirect)
	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *CallbackServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *CallbackServer) handleRedirect(w http.ResponseWriter, r *http.Request) {
	raw := "http://" + r.Host + r.URL.RequestURI()
	s.log.DebugContext(r.Context(), "redirect hit", slog.String("path", r.URL.Path))

	select {
	case s.urls <- raw:
	default:
		s.log.WarnContext(r.Context(), "redirect queue full, dropping URL")
	}
	if s.onRedirect != nil {
		s.onRedirect(raw)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(callbackPage))
}
