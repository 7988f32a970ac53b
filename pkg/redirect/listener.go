package redirect

import (
	"context"
	"errors"
	"log/slog"

	"github.com/feralbyte/authgate/pkg/logger"
)

// Source delivers redirect URLs. A process has one source for its
// lifetime; implementations include CallbackServer and StaticSource.
type Source interface {
	// InitialURL returns the URL the process was launched with, if any.
	// An empty string means the process was not started by a redirect.
	InitialURL(ctx context.Context) (string, error)

	// URLs returns the channel of subsequently delivered URLs. The
	// channel may be closed when the source shuts down.
	URLs() <-chan string
}

// Sink receives one Result per parseable redirect URL.
type Sink func(Result)

// Listener subscribes to a Source and forwards parsed authorization
// results to a Sink. URLs without auth parameters are dropped silently;
// malformed URLs are logged at debug level and dropped.
type Listener struct {
	src  Source
	sink Sink
	log  *slog.Logger
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithListenerLogger sets the listener's logger. Default: no-op.
func WithListenerLogger(log *slog.Logger) ListenerOption {
	return func(l *Listener) {
		l.log = log
	}
}

// NewListener creates a listener over src delivering to sink.
func NewListener(src Source, sink Sink, opts ...ListenerOption) *Listener {
	l := &Listener{
		src:  src,
		sink: sink,
		log:  logger.NewNope(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run consumes the source until ctx is canceled or the source's channel
// closes. The initial URL is checked synchronously before any subsequent
// event is read, so a redirect that arrived before the listener attached
// is never missed.
func (l *Listener) Run(ctx context.Context) error {
	initial, err := l.src.InitialURL(ctx)
	if err != nil {
		l.log.WarnContext(ctx, "failed to read initial redirect URL", slog.Any("error", err))
	} else if initial != "" {
		l.deliver(ctx, initial)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-l.src.URLs():
			if !ok {
				return nil
			}
			l.deliver(ctx, raw)
		}
	}
}

func (l *Listener) deliver(ctx context.Context, raw string) {
	res, err := Parse(raw)
	if err != nil {
		if !errors.Is(err, ErrNoAuthParams) {
			l.log.DebugContext(ctx, "ignoring unparseable redirect URL", slog.Any("error", err))
		}
		return
	}
	l.sink(*res)
}

// StaticSource is a Source fed manually: an optional initial URL plus a
// Deliver method for subsequent ones. Used to inject launch URLs and in
// tests.
type StaticSource struct {
	initial string
	urls    chan string
}

// NewStaticSource creates a source with the given initial URL (may be
// empty).
func NewStaticSource(initial string) *StaticSource {
	return &StaticSource{
		initial: initial,
		urls:    make(chan string, 8),
	}
}

// InitialURL returns the URL the source was created with.
func (s *StaticSource) InitialURL(context.Context) (string, error) {
	return s.initial, nil
}

// URLs returns the delivery channel.
func (s *StaticSource) URLs() <-chan string {
	return s.urls
}

// Deliver queues a URL for the listener. Drops the URL if the queue is
// full rather than blocking the caller.
func (s *StaticSource) Deliver(raw string) {
	select {
	case s.urls <- raw:
	default:
	}
}
