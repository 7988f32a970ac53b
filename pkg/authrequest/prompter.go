package authrequest

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/feralbyte/authgate/pkg/logger"
)

// Launcher opens the consent flow for an authorization URL and blocks
// until exactly one terminal response is observed. Implementations wrap
// external collaborators (system browser, in-app browser session).
type Launcher interface {
	Launch(ctx context.Context, authURL string) (Response, error)
}

// LaunchFunc adapts a function to the Launcher interface.
type LaunchFunc func(ctx context.Context, authURL string) (Response, error)

// Launch implements Launcher.
func (f LaunchFunc) Launch(ctx context.Context, authURL string) (Response, error) {
	return f(ctx, authURL)
}

// Prompter guards a Launcher with the single-pending-request rule.
type Prompter struct {
	launcher Launcher
	pending  atomic.Bool
	log      *slog.Logger
}

// PrompterOption configures a Prompter.
type PrompterOption func(*Prompter)

// WithPrompterLogger sets the prompter's logger. Default: no-op.
func WithPrompterLogger(log *slog.Logger) PrompterOption {
	return func(p *Prompter) {
		p.log = log
	}
}

// NewPrompter wraps launcher.
func NewPrompter(launcher Launcher, opts ...PrompterOption) *Prompter {
	p := &Prompter{
		launcher: launcher,
		log:      logger.NewNope(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prompt launches the consent flow and waits for its terminal response.
// A second call while one is outstanding fails fast with
// ErrRequestAlreadyPending. Context cancellation while waiting yields a
// dismiss response, not an error: the flow ended without an outcome.
func (p *Prompter) Prompt(ctx context.Context, authURL string) (Response, error) {
	if !p.pending.CompareAndSwap(false, true) {
		return Response{}, ErrRequestAlreadyPending
	}
	defer p.pending.Store(false)

	resp, err := p.launcher.Launch(ctx, authURL)
	if err != nil {
		if ctx.Err() != nil {
			p.log.DebugContext(ctx, "consent flow ended by context cancellation")
			return Response{Type: TypeDismiss}, nil
		}
		return Response{}, err
	}
	return resp, nil
}

// Pending reports whether a launch is currently outstanding.
func (p *Prompter) Pending() bool {
	return p.pending.Load()
}
