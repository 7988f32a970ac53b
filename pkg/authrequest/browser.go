package authrequest

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
)

// BrowserLauncher opens the system browser at the authorization URL and
// waits for the terminal response to arrive on a channel, typically fed
// by a redirect callback server. The browser itself and the redirect
// delivery are external collaborators; this type only coordinates them.
type BrowserLauncher struct {
	responses <-chan Response
	open      func(ctx context.Context, url string) error
}

// BrowserOption configures a BrowserLauncher.
type BrowserOption func(*BrowserLauncher)

// WithOpenFunc replaces the command used to open the browser. Useful in
// tests and on platforms without xdg-open.
func WithOpenFunc(open func(ctx context.Context, url string) error) BrowserOption {
	return func(b *BrowserLauncher) {
		b.open = open
	}
}

// NewBrowserLauncher creates a launcher whose terminal responses arrive
// on responses.
func NewBrowserLauncher(responses <-chan Response, opts ...BrowserOption) *BrowserLauncher {
	b := &BrowserLauncher{
		responses: responses,
		open:      openSystemBrowser,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Launch opens the browser and blocks until a response arrives or ctx is
// canceled. Cancellation is reported as a context error; Prompter maps it
// to a dismiss. Responses buffered before the launch belong to an earlier
// flow and are discarded, never consumed as this launch's outcome.
func (b *BrowserLauncher) Launch(ctx context.Context, authURL string) (Response, error) {
drain:
	for {
		select {
		case _, ok := <-b.responses:
			if !ok {
				break drain
			}
		default:
			break drain
		}
	}

	if err := b.open(ctx, authURL); err != nil {
		return Response{}, errors.Join(ErrBrowserOpenFailed, err)
	}

	select {
	case resp, ok := <-b.responses:
		if !ok {
			return Response{Type: TypeDismiss}, nil
		}
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func openSystemBrowser(ctx context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}
