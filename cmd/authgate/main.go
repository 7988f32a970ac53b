// Command authgate demonstrates the sign-in flow end to end: it runs a
// loopback redirect server, opens the system browser for consent, and
// prints the reconciled authentication state. Codes can also be pasted
// manually for flows where the redirect cannot reach this machine.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/feralbyte/authgate"
	"github.com/feralbyte/authgate/pkg/authrequest"
	"github.com/feralbyte/authgate/pkg/logger"
	"github.com/feralbyte/authgate/pkg/oauth"
	"github.com/feralbyte/authgate/pkg/reconcile"
	"github.com/feralbyte/authgate/pkg/redirect"
	"github.com/feralbyte/authgate/pkg/redisconn"
	"github.com/feralbyte/authgate/pkg/tokenstore"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	initialURL := flag.String("initial-url", "", "redirect URL the app was launched with, if any")
	flag.Parse()

	if err := run(*configPath, *initialURL); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "authgate:", err)
		os.Exit(1)
	}
}

func run(configPath, initialURL string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := logger.New(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	// The callback server feeds two consumers with the same delivery:
	// the redirect listener and the pending browser launch. The
	// reconciler is responsible for collapsing the duplicates.
	responses := make(chan authrequest.Response, 1)
	server := redirect.NewCallbackServer(cfg.ListenAddr, cfg.CallbackPath,
		redirect.WithCallbackLogger(log),
		redirect.WithOnRedirect(func(raw string) {
			res, err := redirect.Parse(raw)
			if err != nil {
				return
			}
			resp := authrequest.Response{Type: authrequest.TypeSuccess, Code: res.Code, AccessToken: res.AccessToken}
			if res.Err != "" {
				resp = authrequest.Response{Type: authrequest.TypeError, Err: res.Err}
			}
			select {
			case responses <- resp:
			default:
			}
		}),
	)

	launcher := authrequest.NewBrowserLauncher(responses)
	rec, err := authgate.New(cfg.Flow, store, launcher,
		reconcile.WithLogger(log),
		reconcile.WithOnChange(printAuthState),
	)
	if err != nil {
		return err
	}

	src := &launchSource{initial: initialURL, urls: server.URLs()}
	listener := redirect.NewListener(src, rec.HandleRedirect, redirect.WithListenerLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })
	g.Go(func() error { return listener.Run(ctx) })
	g.Go(func() error { return rec.Run(ctx) })
	g.Go(func() error { return prompt(ctx, stop, rec) })

	return g.Wait()
}

func newStore(ctx context.Context, cfg *config) (tokenstore.Store, error) {
	if cfg.RedisURL != "" {
		client, err := redisconn.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return tokenstore.NewRedis(client, cfg.Flow.StorageKey), nil
	}
	return tokenstore.NewFile(cfg.SessionFile), nil
}

// launchSource combines the URL the process was started with and the
// loopback server's deliveries into one redirect source.
type launchSource struct {
	initial string
	urls    <-chan string
}

func (s *launchSource) InitialURL(context.Context) (string, error) { return s.initial, nil }
func (s *launchSource) URLs() <-chan string                        { return s.urls }

func printAuthState(authenticated bool, profile *oauth.Profile) {
	if !authenticated {
		fmt.Println("signed out")
		return
	}
	fmt.Printf("signed in as %s <%s>\n", profile.Name, profile.Email)
	if profile.Picture != "" {
		fmt.Printf("  picture: %s\n", profile.Picture)
	}
}

func prompt(ctx context.Context, stop func(), rec *reconcile.Reconciler) error {
	fmt.Println("commands: login | code <authorization-code> | state | signout | quit")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			handleCommand(ctx, stop, rec, strings.TrimSpace(line))
		}
	}
}

func handleCommand(ctx context.Context, stop func(), rec *reconcile.Reconciler, line string) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "":
	case "login":
		if err := rec.SignIn(ctx); err != nil {
			fmt.Println("sign-in:", err)
		}
	case "code":
		if strings.TrimSpace(arg) == "" {
			fmt.Println("usage: code <authorization-code>")
			return
		}
		rec.SubmitCode(strings.TrimSpace(arg))
	case "state":
		snap := rec.Snapshot()
		fmt.Println("state:", snap.State)
		if snap.Err != "" {
			fmt.Println("error:", snap.Err)
		}
	case "signout":
		rec.SignOut()
	case "quit", "exit":
		stop()
	default:
		fmt.Println("unknown command:", cmd)
	}
}
