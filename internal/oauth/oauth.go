// ABOUTME: Google sign-in through a loopback callback server
// ABOUTME: Captures the fallback token from the redirect, then refreshes the session

package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samarblogs/blogcli/internal/client"
	"github.com/samarblogs/blogcli/internal/session"
	"github.com/samarblogs/blogcli/internal/tokenstore"
)

// CallbackPath is where the backend redirects after Google consent
const CallbackPath = "/auth/callback"

// DefaultSettle is how long to wait after the callback before checking
// the session, giving the backend time to commit its cookie.
const DefaultSettle = time.Second

// ErrOAuthFailed means sign-in did not produce an authenticated session
var ErrOAuthFailed = errors.New("oauth sign-in failed")

// CallbackError is a failure the backend reported through the redirect
type CallbackError struct {
	Code    string
	Details string
}

func (e *CallbackError) Error() string {
	switch e.Code {
	case "oauth_failed":
		return "Google sign-in was cancelled or failed. Please try again."
	case "no_user_data":
		return "Unable to retrieve your Google account information. Please try again."
	case "oauth_callback_failed":
		if e.Details != "" {
			return "Authentication failed: " + e.Details
		}
		return "There was an issue completing your Google sign-in. Please try again."
	case "migration_required":
		return "Your account needs to be updated. Please contact support."
	case "account_exists":
		return "An account with this email already exists. Please try signing in with your password."
	default:
		return "Authentication error: " + e.Code
	}
}

func (e *CallbackError) Unwrap() error {
	return ErrOAuthFailed
}

// Session is the part of the session store the flow drives
type Session interface {
	Refresh(ctx context.Context)
	State() session.State
}

// Flow runs one Google sign-in
type Flow struct {
	tokens  tokenstore.Store
	sess    Session
	authURL func(redirect string) string
	open    func(url string) error
	addr    string
	settle  time.Duration
}

// Option configures a Flow
type Option func(*Flow)

// WithOpener sets how the sign-in URL is shown to the user, e.g. by
// printing it or launching a browser.
func WithOpener(open func(url string) error) Option {
	return func(f *Flow) {
		f.open = open
	}
}

// WithListenAddr sets the loopback address. The default picks a free port.
func WithListenAddr(addr string) Option {
	return func(f *Flow) {
		f.addr = addr
	}
}

// WithSettle overrides DefaultSettle
func WithSettle(d time.Duration) Option {
	return func(f *Flow) {
		f.settle = d
	}
}

// New creates a flow that stores the token in tokens and confirms the
// result through sess. authURL builds the provider URL for a redirect,
// normally client.GoogleAuthURL.
func New(tokens tokenstore.Store, sess Session, authURL func(redirect string) string, opts ...Option) *Flow {
	f := &Flow{
		tokens:  tokens,
		sess:    sess,
		authURL: authURL,
		open:    func(string) error { return nil },
		addr:    "127.0.0.1:0",
		settle:  DefaultSettle,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Pending is a sign-in waiting for the browser to come back
type Pending struct {
	// URL is the address the user must open to sign in
	URL string

	ctx  context.Context
	flow *Flow
	g    *errgroup.Group
}

// Start listens for the callback and returns the sign-in URL without
// opening it. Call Wait on the result to finish.
func (f *Flow) Start(ctx context.Context) (*Pending, error) {
	ln, err := net.Listen("tcp", f.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	redirect := "http://" + ln.Addr().String() + CallbackPath
	results := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, f.handleCallback(results))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("callback server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var result error
		select {
		case result = <-results:
		case <-gctx.Done():
			result = gctx.Err()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Callback server shutdown failed", "error", err)
		}
		return result
	})

	slog.Info("Starting Google sign-in", "redirect", redirect)
	return &Pending{URL: f.authURL(redirect), ctx: ctx, flow: f, g: g}, nil
}

// Wait blocks until the backend redirects back or the context passed to
// Start ends, then confirms the session. It returns the signed-in user.
func (p *Pending) Wait() (*client.User, error) {
	if err := p.g.Wait(); err != nil {
		return nil, err
	}

	select {
	case <-time.After(p.flow.settle):
	case <-p.ctx.Done():
		return nil, p.ctx.Err()
	}

	p.flow.sess.Refresh(p.ctx)
	st := p.flow.sess.State()
	if st.Phase() != session.PhaseAuthenticated {
		return nil, fmt.Errorf("%w: backend did not recognise the session", ErrOAuthFailed)
	}
	return st.User, nil
}

// Run starts the flow, hands the URL to the opener and waits
func (f *Flow) Run(ctx context.Context) (*client.User, error) {
	pending, err := f.Start(ctx)
	if err != nil {
		return nil, err
	}
	if err := f.open(pending.URL); err != nil {
		slog.Warn("Failed to open sign-in URL", "error", err)
	}
	return pending.Wait()
}

func (f *Flow) handleCallback(results chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var result error
		switch {
		case q.Get("error") != "":
			result = &CallbackError{Code: q.Get("error"), Details: q.Get("details")}
		case q.Get("token") == "":
			result = fmt.Errorf("%w: no token in callback", ErrOAuthFailed)
		default:
			token := q.Get("token")
			if err := f.tokens.Save(token); err != nil {
				result = fmt.Errorf("failed to store token: %w", err)
			} else {
				slog.Info("Stored fallback token from callback", "length", len(token))
			}
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if result != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintln(w, "Sign In Failed. Return to the terminal and try again.")
		} else {
			fmt.Fprintln(w, "Welcome to Samar Blogs! You can close this window.")
		}

		select {
		case results <- result:
		default:
		}
	}
}
