package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const callbackPath = "/oauth/callback"

// Consenter obtains a token from the user for the given OAuth2 client.
type Consenter interface {
	Obtain(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)
}

// LoopbackConsent runs the installed-application flow: it serves the redirect on a local
// listener, sends the user to the consent page and exchanges the returned code.
type LoopbackConsent struct {
	logger *slog.Logger

	// Addr is the listen address of the callback server. Port 0 picks a free port.
	Addr string
	// Timeout bounds the wait for the user. Zero waits until ctx is done.
	Timeout time.Duration
	// Out receives the consent URL so it can be opened by hand.
	Out io.Writer
	// OpenBrowser is called with the consent URL. Nil disables it.
	OpenBrowser func(url string) error
}

// NewLoopbackConsent creates a consent flow listening on addr.
func NewLoopbackConsent(logger *slog.Logger, addr string, timeout time.Duration, out io.Writer) *LoopbackConsent {
	return &LoopbackConsent{
		logger:      logger,
		Addr:        addr,
		Timeout:     timeout,
		Out:         out,
		OpenBrowser: openBrowser,
	}
}

type callbackResult struct {
	code string
	err  error
}

// Obtain blocks until the user completes or refuses consent, the timeout passes or ctx is done.
func (c *LoopbackConsent) Obtain(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to start callback listener: %w", ErrAuthorizationDenied, err)
	}

	conf := *config
	conf.RedirectURL = "http://" + ln.Addr().String() + callbackPath

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		res := parseCallback(r, state)
		if res.err != nil {
			http.Error(w, "Authorization failed. You can close this window.", http.StatusBadRequest)
		} else {
			_, _ = fmt.Fprintln(w, "Authorization successful! You can close this window.")
		}
		select {
		case results <- res:
		default:
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("Callback server stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier))

	if c.Out != nil {
		_, _ = fmt.Fprintf(c.Out, "Open the following link in your browser to authorize access:\n%s\n", authURL)
	}
	if c.OpenBrowser != nil {
		if err := c.OpenBrowser(authURL); err != nil {
			c.logger.Warn("Could not open browser, use the printed link instead.", "error", err)
		}
	}

	waitCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	c.logger.Info("Waiting for authorization.", "redirect", conf.RedirectURL, "timeout", c.Timeout)

	var res callbackResult
	select {
	case res = <-results:
	case <-waitCtx.Done():
		return nil, fmt.Errorf("%w: gave up waiting for consent: %w", ErrAuthorizationDenied, waitCtx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	token, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: unable to exchange authorization code: %w", ErrAuthorizationDenied, err)
	}
	return token, nil
}

func parseCallback(r *http.Request, state string) callbackResult {
	q := r.URL.Query()
	if q.Get("state") != state {
		return callbackResult{err: fmt.Errorf("%w: state mismatch in callback", ErrAuthorizationDenied)}
	}
	if e := q.Get("error"); e != "" {
		return callbackResult{err: fmt.Errorf("%w: %s", ErrAuthorizationDenied, e)}
	}
	code := q.Get("code")
	if code == "" {
		return callbackResult{err: fmt.Errorf("%w: no authorization code received", ErrAuthorizationDenied)}
	}
	return callbackResult{code: code}
}

// openBrowser attempts to open url in the default browser.
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}
