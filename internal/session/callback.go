package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ragline/ragline/internal/gateway"
	"github.com/ragline/ragline/internal/logging"
)

// ErrCallbackTimeout is returned when the OAuth redirect never arrives.
var ErrCallbackTimeout = errors.New("timed out waiting for login callback")

const callbackPage = `<!doctype html>
<html><body style="font-family: sans-serif; padding: 2rem">
<h2>ragline</h2><p>%s</p><p>You can close this tab.</p>
</body></html>`

// callbackHit is what the external redirect handed us.
type callbackHit struct {
	code string
	err  string
}

// CallbackServer resumes the session flow after Login's full-page
// handoff: a short-lived localhost listener that consumes the code and
// error query parameters from the external redirect.
type CallbackServer struct {
	gateway *gateway.Client
	store   *Store
	port    int
	timeout time.Duration
}

// NewCallbackServer builds the resumption listener. A zero timeout
// defaults to five minutes.
func NewCallbackServer(gw *gateway.Client, store *Store, port int, timeout time.Duration) *CallbackServer {
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return &CallbackServer{gateway: gw, store: store, port: port, timeout: timeout}
}

// Wait serves exactly one callback hit, completes the login against the
// backend, re-runs CheckAuth, and returns the consumed redirect target.
// On a provider error, a missing code, or a verification that still comes
// back unauthenticated, the session is left cleared and an error returned.
func (c *CallbackServer) Wait(ctx context.Context) (string, error) {
	hits := make(chan callbackHit, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/callback", func(w http.ResponseWriter, r *http.Request) {
		hit := callbackHit{
			code: r.URL.Query().Get("code"),
			err:  r.URL.Query().Get("error"),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if hit.err != "" || hit.code == "" {
			fmt.Fprintf(w, callbackPage, "Sign-in failed.")
		} else {
			fmt.Fprintf(w, callbackPage, "Sign-in complete.")
		}
		select {
		case hits <- hit:
		default:
		}
	})

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", c.port))
	if err != nil {
		return "", fmt.Errorf("callback listener: %w", err)
	}
	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.Logger().Warn("callback server", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	var hit callbackHit
	select {
	case hit = <-hits:
	case <-time.After(c.timeout):
		return "", ErrCallbackTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if hit.err != "" {
		return "", fmt.Errorf("authentication failed: %s", hit.err)
	}
	if hit.code == "" {
		return "", errors.New("no authorization code received")
	}

	if err := c.gateway.CompleteLogin(ctx, hit.code); err != nil {
		return "", fmt.Errorf("complete login: %w", err)
	}
	c.store.CheckAuth(ctx)
	if !c.store.Snapshot().IsAuthenticated {
		return "", errors.New("authentication did not verify")
	}
	return c.store.PopRedirectTarget(), nil
}
