package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// CallbackPath is the fixed path the provider redirects to. Any other path
// on the listener answers 404 and the wait continues.
const CallbackPath = "/callback"

// DefaultCallbackTimeout bounds how long the listener waits for a terminal
// callback before giving up.
const DefaultCallbackTimeout = 300 * time.Second

type callbackOutcome struct {
	code string
	err  error
}

// CallbackListener is a one-shot local HTTP endpoint for the authorization
// redirect. It accepts exactly one terminal callback - a code with the
// issued state, a provider error, or a state mismatch - renders a small
// human-readable page, and stops listening.
type CallbackListener struct {
	port    int
	timeout time.Duration
	logger  arbor.ILogger

	mu    sync.Mutex
	addr  string
	ready chan struct{}
}

// NewCallbackListener creates a listener for the given local port. A zero
// timeout falls back to DefaultCallbackTimeout. Port 0 binds an ephemeral
// port (used by tests); Addr reports the bound address once listening.
func NewCallbackListener(port int, timeout time.Duration, logger arbor.ILogger) *CallbackListener {
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}
	return &CallbackListener{
		port:    port,
		timeout: timeout,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

// Addr returns the bound listen address. It blocks until Wait has bound the
// socket.
func (l *CallbackListener) Addr() string {
	<-l.ready
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addr
}

// Wait binds the local endpoint and blocks until a terminal callback
// arrives, the timeout elapses, or the context is cancelled. On success the
// authorization code is returned; every failure is terminal for the attempt.
func (l *CallbackListener) Wait(ctx context.Context, state string) (string, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", l.port))
	if err != nil {
		return "", fmt.Errorf("failed to bind callback listener: %w", err)
	}

	l.mu.Lock()
	l.addr = ln.Addr().String()
	l.mu.Unlock()
	close(l.ready)

	outcome := make(chan callbackOutcome, 1)
	server := &http.Server{Handler: l.handler(state, outcome)}

	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			l.logger.Warn().Err(err).Msg("Callback listener stopped unexpectedly")
		}
	}()

	l.logger.Info().
		Str("addr", l.addr).
		Dur("timeout", l.timeout).
		Msg("Waiting for authorization callback")

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case result := <-outcome:
		return result.code, result.err
	case <-timer.C:
		l.logger.Warn().Dur("timeout", l.timeout).Msg("Authorization callback timed out")
		return "", ErrCallbackTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// handler builds the one-shot callback handler. Only the first terminal
// outcome is delivered; later requests still get a response page but do not
// change the result.
func (l *CallbackListener) handler(state string, outcome chan<- callbackOutcome) http.Handler {
	deliver := func(o callbackOutcome) {
		select {
		case outcome <- o:
		default:
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, CallbackPath) {
			http.NotFound(w, r)
			return
		}

		query := r.URL.Query()

		if code := query.Get("code"); code != "" {
			if got := query.Get("state"); got != state {
				l.logger.Warn().Msg("Callback state mismatch, rejecting")
				writePage(w, http.StatusBadRequest, "Authorization Failed",
					"The callback did not match this authorization attempt. Please try again.")
				deliver(callbackOutcome{err: &AuthorizationError{
					Code:        "state_mismatch",
					Description: "callback state does not match the issued state",
				}})
				return
			}

			l.logger.Info().Msg("Authorization code received")
			writePage(w, http.StatusOK, "Authorization Successful",
				"You can close this window and return to the application.")
			deliver(callbackOutcome{code: code})
			return
		}

		if errCode := query.Get("error"); errCode != "" {
			desc := query.Get("error_description")
			if desc == "" {
				desc = "Unknown error"
			}
			l.logger.Warn().
				Str("error", errCode).
				Str("description", desc).
				Msg("Authorization error received")
			writePage(w, http.StatusBadRequest, "Authorization Failed",
				fmt.Sprintf("Error: %s<br>Description: %s", errCode, desc))
			deliver(callbackOutcome{err: &AuthorizationError{Code: errCode, Description: desc}})
			return
		}

		// Neither code nor error: not a terminal callback, keep waiting.
		http.NotFound(w, r)
	})
}

func writePage(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<html>
<head><title>%s</title></head>
<body>
	<h1>%s</h1>
	<p>%s</p>
</body>
</html>
`, title, title, body)
}
