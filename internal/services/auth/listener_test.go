package auth

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type listenerResult struct {
	code string
	err  error
}

// startListener binds an ephemeral-port listener and returns its base URL
// plus the channel Wait's outcome arrives on.
func startListener(t *testing.T, timeout time.Duration, state string) (string, <-chan listenerResult) {
	t.Helper()

	listener := NewCallbackListener(0, timeout, arbor.NewLogger())
	done := make(chan listenerResult, 1)
	go func() {
		code, err := listener.Wait(context.Background(), state)
		done <- listenerResult{code: code, err: err}
	}()

	return "http://" + listener.Addr(), done
}

func TestCallbackListener_CodeWithMatchingState(t *testing.T) {
	base, done := startListener(t, 5*time.Second, "state-1")

	resp, err := http.Get(fmt.Sprintf("%s/callback?code=abc&state=state-1", base))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := <-done
	require.NoError(t, result.err)
	assert.Equal(t, "abc", result.code)
}

func TestCallbackListener_StateMismatchFailsAttempt(t *testing.T) {
	base, done := startListener(t, 5*time.Second, "state-1")

	resp, err := http.Get(fmt.Sprintf("%s/callback?code=abc&state=other", base))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	result := <-done
	var authErr *AuthorizationError
	require.ErrorAs(t, result.err, &authErr)
	assert.Equal(t, "state_mismatch", authErr.Code)
}

func TestCallbackListener_ProviderError(t *testing.T) {
	base, done := startListener(t, 5*time.Second, "state-1")

	resp, err := http.Get(fmt.Sprintf("%s/callback?error=access_denied&error_description=user+cancelled", base))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	result := <-done
	var authErr *AuthorizationError
	require.ErrorAs(t, result.err, &authErr)
	assert.Equal(t, "access_denied", authErr.Code)
	assert.Equal(t, "user cancelled", authErr.Description)
}

func TestCallbackListener_IgnoresOtherPaths(t *testing.T) {
	base, done := startListener(t, 5*time.Second, "state-1")

	// Unrelated paths answer 404 and the wait continues.
	resp, err := http.Get(base + "/favicon.ico")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	select {
	case result := <-done:
		t.Fatalf("listener stopped early: %+v", result)
	case <-time.After(200 * time.Millisecond):
	}

	// Callback without code or error is also not terminal.
	resp, err = http.Get(base + "/callback")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	select {
	case result := <-done:
		t.Fatalf("listener stopped early: %+v", result)
	case <-time.After(200 * time.Millisecond):
	}

	// Finish the attempt so the goroutine exits.
	resp, err = http.Get(fmt.Sprintf("%s/callback?code=abc&state=state-1", base))
	require.NoError(t, err)
	resp.Body.Close()
	<-done
}

func TestCallbackListener_Timeout(t *testing.T) {
	_, done := startListener(t, 150*time.Millisecond, "state-1")

	result := <-done
	assert.ErrorIs(t, result.err, ErrCallbackTimeout)
}

func TestCallbackListener_ContextCancel(t *testing.T) {
	listener := NewCallbackListener(0, 5*time.Second, arbor.NewLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan listenerResult, 1)
	go func() {
		code, err := listener.Wait(ctx, "state-1")
		done <- listenerResult{code: code, err: err}
	}()
	listener.Addr() // wait until bound

	cancel()
	result := <-done
	assert.ErrorIs(t, result.err, context.Canceled)
}
