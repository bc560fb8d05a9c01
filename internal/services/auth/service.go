// Package auth implements the OAuth2 authorization-code grant against the
// APS identity provider: authorization URL construction, the local callback
// receiver used by desktop deployments, and the code-for-token exchange.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"

	"github.com/ternarybob/sitework/internal/aps"
	"github.com/ternarybob/sitework/internal/models"
)

// FlowState tracks where an authorization attempt is in its lifecycle.
// Authenticated and Failed are terminal.
type FlowState string

const (
	StateNotStarted       FlowState = "not_started"
	StateAwaitingCallback FlowState = "awaiting_callback"
	StateCodeReceived     FlowState = "code_received"
	StateExchanging       FlowState = "exchanging"
	StateAuthenticated    FlowState = "authenticated"
	StateFailed           FlowState = "failed"
)

// AuthorizationError is a terminal failure of an authorization attempt:
// the provider denied, the user cancelled, or the callback state did not
// match. The user may start a new attempt.
type AuthorizationError struct {
	Code        string
	Description string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization failed: %s: %s", e.Code, e.Description)
}

// ErrCallbackTimeout is returned when no terminal callback arrives within
// the configured window.
var ErrCallbackTimeout = errors.New("timed out waiting for authorization callback")

// Flow performs authorization-code attempts against a fixed provider
// endpoint set. Each attempt gets a fresh state value; the callback must
// echo it exactly or the attempt fails.
type Flow struct {
	oauth  *oauth2.Config
	logger arbor.ILogger

	mu      sync.Mutex
	state   string
	current FlowState
	lastErr error
}

// NewFlow builds a flow for the given client credentials and redirect URI.
// Provider endpoints come from the APS client so tests can point the whole
// flow at a fake server.
func NewFlow(client *aps.Client, clientID, clientSecret, redirectURI string, logger arbor.ILogger) *Flow {
	return &Flow{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       aps.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   client.AuthorizeURL(),
				TokenURL:  client.TokenURL(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		logger:  logger,
		current: StateNotStarted,
	}
}

// AuthorizationURL starts a new attempt: it issues a fresh state value and
// returns the provider authorization URL carrying it. The state is kept for
// callback validation.
func (f *Flow) AuthorizationURL() (authURL, state string) {
	state = uuid.New().String()

	f.mu.Lock()
	f.state = state
	f.current = StateAwaitingCallback
	f.lastErr = nil
	f.mu.Unlock()

	authURL = f.oauth.AuthCodeURL(state)

	f.logger.Info().
		Str("redirect_uri", f.oauth.RedirectURL).
		Str("scopes", strings.Join(f.oauth.Scopes, " ")).
		Msg("Authorization URL generated")

	return authURL, state
}

// ValidateState checks a callback state against the one issued for the
// current attempt. Equality must be exact; a mismatch fails the attempt.
func (f *Flow) ValidateState(got string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == "" || got != f.state {
		err := &AuthorizationError{
			Code:        "state_mismatch",
			Description: "callback state does not match the issued state",
		}
		f.current = StateFailed
		f.lastErr = err
		return err
	}
	return nil
}

// ExchangeCode trades an authorization code for a token. A non-200 from the
// token endpoint is terminal; the returned error carries the provider's
// status and body. There is no retry.
func (f *Flow) ExchangeCode(ctx context.Context, code string) (*models.Token, error) {
	f.setState(StateExchanging)

	f.logger.Info().Msg("Exchanging authorization code for token")

	tok, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		exchErr := asExchangeError(err)
		f.fail(exchErr)
		f.logger.Warn().Err(exchErr).Msg("Token exchange failed")
		return nil, exchErr
	}

	token := &models.Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   tok.ExpiresIn,
	}

	f.setState(StateAuthenticated)
	f.logger.Info().
		Str("token_type", token.TokenType).
		Int64("expires_in", token.ExpiresIn).
		Msg("Token exchange successful")

	return token, nil
}

// Authenticate runs the whole desktop-style flow: generate the URL, hand it
// to openURL (typically a browser launcher), wait on the local callback
// listener, then exchange the received code.
func (f *Flow) Authenticate(ctx context.Context, listener *CallbackListener, openURL func(string) error) (*models.Token, error) {
	authURL, state := f.AuthorizationURL()

	if openURL != nil {
		if err := openURL(authURL); err != nil {
			f.logger.Warn().Err(err).Msg("Could not open browser, authorize manually")
			f.logger.Info().Str("url", authURL).Msg("Authorization URL")
		}
	} else {
		f.logger.Info().Str("url", authURL).Msg("Open this URL to authorize")
	}

	code, err := listener.Wait(ctx, state)
	if err != nil {
		f.fail(err)
		return nil, err
	}

	f.setState(StateCodeReceived)
	return f.ExchangeCode(ctx, code)
}

// AuthCodeURL returns the provider authorization URL carrying the given
// state, without starting a tracked attempt. Web deployments keep the state
// on the user's session instead of on the flow.
func (f *Flow) AuthCodeURL(state string) string {
	return f.oauth.AuthCodeURL(state)
}

// Exchange trades a code for a token without touching the flow lifecycle,
// for callers that track attempts elsewhere.
func (f *Flow) Exchange(ctx context.Context, code string) (*models.Token, error) {
	tok, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, asExchangeError(err)
	}
	return &models.Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   tok.ExpiresIn,
	}, nil
}

// State returns the current flow state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Err returns the failure that moved the flow into the Failed state, if any.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *Flow) setState(s FlowState) {
	f.mu.Lock()
	f.current = s
	f.mu.Unlock()
}

func (f *Flow) fail(err error) {
	f.mu.Lock()
	f.current = StateFailed
	f.lastErr = err
	f.mu.Unlock()
}

// asExchangeError converts an oauth2 retrieval failure into a typed
// TokenExchangeError carrying the provider's status code and body.
func asExchangeError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		status := 0
		if rErr.Response != nil {
			status = rErr.Response.StatusCode
		}
		return &aps.TokenExchangeError{
			StatusCode: status,
			Body:       string(rErr.Body),
		}
	}
	return fmt.Errorf("token exchange: %w", err)
}
