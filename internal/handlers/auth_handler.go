package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitework/internal/models"
	"github.com/ternarybob/sitework/internal/services/auth"
)

// AuthHandler drives the authorization-code flow for web sessions. The
// OAuth state for each attempt lives on the session, so concurrent users
// cannot satisfy each other's callbacks.
type AuthHandler struct {
	flow     *auth.Flow
	sessions *SessionResolver
	logger   arbor.ILogger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(flow *auth.Flow, sessions *SessionResolver, logger arbor.ILogger) *AuthHandler {
	return &AuthHandler{
		flow:     flow,
		sessions: sessions,
		logger:   logger,
	}
}

// LoginHandler starts an authorization attempt: issues a fresh state,
// stores it on the session, and redirects the browser to the provider.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	session, err := h.sessions.GetOrCreate(w, r)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create session")
		WriteError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	state := uuid.New().String()
	session.PendingState = state
	h.sessions.Save(r, session)

	h.logger.Info().Str("session", session.ID).Msg("Starting authorization")
	http.Redirect(w, r, h.flow.AuthCodeURL(state), http.StatusFound)
}

// CallbackHandler receives the provider redirect. Every failure is terminal
// for the attempt and leaves the session in limited-access mode; the user
// can start a new attempt from the UI.
func (h *AuthHandler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	session := h.sessions.Current(r)
	if session == nil {
		http.Redirect(w, r, "/?auth=no_session", http.StatusFound)
		return
	}

	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		h.logger.Warn().
			Str("error", errCode).
			Str("description", query.Get("error_description")).
			Msg("Authorization denied by provider")
		h.failAttempt(w, r, session, "denied")
		return
	}

	code := query.Get("code")
	if code == "" {
		http.Redirect(w, r, "/?auth=invalid_callback", http.StatusFound)
		return
	}

	if session.PendingState == "" || query.Get("state") != session.PendingState {
		h.logger.Warn().Str("session", session.ID).Msg("Callback state mismatch, rejecting")
		h.failAttempt(w, r, session, "state_mismatch")
		return
	}

	token, err := h.flow.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn().Err(err).Str("session", session.ID).Msg("Token exchange failed")
		h.failAttempt(w, r, session, "exchange_failed")
		return
	}

	session.Token = token
	session.LimitedAccess = false
	session.PendingState = ""
	h.sessions.Save(r, session)

	h.logger.Info().Str("session", session.ID).Msg("Session authenticated")
	http.Redirect(w, r, "/?auth=ok", http.StatusFound)
}

// StatusHandler reports the session's authentication state.
func (h *AuthHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	session := h.sessions.Current(r)
	if session == nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated":  false,
			"limited_access": false,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated":  session.Authenticated(),
		"limited_access": session.LimitedAccess,
	})
}

// LogoutHandler drops the session and its token.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	session := h.sessions.Current(r)
	if session != nil {
		h.sessions.Drop(w, r, session)
		h.logger.Info().Str("session", session.ID).Msg("Session logged out")
	}

	WriteSuccess(w, "Logged out")
}

// failAttempt marks the attempt terminal: the pending state is cleared and
// the session downgraded to browse-only until a new attempt succeeds.
func (h *AuthHandler) failAttempt(w http.ResponseWriter, r *http.Request, session *models.Session, reason string) {
	session.PendingState = ""
	if !session.Authenticated() {
		session.LimitedAccess = true
	}
	h.sessions.Save(r, session)
	http.Redirect(w, r, "/?auth="+reason, http.StatusFound)
}
