package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitework/internal/common"
	"github.com/ternarybob/sitework/internal/models"
	"github.com/ternarybob/sitework/internal/storage/badger"
)

// SessionCookie is the cookie carrying the session id.
const SessionCookie = "sitework_session"

// SessionResolver attaches sessions to requests via the session cookie.
// Shared by every handler that needs per-user state.
type SessionResolver struct {
	sessions *badger.SessionStorage
	logger   arbor.ILogger
}

// NewSessionResolver creates a resolver over the session store.
func NewSessionResolver(sessions *badger.SessionStorage, logger arbor.ILogger) *SessionResolver {
	return &SessionResolver{
		sessions: sessions,
		logger:   logger,
	}
}

// Current returns the request's session, or nil if the cookie is missing or
// refers to a purged session.
func (sr *SessionResolver) Current(r *http.Request) *models.Session {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, err := sr.sessions.GetSession(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return session
}

// GetOrCreate returns the request's session, creating and persisting a new
// one (and setting the cookie) if none exists.
func (sr *SessionResolver) GetOrCreate(w http.ResponseWriter, r *http.Request) (*models.Session, error) {
	if session := sr.Current(r); session != nil {
		return session, nil
	}

	session := &models.Session{ID: common.NewSessionID()}
	if err := sr.sessions.SaveSession(r.Context(), session); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	sr.logger.Debug().Str("session", session.ID).Msg("Created session")
	return session, nil
}

// Save persists session changes.
func (sr *SessionResolver) Save(r *http.Request, session *models.Session) {
	if err := sr.sessions.SaveSession(r.Context(), session); err != nil {
		sr.logger.Warn().Err(err).Str("session", session.ID).Msg("Failed to persist session")
	}
}

// Drop deletes the session and clears the cookie.
func (sr *SessionResolver) Drop(w http.ResponseWriter, r *http.Request, session *models.Session) {
	if err := sr.sessions.DeleteSession(r.Context(), session.ID); err != nil {
		sr.logger.Warn().Err(err).Str("session", session.ID).Msg("Failed to delete session")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
