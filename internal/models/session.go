package models

// Session is the per-user state the web front-end keeps between requests.
// It replaces the ambient globals of a desktop deployment: the token, the
// hub/project caches, and the resolved container ids all live here so a
// server can carry multiple users at once.
type Session struct {
	ID string `json:"id"`

	// Token is the three-legged token for the issues API. Nil until the
	// authorization-code flow completes.
	Token *Token `json:"token,omitempty"`

	// LimitedAccess marks a session that can browse hubs and projects but
	// has no issues access (consent denied or flow failed). The UI shows
	// this as partial success, not total failure.
	LimitedAccess bool `json:"limited_access"`

	// PendingState is the OAuth state issued for an in-flight authorization
	// attempt. Cleared once the attempt reaches a terminal outcome.
	PendingState string `json:"pending_state,omitempty"`

	Hubs     []Hub                `json:"hubs,omitempty"`
	Projects map[string][]Project `json:"projects,omitempty"` // keyed by hub id

	// ContainerIDs caches resolved container ids by project id for the
	// lifetime of the session.
	ContainerIDs map[string]string `json:"container_ids,omitempty"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ContainerID returns the cached container id for a project, if resolved.
func (s *Session) ContainerID(projectID string) (string, bool) {
	if s.ContainerIDs == nil {
		return "", false
	}
	id, ok := s.ContainerIDs[projectID]
	return id, ok
}

// SetContainerID caches a resolved container id for a project.
func (s *Session) SetContainerID(projectID, containerID string) {
	if s.ContainerIDs == nil {
		s.ContainerIDs = make(map[string]string)
	}
	s.ContainerIDs[projectID] = containerID
}

// Authenticated reports whether the session holds a usable token.
func (s *Session) Authenticated() bool {
	return s.Token != nil && s.Token.AccessToken != ""
}
