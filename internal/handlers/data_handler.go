package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitework/internal/aps"
	"github.com/ternarybob/sitework/internal/models"
	"github.com/ternarybob/sitework/internal/services/issues"
)

// DataHandler serves hub/project browsing and issue retrieval for the web
// UI. All endpoints are scoped to the request's session.
type DataHandler struct {
	issues   *issues.Service
	sessions *SessionResolver
	logger   arbor.ILogger
}

// NewDataHandler creates a new DataHandler instance
func NewDataHandler(issuesService *issues.Service, sessions *SessionResolver, logger arbor.ILogger) *DataHandler {
	return &DataHandler{
		issues:   issuesService,
		sessions: sessions,
		logger:   logger,
	}
}

// requireSession resolves an authenticated session or writes a 401.
func (h *DataHandler) requireSession(w http.ResponseWriter, r *http.Request) *models.Session {
	session := h.sessions.Current(r)
	if session == nil || !session.Authenticated() {
		WriteError(w, http.StatusUnauthorized, "Not authenticated. Sign in first.")
		return nil
	}
	return session
}

// HubsHandler lists the hubs visible to the session. GET /api/hubs
func (h *DataHandler) HubsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	session := h.requireSession(w, r)
	if session == nil {
		return
	}

	hubs, err := h.issues.LoadHubs(r.Context(), session)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to load hubs")
		WriteError(w, http.StatusBadGateway, "Failed to load hubs")
		return
	}
	h.sessions.Save(r, session)

	WriteJSON(w, http.StatusOK, map[string]interface{}{"hubs": hubs})
}

// ProjectsHandler lists the projects of a hub. GET /api/projects?hub_id=...
func (h *DataHandler) ProjectsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	session := h.requireSession(w, r)
	if session == nil {
		return
	}

	hubID := r.URL.Query().Get("hub_id")
	if hubID == "" {
		WriteError(w, http.StatusBadRequest, "hub_id is required")
		return
	}

	projects, err := h.issues.LoadProjects(r.Context(), session, hubID)
	if err != nil {
		h.logger.Warn().Err(err).Str("hub", hubID).Msg("Failed to load projects")
		WriteError(w, http.StatusBadGateway, "Failed to load projects")
		return
	}
	h.sessions.Save(r, session)

	WriteJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

// IssueTypesHandler lists a project's active issue types.
// GET /api/issue-types?hub_id=...&project_id=...
func (h *DataHandler) IssueTypesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	session := h.requireSession(w, r)
	if session == nil {
		return
	}

	hubID := r.URL.Query().Get("hub_id")
	projectID := r.URL.Query().Get("project_id")
	if hubID == "" || projectID == "" {
		WriteError(w, http.StatusBadRequest, "hub_id and project_id are required")
		return
	}

	containerID := h.issues.ResolveContainerID(r.Context(), session, hubID, projectID)
	types, err := h.issues.IssueTypes(r.Context(), session, containerID)
	if err != nil {
		h.logger.Warn().Err(err).Str("project", projectID).Msg("Failed to load issue types")
		WriteError(w, http.StatusBadGateway, "Failed to load issue types")
		return
	}
	h.sessions.Save(r, session)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"issue_types":      issues.ActiveIssueTypes(types),
		"issues_available": containerID != "",
	})
}

// IssuesHandler lists a project's issues with optional filters.
// GET /api/issues?hub_id=...&project_id=...&issue_type_id=...&status=...&limit=...
func (h *DataHandler) IssuesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	session := h.requireSession(w, r)
	if session == nil {
		return
	}

	hubID := r.URL.Query().Get("hub_id")
	projectID := r.URL.Query().Get("project_id")
	if hubID == "" || projectID == "" {
		WriteError(w, http.StatusBadRequest, "hub_id and project_id are required")
		return
	}

	containerID := h.issues.ResolveContainerID(r.Context(), session, hubID, projectID)
	list, err := h.issues.Issues(r.Context(), session, containerID, issueFilterFromQuery(r))
	if err != nil {
		h.logger.Warn().Err(err).Str("project", projectID).Msg("Failed to load issues")
		WriteError(w, http.StatusBadGateway, "Failed to load issues")
		return
	}
	h.sessions.Save(r, session)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"issues":           list,
		"count":            len(list),
		"issues_available": containerID != "",
	})
}

// issueFilterFromQuery maps query parameters onto an issue filter. Limit
// clamping happens downstream.
func issueFilterFromQuery(r *http.Request) aps.IssueFilter {
	filter := aps.IssueFilter{
		IssueTypeID: r.URL.Query().Get("issue_type_id"),
		Status:      r.URL.Query().Get("status"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	return filter
}
