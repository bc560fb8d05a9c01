// Package issues is the session-scoped gateway to the construction-issues
// API: it browses hubs and projects, resolves the container id a project's
// issues live under, and retrieves filtered issue collections.
package issues

import (
	"context"
	"errors"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitework/internal/aps"
	"github.com/ternarybob/sitework/internal/models"
)

// Service translates project identifiers into issues-API calls. All state
// lives on the session passed to each call, so one service instance serves
// every session.
type Service struct {
	client *aps.Client
	logger arbor.ILogger
}

// NewService creates an issues gateway over the given APS client.
func NewService(client *aps.Client, logger arbor.ILogger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

// LoadHubs fetches the hubs visible to the session's token and caches them
// on the session. Failures here are surfaced: without hubs the UI has
// nothing to show.
func (s *Service) LoadHubs(ctx context.Context, session *models.Session) ([]models.Hub, error) {
	if !session.Authenticated() {
		return nil, errors.New("session is not authenticated")
	}

	records, err := s.client.GetHubs(ctx, session.Token.AccessToken)
	if err != nil {
		return nil, err
	}

	hubs := make([]models.Hub, 0, len(records))
	for _, rec := range records {
		hubs = append(hubs, aps.HubFromRecord(rec))
	}

	session.Hubs = hubs
	s.logger.Info().Int("count", len(hubs)).Msg("Loaded hubs")
	return hubs, nil
}

// LoadProjects fetches the projects of a hub and caches them on the session.
func (s *Service) LoadProjects(ctx context.Context, session *models.Session, hubID string) ([]models.Project, error) {
	if !session.Authenticated() {
		return nil, errors.New("session is not authenticated")
	}

	records, err := s.client.GetProjects(ctx, session.Token.AccessToken, hubID)
	if err != nil {
		return nil, err
	}

	projects := make([]models.Project, 0, len(records))
	for _, rec := range records {
		projects = append(projects, aps.ProjectFromRecord(rec))
	}

	if session.Projects == nil {
		session.Projects = make(map[string][]models.Project)
	}
	session.Projects[hubID] = projects

	s.logger.Info().
		Str("hub", hubID).
		Int("count", len(projects)).
		Msg("Loaded projects")
	return projects, nil
}

// ResolveContainerID derives the container id the issues API expects for a
// project. The result is cached on the session for all later issue and
// issue-type calls. An empty return is a soft failure: issues are treated
// as unavailable for the project, nothing is raised.
func (s *Service) ResolveContainerID(ctx context.Context, session *models.Session, hubID, projectID string) string {
	if cached, ok := session.ContainerID(projectID); ok {
		return cached
	}
	if !session.Authenticated() {
		return ""
	}

	scopes, err := s.client.GetProjectScopes(ctx, session.Token.AccessToken, hubID, projectID)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("project", projectID).
			Msg("Project detail fetch failed, issues unavailable")
		return ""
	}

	containerID := aps.ContainerIDFromScopes(scopes, projectID)
	if containerID == "" {
		s.logger.Warn().
			Str("project", projectID).
			Msg("No container id derivable for project")
		return ""
	}

	session.SetContainerID(projectID, containerID)
	s.logger.Info().
		Str("project", projectID).
		Str("container", containerID).
		Msg("Resolved issues container")
	return containerID
}

// Issues retrieves issue records for a container. An empty container id
// returns an empty slice without touching the network. Any non-success
// response also yields an empty slice - callers cannot distinguish "no
// issues" from "request failed" except through the log, which is a known
// limitation of the upstream contract.
func (s *Service) Issues(ctx context.Context, session *models.Session, containerID string, filter aps.IssueFilter) ([]models.Issue, error) {
	if containerID == "" {
		s.logger.Debug().Msg("No container id, skipping issues fetch")
		return []models.Issue{}, nil
	}
	if !session.Authenticated() {
		return []models.Issue{}, nil
	}

	records, err := s.client.GetIssues(ctx, session.Token.AccessToken, containerID, filter)
	if err != nil {
		if soft := s.softenAPIError(err, containerID, "issues"); soft {
			return []models.Issue{}, nil
		}
		return nil, err
	}

	result := make([]models.Issue, 0, len(records))
	for _, rec := range records {
		result = append(result, aps.IssueFromRecord(rec))
	}

	s.logger.Info().
		Str("container", containerID).
		Int("count", len(result)).
		Msg("Fetched issues")
	return result, nil
}

// IssueTypes retrieves the issue types defined for a container, with the
// same soft-failure policy as Issues.
func (s *Service) IssueTypes(ctx context.Context, session *models.Session, containerID string) ([]models.IssueType, error) {
	if containerID == "" {
		return []models.IssueType{}, nil
	}
	if !session.Authenticated() {
		return []models.IssueType{}, nil
	}

	records, err := s.client.GetIssueTypes(ctx, session.Token.AccessToken, containerID)
	if err != nil {
		if soft := s.softenAPIError(err, containerID, "issue types"); soft {
			return []models.IssueType{}, nil
		}
		return nil, err
	}

	result := make([]models.IssueType, 0, len(records))
	for _, rec := range records {
		result = append(result, aps.IssueTypeFromRecord(rec))
	}

	s.logger.Info().
		Str("container", containerID).
		Int("count", len(result)).
		Msg("Fetched issue types")
	return result, nil
}

// ActiveIssueTypes filters a type list down to the active entries the UI
// offers as filters.
func ActiveIssueTypes(types []models.IssueType) []models.IssueType {
	active := make([]models.IssueType, 0, len(types))
	for _, t := range types {
		if t.IsActive {
			active = append(active, t)
		}
	}
	return active
}

// softenAPIError downgrades non-success statuses on the list endpoints to
// an empty result. 404 means issues are not enabled for the project, 401
// means the token lacks user consent, 403 means no permission; all of them
// end the call without an error. Envelope problems (shape, upstream error
// strings) stay hard errors and are surfaced.
func (s *Service) softenAPIError(err error, containerID, what string) bool {
	var apiErr *aps.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	event := s.logger.Warn().
		Int("status", apiErr.StatusCode).
		Str("container", containerID)

	switch apiErr.StatusCode {
	case 404:
		event.Msg("Issues API not available for this project, returning no " + what)
	case 401:
		event.Msg("Issues API requires user consent, returning no " + what)
	case 403:
		event.Msg("Access denied by issues API, returning no " + what)
	default:
		event.Str("body", apiErr.Message).Msg("Issues API request failed, returning no " + what)
	}
	return true
}
