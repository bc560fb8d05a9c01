package aps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// containerScopePrefix marks the project scope entry that carries the
	// issues container id.
	containerScopePrefix = "b360project."

	// projectIDPrefix is the two-character prefix the project listing puts
	// in front of the raw container id.
	projectIDPrefix = "b."
)

// GetHubs retrieves the hubs visible to the token.
func (c *Client) GetHubs(ctx context.Context, accessToken string) ([]Record, error) {
	body, err := c.get(ctx, accessToken, "/project/v1/hubs", nil)
	if err != nil {
		return nil, err
	}
	return Normalize(body, c.logger)
}

// GetProjects retrieves the projects of a hub.
func (c *Client) GetProjects(ctx context.Context, accessToken, hubID string) ([]Record, error) {
	path := fmt.Sprintf("/project/v1/hubs/%s/projects", hubID)
	body, err := c.get(ctx, accessToken, path, nil)
	if err != nil {
		return nil, err
	}
	return Normalize(body, c.logger)
}

// GetProjectScopes fetches a project's detail record and returns its
// declared scope list. Projects without scopes return an empty slice.
func (c *Client) GetProjectScopes(ctx context.Context, accessToken, hubID, projectID string) ([]string, error) {
	path := fmt.Sprintf("/project/v1/hubs/%s/projects/%s", hubID, projectID)
	body, err := c.get(ctx, accessToken, path, nil)
	if err != nil {
		return nil, err
	}

	var detail struct {
		Data struct {
			Attributes struct {
				Scopes []string `json:"scopes"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, &ShapeError{Detail: "project detail: " + err.Error()}
	}

	return detail.Data.Attributes.Scopes, nil
}

// ContainerIDFromScopes derives the issues container id for a project. The
// scope list is searched for the b360project marker first; failing that the
// two-character prefix is stripped from the project id itself. An empty
// string means no rule applied.
func ContainerIDFromScopes(scopes []string, projectID string) string {
	for _, scope := range scopes {
		if strings.HasPrefix(scope, containerScopePrefix) {
			return strings.TrimPrefix(scope, containerScopePrefix)
		}
	}
	if strings.HasPrefix(projectID, projectIDPrefix) {
		return strings.TrimPrefix(projectID, projectIDPrefix)
	}
	return ""
}
