package aps

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// MaxIssuesPerRequest is the hard upper bound the issues endpoint enforces
// on the limit parameter. Larger values are clamped, never rejected.
const MaxIssuesPerRequest = 200

// IssueFilter narrows an issues listing. Zero values mean "no filter"; a
// zero or negative Limit falls back to the maximum.
type IssueFilter struct {
	IssueTypeID string
	Status      string
	Limit       int
}

// params builds the query string for the issues endpoint. Filters appear
// only when set.
func (f IssueFilter) params() url.Values {
	limit := f.Limit
	if limit <= 0 || limit > MaxIssuesPerRequest {
		limit = MaxIssuesPerRequest
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if f.IssueTypeID != "" {
		params.Set("filter[issueTypeId]", f.IssueTypeID)
	}
	if f.Status != "" {
		params.Set("filter[status]", f.Status)
	}
	return params
}

// GetIssues retrieves issue records for a container.
func (c *Client) GetIssues(ctx context.Context, accessToken, containerID string, filter IssueFilter) ([]Record, error) {
	path := fmt.Sprintf("/construction/issues/v1/projects/%s/issues", containerID)
	body, err := c.get(ctx, accessToken, path, filter.params())
	if err != nil {
		return nil, err
	}
	return Normalize(body, c.logger)
}

// GetIssueTypes retrieves the issue types defined for a container.
func (c *Client) GetIssueTypes(ctx context.Context, accessToken, containerID string) ([]Record, error) {
	path := fmt.Sprintf("/construction/issues/v1/projects/%s/issue-types", containerID)
	body, err := c.get(ctx, accessToken, path, nil)
	if err != nil {
		return nil, err
	}
	return Normalize(body, c.logger)
}
