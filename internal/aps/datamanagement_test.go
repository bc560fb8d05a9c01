package aps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestContainerIDFromScopes(t *testing.T) {
	tests := []struct {
		name      string
		scopes    []string
		projectID string
		want      string
	}{
		{
			name:      "scope marker wins",
			scopes:    []string{"O2tenant.123", "b360project.ABC-123"},
			projectID: "b.ignored",
			want:      "ABC-123",
		},
		{
			name:      "first matching scope wins",
			scopes:    []string{"b360project.first", "b360project.second"},
			projectID: "b.other",
			want:      "first",
		},
		{
			name:      "project id prefix fallback",
			scopes:    []string{"O2tenant.123"},
			projectID: "b.ABC123",
			want:      "ABC123",
		},
		{
			name:      "no scopes at all",
			scopes:    nil,
			projectID: "b.ABC123",
			want:      "ABC123",
		},
		{
			name:      "neither rule applies",
			scopes:    []string{"O2tenant.123"},
			projectID: "plain-id",
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainerIDFromScopes(tt.scopes, tt.projectID))
		})
	}
}

func TestGetProjectScopes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/project/v1/hubs/hub-1/projects/b.p1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{"id":"b.p1","attributes":{"scopes":["b360project.P1"]}}}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithLogger(arbor.NewLogger()))
	scopes, err := client.GetProjectScopes(context.Background(), "tok", "hub-1", "b.p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b360project.P1"}, scopes)
}

func TestGetHubs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/project/v1/hubs", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"hub-1","attributes":{"name":"Main"}},{"id":"hub-2","attributes":{"name":"Second"}}]}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithLogger(arbor.NewLogger()))
	records, err := client.GetHubs(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "hub-1", records[0]["id"])
}
