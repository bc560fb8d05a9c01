package issues

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitework/internal/aps"
	"github.com/ternarybob/sitework/internal/models"
)

func authedSession() *models.Session {
	return &models.Session{
		ID:    "sess_test",
		Token: &models.Token{AccessToken: "tok", TokenType: "Bearer"},
	}
}

func newTestService(baseURL string) *Service {
	client := aps.NewClient(aps.WithBaseURL(baseURL), aps.WithLogger(arbor.NewLogger()))
	return NewService(client, arbor.NewLogger())
}

func TestIssues_EmptyContainerSkipsNetwork(t *testing.T) {
	var requests int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	list, err := svc.Issues(context.Background(), authedSession(), "", aps.IssueFilter{})

	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, int64(0), atomic.LoadInt64(&requests))
}

func TestIssues_NonSuccessYieldsEmpty(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"detail":"nope"}`))
		}))

		svc := newTestService(server.URL)
		list, err := svc.Issues(context.Background(), authedSession(), "cont-1", aps.IssueFilter{})

		require.NoError(t, err, "status %d should be softened", status)
		assert.Empty(t, list)
		server.Close()
	}
}

func TestIssues_FlattensRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[
			{"id":"i1","title":"Direct","status":"open"},
			{"id":"i2","attributes":{"title":"Wrapped","status":"closed"}}
		]}`))
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	list, err := svc.Issues(context.Background(), authedSession(), "cont-1", aps.IssueFilter{})

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Direct", list[0].Title)
	assert.Equal(t, "Wrapped", list[1].Title)
	assert.Equal(t, "closed", list[1].Status)
}

func TestIssues_UpstreamErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	_, err := svc.Issues(context.Background(), authedSession(), "cont-1", aps.IssueFilter{})

	var upstream *aps.UpstreamError
	require.ErrorAs(t, err, &upstream)
}

func TestResolveContainerID(t *testing.T) {
	var requests int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		w.Write([]byte(`{"data":{"id":"b.p1","attributes":{"scopes":["b360project.CONT-9"]}}}`))
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	session := authedSession()

	containerID := svc.ResolveContainerID(context.Background(), session, "hub-1", "b.p1")
	assert.Equal(t, "CONT-9", containerID)

	// Second resolution is served from the session cache.
	again := svc.ResolveContainerID(context.Background(), session, "hub-1", "b.p1")
	assert.Equal(t, "CONT-9", again)
	assert.Equal(t, int64(1), atomic.LoadInt64(&requests))
}

func TestResolveContainerID_DetailFetchFailureIsSoft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	containerID := svc.ResolveContainerID(context.Background(), authedSession(), "hub-1", "b.p1")
	assert.Empty(t, containerID)
}

func TestResolveContainerID_ProjectIDFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":"b.ABC123","attributes":{"scopes":["O2tenant.55"]}}}`))
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	containerID := svc.ResolveContainerID(context.Background(), authedSession(), "hub-1", "b.ABC123")
	assert.Equal(t, "ABC123", containerID)
}

func TestLoadHubsAndProjects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/project/v1/hubs":
			w.Write([]byte(`{"data":[{"id":"hub-1","attributes":{"name":"Main"}}]}`))
		case "/project/v1/hubs/hub-1/projects":
			w.Write([]byte(`{"data":[{"id":"b.p1","attributes":{"name":"Tower"}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	svc := newTestService(server.URL)
	session := authedSession()

	hubs, err := svc.LoadHubs(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, hubs, 1)
	assert.Equal(t, "Main", hubs[0].Name)
	assert.Equal(t, hubs, session.Hubs)

	projects, err := svc.LoadProjects(context.Background(), session, "hub-1")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Tower", projects[0].Name)
	assert.Equal(t, projects, session.Projects["hub-1"])
}

func TestLoadHubs_RequiresAuthentication(t *testing.T) {
	svc := newTestService("http://localhost:0")
	_, err := svc.LoadHubs(context.Background(), &models.Session{ID: "anon"})
	assert.Error(t, err)
}

func TestActiveIssueTypes(t *testing.T) {
	types := []models.IssueType{
		{ID: "t1", Title: "Quality", IsActive: true},
		{ID: "t2", Title: "Legacy", IsActive: false},
		{ID: "t3", Title: "Safety", IsActive: true},
	}

	active := ActiveIssueTypes(types)
	require.Len(t, active, 2)
	assert.Equal(t, "t1", active[0].ID)
	assert.Equal(t, "t3", active[1].ID)
}
