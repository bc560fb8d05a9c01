package aps

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordFromJSON(t *testing.T, body string) Record {
	t.Helper()
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &rec))
	return Record(rec)
}

func TestIssueFromRecord_BothWireShapesFlattenIdentically(t *testing.T) {
	direct := recordFromJSON(t, `{
		"id": "issue-1",
		"title": "Cracked slab",
		"description": "Crack in level 2 slab",
		"issueType": {"title": "Quality"},
		"status": "open",
		"priority": "high",
		"createdAt": "2026-01-05T10:00:00Z",
		"updatedAt": "2026-01-06T09:30:00Z",
		"assignedTo": {"name": "R. Vega"},
		"createdBy": {"name": "M. Osei"},
		"locationDescription": "Level 2, grid C4",
		"dueDate": "2026-02-01"
	}`)

	wrapped := recordFromJSON(t, `{
		"id": "issue-1",
		"attributes": {
			"title": "Cracked slab",
			"description": "Crack in level 2 slab",
			"issueType": {"title": "Quality"},
			"status": "open",
			"priority": "high",
			"createdAt": "2026-01-05T10:00:00Z",
			"updatedAt": "2026-01-06T09:30:00Z",
			"assignedTo": {"name": "R. Vega"},
			"createdBy": {"name": "M. Osei"},
			"locationDescription": "Level 2, grid C4",
			"dueDate": "2026-02-01"
		}
	}`)

	fromDirect := IssueFromRecord(direct)
	fromWrapped := IssueFromRecord(wrapped)

	assert.Equal(t, fromDirect, fromWrapped)
	assert.Equal(t, "issue-1", fromDirect.ID)
	assert.Equal(t, "Quality", fromDirect.IssueType)
	assert.Equal(t, "R. Vega", fromDirect.AssignedTo)
	assert.Equal(t, "Level 2, grid C4", fromDirect.Location)
}

func TestIssueFromRecord_PlainStringSubObjects(t *testing.T) {
	// Some responses serve issueType and assignedTo as plain strings.
	rec := recordFromJSON(t, `{
		"id": "issue-2",
		"issueType": "Safety",
		"assignedTo": "crew-7",
		"status": "closed"
	}`)

	issue := IssueFromRecord(rec)
	assert.Equal(t, "Safety", issue.IssueType)
	assert.Equal(t, "crew-7", issue.AssignedTo)
	assert.Equal(t, "closed", issue.Status)
	assert.Empty(t, issue.Title)
	assert.Empty(t, issue.DueDate)
}

func TestIssueRowMatchesColumnOrder(t *testing.T) {
	rec := recordFromJSON(t, `{
		"id": "issue-3",
		"title": "Missing handrail",
		"status": "open"
	}`)

	issue := IssueFromRecord(rec)
	row := issue.Row()

	require.Len(t, row, 12)
	assert.Equal(t, "issue-3", row[0])
	assert.Equal(t, "Missing handrail", row[1])
	assert.Equal(t, "open", row[4])
}

func TestHubAndProjectFromRecord(t *testing.T) {
	hub := HubFromRecord(recordFromJSON(t, `{"id":"hub-1","attributes":{"name":"Main Account"}}`))
	assert.Equal(t, "hub-1", hub.ID)
	assert.Equal(t, "Main Account", hub.Name)

	unnamed := HubFromRecord(recordFromJSON(t, `{"id":"hub-2"}`))
	assert.Equal(t, "Hub hub-2", unnamed.Name)

	project := ProjectFromRecord(recordFromJSON(t, `{"id":"b.abc","attributes":{"name":"Tower"}}`))
	assert.Equal(t, "b.abc", project.ID)
	assert.Equal(t, "Tower", project.Name)
}

func TestIssueTypeFromRecord(t *testing.T) {
	direct := IssueTypeFromRecord(recordFromJSON(t, `{"id":"t1","title":"Quality","isActive":true}`))
	assert.Equal(t, "Quality", direct.Title)
	assert.True(t, direct.IsActive)

	inactive := IssueTypeFromRecord(recordFromJSON(t, `{"id":"t2","title":"Legacy","isActive":false}`))
	assert.False(t, inactive.IsActive)

	// Absent isActive defaults to active.
	defaulted := IssueTypeFromRecord(recordFromJSON(t, `{"id":"t3","title":"Safety"}`))
	assert.True(t, defaulted.IsActive)
}
