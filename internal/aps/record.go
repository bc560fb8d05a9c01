package aps

import (
	"fmt"

	"github.com/ternarybob/sitework/internal/models"
)

// stringField returns a top-level string field, or "" when absent or not a
// string.
func (r Record) stringField(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	if n, ok := r[key].(float64); ok {
		return fmt.Sprintf("%v", n)
	}
	return ""
}

// boolField returns a top-level boolean field with a default for absence.
func (r Record) boolField(key string, def bool) bool {
	if b, ok := r[key].(bool); ok {
		return b
	}
	return def
}

// attributes returns the JSON:API attributes object, or nil for records in
// the direct shape.
func (r Record) attributes() map[string]interface{} {
	if attrs, ok := r["attributes"].(map[string]interface{}); ok {
		return attrs
	}
	return nil
}

// nestedString handles fields that are served either as a plain string or as
// an object carrying the display value under a sub-key (issueType.title,
// assignedTo.name).
func nestedString(v interface{}, subKey string) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		if s, ok := t[subKey].(string); ok {
			return s
		}
	}
	return ""
}

func str(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// HubFromRecord maps a normalized hub record to a model. Hubs are always
// attributes-wrapped; a missing name falls back to a placeholder derived
// from the id.
func HubFromRecord(r Record) models.Hub {
	hub := models.Hub{ID: r.stringField("id")}
	if attrs := r.attributes(); attrs != nil {
		hub.Name = str(attrs, "name")
	}
	if hub.Name == "" {
		hub.Name = "Hub " + hub.ID
	}
	return hub
}

// ProjectFromRecord maps a normalized project record to a model.
func ProjectFromRecord(r Record) models.Project {
	project := models.Project{ID: r.stringField("id")}
	if attrs := r.attributes(); attrs != nil {
		project.Name = str(attrs, "name")
	}
	if project.Name == "" {
		project.Name = "Project " + project.ID
	}
	return project
}

// IssueTypeFromRecord maps a normalized issue-type record to a model.
// Issue types come in the direct shape, but the wrapped shape is accepted
// for symmetry with the issues endpoint.
func IssueTypeFromRecord(r Record) models.IssueType {
	it := models.IssueType{
		ID:       r.stringField("id"),
		IsActive: r.boolField("isActive", true),
	}
	if attrs := r.attributes(); attrs != nil {
		it.Title = str(attrs, "title")
	} else {
		it.Title = r.stringField("title")
	}
	if it.Title == "" {
		it.Title = "Type " + it.ID
	}
	return it
}

// IssueFromRecord flattens an issue record into the model. Both wire shapes
// are accepted: the JSON:API shape keeps the fields under attributes, the
// direct shape keeps them at the top level. Records encoding the same
// logical issue in either shape flatten identically.
func IssueFromRecord(r Record) models.Issue {
	fields := r.attributes()
	if fields == nil {
		fields = map[string]interface{}(r)
	}

	return models.Issue{
		ID:          r.stringField("id"),
		Title:       str(fields, "title"),
		Description: str(fields, "description"),
		IssueType:   nestedString(fields["issueType"], "title"),
		Status:      str(fields, "status"),
		Priority:    str(fields, "priority"),
		CreatedAt:   str(fields, "createdAt"),
		UpdatedAt:   str(fields, "updatedAt"),
		AssignedTo:  nestedString(fields["assignedTo"], "name"),
		CreatedBy:   nestedString(fields["createdBy"], "name"),
		Location:    str(fields, "locationDescription"),
		DueDate:     str(fields, "dueDate"),
	}
}
