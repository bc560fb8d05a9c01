package models

// Hub is a top-level account grouping projects, as listed by the
// data-management API.
type Hub struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project is a construction project inside a hub. ContainerID is the
// identifier the construction-issues API expects; it is derived from the
// project detail response (or the project id itself), not returned by the
// project listing, and is empty until resolved.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContainerID string `json:"container_id,omitempty"`
}

// IssueType is an issue category defined per project.
type IssueType struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	IsActive bool   `json:"is_active"`
}

// Issue is a flattened construction-issue record. The issues endpoint serves
// two wire shapes (direct fields, or JSON:API style with an attributes
// envelope); both flatten into this struct so display and export see one
// representation. Every field is optional on the wire.
type Issue struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IssueType   string `json:"issue_type"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	AssignedTo  string `json:"assigned_to"`
	CreatedBy   string `json:"created_by"`
	Location    string `json:"location"`
	DueDate     string `json:"due_date"`
}

// IssueColumns is the fixed column order for tabular display and export.
var IssueColumns = []string{
	"ID", "Title", "Description", "Issue Type", "Status", "Priority",
	"Created At", "Updated At", "Assigned To", "Created By", "Location", "Due Date",
}

// Row returns the issue's values in IssueColumns order.
func (i *Issue) Row() []string {
	return []string{
		i.ID, i.Title, i.Description, i.IssueType, i.Status, i.Priority,
		i.CreatedAt, i.UpdatedAt, i.AssignedTo, i.CreatedBy, i.Location, i.DueDate,
	}
}
