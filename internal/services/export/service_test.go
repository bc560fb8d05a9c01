package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitework/internal/models"
)

func sampleIssues() []models.Issue {
	return []models.Issue{
		{
			ID:          "i1",
			Title:       "Cracked slab, level 2",
			Description: "Hairline crack near column C4",
			IssueType:   "Quality",
			Status:      "open",
			Priority:    "high",
			CreatedAt:   "2026-08-01T10:00:00Z",
			UpdatedAt:   "2026-08-02T09:30:00Z",
			AssignedTo:  "Sam",
			CreatedBy:   "Alex",
			Location:    "Level 2, grid C4",
			DueDate:     "2026-09-01",
		},
		{
			ID:     "i2",
			Title:  "Missing handrail",
			Status: "closed",
		},
	}
}

func TestRenderCSV(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	data, err := svc.Render(FormatCSV, sampleIssues())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, models.IssueColumns, rows[0])
	assert.Equal(t, "i1", rows[1][0])
	assert.Equal(t, "Cracked slab, level 2", rows[1][1])
	assert.Equal(t, "Missing handrail", rows[2][1])
}

func TestRenderCSV_HeaderOnlyWhenEmpty(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	data, err := svc.Render(FormatCSV, nil)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.IssueColumns, rows[0])
}

func TestRenderXLSX(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	data, err := svc.Render(FormatXLSX, sampleIssues())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	// XLSX files are zip archives.
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestRenderPDF(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	data, err := svc.Render(FormatPDF, sampleIssues())
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRender_UnknownFormat(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	_, err := svc.Render(Format("docx"), sampleIssues())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export format")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatXLSX.ContentType())
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		projectName string
		format      Format
		want        string
	}{
		{"plain name", "Tower", FormatCSV, "issues_Tower_20260824_153000.csv"},
		{"spaces and punctuation", "Main St. Tower #2", FormatXLSX, "issues_Main_St_Tower_2_20260824_153000.xlsx"},
		{"empty name falls back", "", FormatPDF, "issues_project_20260824_153000.pdf"},
		{"all-unsafe name falls back", "///", FormatCSV, "issues_project_20260824_153000.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.projectName, tt.format, now))
		})
	}
}

func TestTruncateCell(t *testing.T) {
	assert.Equal(t, "short", truncateCell("short", 24))

	long := strings.Repeat("x", 100)
	got := truncateCell(long, 24) // 16 chars max at this width
	assert.Len(t, got, 16)
	assert.True(t, strings.HasSuffix(got, "..."))
}
