package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitework/internal/services/export"
	"github.com/ternarybob/sitework/internal/services/issues"
)

// ExportHandler streams issue exports as file downloads.
type ExportHandler struct {
	issues   *issues.Service
	export   *export.Service
	sessions *SessionResolver
	logger   arbor.ILogger
}

// NewExportHandler creates a new ExportHandler instance
func NewExportHandler(issuesService *issues.Service, exportService *export.Service, sessions *SessionResolver, logger arbor.ILogger) *ExportHandler {
	return &ExportHandler{
		issues:   issuesService,
		export:   exportService,
		sessions: sessions,
		logger:   logger,
	}
}

// DownloadHandler renders the filtered issues of a project into the
// requested format and serves it as an attachment.
// GET /api/export?format=csv&hub_id=...&project_id=...&project_name=...
func (h *ExportHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	session := h.sessions.Current(r)
	if session == nil || !session.Authenticated() {
		WriteError(w, http.StatusUnauthorized, "Not authenticated. Sign in first.")
		return
	}

	query := r.URL.Query()
	hubID := query.Get("hub_id")
	projectID := query.Get("project_id")
	if hubID == "" || projectID == "" {
		WriteError(w, http.StatusBadRequest, "hub_id and project_id are required")
		return
	}

	format := export.Format(query.Get("format"))
	switch format {
	case export.FormatCSV, export.FormatXLSX, export.FormatPDF:
	case "":
		format = export.FormatCSV
	default:
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown export format: %s", format))
		return
	}

	containerID := h.issues.ResolveContainerID(r.Context(), session, hubID, projectID)
	list, err := h.issues.Issues(r.Context(), session, containerID, issueFilterFromQuery(r))
	if err != nil {
		h.logger.Warn().Err(err).Str("project", projectID).Msg("Failed to load issues for export")
		WriteError(w, http.StatusBadGateway, "Failed to load issues")
		return
	}

	data, err := h.export.Render(format, list)
	if err != nil {
		h.logger.Error().Err(err).Str("format", string(format)).Msg("Export rendering failed")
		WriteError(w, http.StatusInternalServerError, "Export failed")
		return
	}

	projectName := query.Get("project_name")
	if projectName == "" {
		projectName = projectID
	}
	filename := export.Filename(projectName, format, time.Now())

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to write export response")
	}

	h.logger.Info().
		Str("format", string(format)).
		Str("project", projectID).
		Int("rows", len(list)).
		Msg("Export downloaded")
}
