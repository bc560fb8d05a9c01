package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// UI Page routes (HTML templates)
	mux.HandleFunc("/", s.app.PageHandler.ServePage("index.html", "home"))

	// Static files (CSS, JS, images)
	mux.HandleFunc("/static/", s.app.PageHandler.StaticFileHandler)

	// Authorization flow
	mux.HandleFunc("/auth/login", s.app.AuthHandler.LoginHandler)       // GET - redirect to provider
	mux.HandleFunc("/auth/callback", s.app.AuthHandler.CallbackHandler) // GET - provider redirect target
	mux.HandleFunc("/api/auth/status", s.app.AuthHandler.StatusHandler) // GET - session auth state
	mux.HandleFunc("/api/auth/logout", s.app.AuthHandler.LogoutHandler) // POST - drop session

	// API routes - browsing and retrieval
	mux.HandleFunc("/api/hubs", s.app.DataHandler.HubsHandler)
	mux.HandleFunc("/api/projects", s.app.DataHandler.ProjectsHandler)
	mux.HandleFunc("/api/issue-types", s.app.DataHandler.IssueTypesHandler)
	mux.HandleFunc("/api/issues", s.app.DataHandler.IssuesHandler)

	// API routes - export downloads
	mux.HandleFunc("/api/export", s.app.ExportHandler.DownloadHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
