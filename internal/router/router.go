package router

import (
	"net/http"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/handlers"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/metrics"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/middleware"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/services"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/web"

	"github.com/gorilla/mux"
)

type Options struct {
	Auth        *handlers.Authenticator
	Templates   *web.Templates
	MaxFileSize int64
}

func NewRouter(projectService services.ProjectService, opts Options, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	pages := handlers.NewPageHandler(projectService, opts.Auth, opts.Templates, opts.MaxFileSize, logger)
	projects := handlers.NewProjectHandler(projectService, opts.MaxFileSize, logger)

	// Browser UI
	r.HandleFunc("/", pages.LoginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", pages.Login).Methods(http.MethodPost)
	r.HandleFunc("/dashboard", pages.Dashboard).Methods(http.MethodGet)
	r.HandleFunc("/upload", pages.UploadPage).Methods(http.MethodGet)
	r.HandleFunc("/upload", pages.Upload).Methods(http.MethodPost)
	r.HandleFunc("/results/{id}", pages.Results).Methods(http.MethodGet)
	r.HandleFunc("/delete/{id}", pages.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/projects/{id}/pages/{page:[0-9]+}.png", projects.PageImage).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(web.Static()).Methods(http.MethodGet)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// Routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Project endpoints
	api.HandleFunc("/projects", projects.ListProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects", projects.UploadProject).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", projects.GetProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", projects.DeleteProject).Methods(http.MethodDelete)

	return r
}
