package handlers

import (
	"bytes"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/services"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/web"
)

// PageHandler serves the browser UI.
type PageHandler struct {
	service     services.ProjectService
	auth        *Authenticator
	templates   *web.Templates
	maxFileSize int64
	logger      *utils.Logger
}

func NewPageHandler(service services.ProjectService, auth *Authenticator, templates *web.Templates, maxFileSize int64, logger *utils.Logger) *PageHandler {
	return &PageHandler{
		service:     service,
		auth:        auth,
		templates:   templates,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

func (h *PageHandler) render(w http.ResponseWriter, status int, name string, data map[string]any) {
	var buf bytes.Buffer
	if err := h.templates.Render(&buf, name, data); err != nil {
		h.logger.Error("Failed to render template", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *PageHandler) fail(w http.ResponseWriter, err error) {
	status, message := errorStatus(h.logger, err)
	http.Error(w, message, status)
}

func (h *PageHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login.html", map[string]any{})
}

func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, utils.NewBadRequestError("Invalid form data"))
		return
	}

	username := r.PostForm.Get("username")
	if !h.auth.Check(username, r.PostForm.Get("password")) {
		h.logger.Warn("Login failed", "username", username)
		h.render(w, http.StatusUnauthorized, "login.html", map[string]any{"Error": "Invalid credentials"})
		return
	}

	h.logger.Info("Login successful", "username", username)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}

	h.render(w, http.StatusOK, "dashboard.html", map[string]any{"Projects": projects})
}

func (h *PageHandler) UploadPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "upload.html", map[string]any{"MaxUploadMB": h.maxFileSize >> 20})
}

func (h *PageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	req, err := readUpload(w, r, h.maxFileSize)
	if err != nil {
		h.fail(w, err)
		return
	}

	resp, err := h.service.UploadProject(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	http.Redirect(w, r, "/results/"+resp.ID, http.StatusSeeOther)
}

func (h *PageHandler) Results(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}

	h.render(w, http.StatusOK, "results.html", map[string]any{"Project": project})
}

func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProject(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
